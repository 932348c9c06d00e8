// Package domain defines core data structures used throughout the analysis service.
package domain

import (
	"fmt"
	"strings"
)

// Exchange identifies the listing exchange of a ticker.
type Exchange string

const (
	ExchangeNSE Exchange = "NS"
	ExchangeBSE Exchange = "BO"
)

const maxTickerLen = 20

// Ticker normalized exchange symbol.
type Ticker struct {
	// Base symbol without exchange suffix, uppercased.
	Base string
	// Exchange listing exchange suffix.
	Exchange Exchange
}

// ParseTicker validates and normalizes a raw symbol. Symbols without an
// exchange suffix default to NSE. Parsing an already normalized symbol
// returns the same ticker.
func ParseTicker(raw string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Ticker{}, &ValidationError{Detail: "ticker symbol is empty"}
	}

	exchange := ExchangeNSE
	switch {
	case strings.HasSuffix(s, "."+string(ExchangeNSE)):
		s = strings.TrimSuffix(s, "."+string(ExchangeNSE))
	case strings.HasSuffix(s, "."+string(ExchangeBSE)):
		s = strings.TrimSuffix(s, "."+string(ExchangeBSE))
		exchange = ExchangeBSE
	}

	if len(s) > maxTickerLen {
		return Ticker{}, &ValidationError{Detail: fmt.Sprintf("ticker symbol %q is too long", raw)}
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return Ticker{}, &ValidationError{Detail: fmt.Sprintf("invalid ticker format: %s", raw)}
		}
	}

	return Ticker{Base: s, Exchange: exchange}, nil
}

// Symbol returns the full symbol with exchange suffix, e.g. "RELIANCE.NS".
func (t Ticker) Symbol() string {
	return fmt.Sprintf("%s.%s", t.Base, t.Exchange)
}

// String returns the base symbol.
func (t Ticker) String() string {
	return t.Base
}

// ExchangeName returns a human-readable exchange name.
func (t Ticker) ExchangeName() string {
	if t.Exchange == ExchangeBSE {
		return "BSE"
	}
	return "NSE"
}
