package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar single daily OHLCV bar.
type Bar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// CompanyInfo basic listing information.
type CompanyInfo struct {
	Name     string
	Sector   string
	Industry string
	Exchange string
}

// MarketSnapshot point-in-time market data capture for one ticker.
// Immutable after creation; owned by the cache entry that holds it.
type MarketSnapshot struct {
	Ticker        Ticker
	Company       CompanyInfo
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
	Open          decimal.Decimal
	DayHigh       decimal.Decimal
	DayLow        decimal.Decimal
	Volume        int64
	AvgVolume     int64
	MarketCap     Metric
	High52W       decimal.Decimal
	Low52W        decimal.Decimal
	// Bars time-ordered daily bars, oldest first.
	Bars      []Bar
	FetchedAt time.Time
}

// Change returns the absolute price change versus the previous close.
func (s *MarketSnapshot) Change() decimal.Decimal {
	if s.PreviousClose.IsZero() {
		return decimal.Zero
	}
	return s.Price.Sub(s.PreviousClose)
}

// ChangePercent returns the percent change versus the previous close.
func (s *MarketSnapshot) ChangePercent() decimal.Decimal {
	if s.PreviousClose.IsZero() {
		return decimal.Zero
	}
	return s.Change().Div(s.PreviousClose).Mul(decimal.NewFromInt(100))
}

// Closes returns the close price series, oldest first.
func (s *MarketSnapshot) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Position52W returns the current price position inside the 52-week range
// as a percent, or an unavailable metric when the range is degenerate.
func (s *MarketSnapshot) Position52W() Metric {
	span := s.High52W.Sub(s.Low52W)
	if span.IsZero() {
		return Unavailable
	}
	pos := s.Price.Sub(s.Low52W).Div(span).Mul(decimal.NewFromInt(100))
	return MetricOf(pos)
}

// FinancialSnapshot point-in-time capture of the financial statement line
// items needed for ratio computation. Margins and yields are fractions
// (0.15 means 15%). Immutable after creation.
type FinancialSnapshot struct {
	Ticker Ticker

	GrossMargin     Metric
	OperatingMargin Metric
	ProfitMargin    Metric
	ReturnOnEquity  Metric
	ReturnOnAssets  Metric

	PERatio    Metric
	ForwardPE  Metric
	PEGRatio   Metric
	PBRatio    Metric
	PSRatio    Metric
	EVToEBITDA Metric

	CurrentRatio decimal.Decimal
	QuickRatio   decimal.Decimal
	TotalDebt    decimal.Decimal
	TotalEquity  decimal.Decimal
	TotalCash    decimal.Decimal

	Revenue        decimal.Decimal
	PriorRevenue   decimal.Decimal
	NetIncome      decimal.Decimal
	PriorNetIncome decimal.Decimal

	OperatingCashflow decimal.Decimal
	FreeCashflow      decimal.Decimal

	DividendYield Metric
	PayoutRatio   Metric

	FetchedAt time.Time
}
