// Package compare builds a cross-sectional view over a small set of tickers
// from cached quotes.
package compare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equitysage/equitysage/internal/domain"
)

const (
	minTickers = 2
	maxTickers = 5
)

// QuoteProvider supplies cached quote projections.
type QuoteProvider interface {
	Quote(ctx context.Context, ticker domain.Ticker) (domain.Quote, error)
}

// Engine validates the ticker set, fetches quotes concurrently, and picks
// the extremes.
type Engine struct {
	quotes QuoteProvider
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(quotes QuoteProvider, logger *zap.Logger) *Engine {
	return &Engine{
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
}

// Compare fetches quotes for 2 to 5 distinct tickers. Tickers that fail to
// fetch are reported in FailedTickers; the comparison proceeds over the
// succeeding subset. When no ticker resolves, the whole request fails with
// a not-found error.
func (e *Engine) Compare(ctx context.Context, raw []string) (*domain.ComparisonResult, error) {
	tickers, err := parseTickerSet(raw)
	if err != nil {
		return nil, err
	}

	quotes := make([]*domain.Quote, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tickers {
		g.Go(func() error {
			q, err := e.quotes.Quote(gctx, t)
			if err != nil {
				e.logger.Warn("quote fetch failed",
					zap.String("ticker", t.Symbol()),
					zap.Error(err),
				)
				return nil
			}
			quotes[i] = &q
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.ComparisonResult{GeneratedAt: e.now().UTC()}
	for i, q := range quotes {
		if q == nil {
			result.FailedTickers = append(result.FailedTickers, tickers[i].Base)
			continue
		}
		result.Quotes = append(result.Quotes, *q)
	}
	if len(result.Quotes) == 0 {
		return nil, &domain.UpstreamDataError{
			Ticker:   strings.Join(result.FailedTickers, ","),
			NotFound: true,
		}
	}

	pickExtremes(result)
	return result, nil
}

// parseTickerSet normalizes the raw symbols and enforces the 2-5 distinct
// tickers rule. Duplicates are detected after normalization, so "TCS" and
// "tcs.ns" collide.
func parseTickerSet(raw []string) ([]domain.Ticker, error) {
	if len(raw) < minTickers || len(raw) > maxTickers {
		return nil, &domain.ValidationError{
			Detail: fmt.Sprintf("comparison requires %d to %d tickers, got %d", minTickers, maxTickers, len(raw)),
		}
	}

	tickers := make([]domain.Ticker, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		t, err := domain.ParseTicker(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t.Symbol()]; dup {
			return nil, &domain.ValidationError{
				Detail: fmt.Sprintf("duplicate ticker %s in comparison", t.Base),
			}
		}
		seen[t.Symbol()] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

// pickExtremes selects the highest and lowest price and the best and worst
// percent performer. Strict comparisons keep the first occurrence on ties.
func pickExtremes(result *domain.ComparisonResult) {
	quotes := result.Quotes
	high, low, best, worst := 0, 0, 0, 0
	for i, q := range quotes {
		if q.Price > quotes[high].Price {
			high = i
		}
		if q.Price < quotes[low].Price {
			low = i
		}
		if q.ChangePercent > quotes[best].ChangePercent {
			best = i
		}
		if q.ChangePercent < quotes[worst].ChangePercent {
			worst = i
		}
	}
	result.HighestPrice = quotes[high].Ticker
	result.LowestPrice = quotes[low].Ticker
	result.BestPerformer = quotes[best].Ticker
	result.WorstPerformer = quotes[worst].Ticker
}
