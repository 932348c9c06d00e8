// Package marketdata provides cached access to the external market data
// source.
package marketdata

import (
	"context"

	"go.uber.org/zap"

	"github.com/equitysage/equitysage/internal/cache"
	"github.com/equitysage/equitysage/internal/domain"
)

// Source fetches raw snapshots from the upstream market data provider.
type Source interface {
	FetchMarket(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error)
	FetchFinancials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error)
}

// Fetcher serves market and financial snapshots through the shared TTL
// cache. Snapshots are written to the cache only on a successful fetch, so
// a failed upstream call never wedges a key for the full TTL.
type Fetcher struct {
	source     Source
	market     *cache.Store[*domain.MarketSnapshot]
	financials *cache.Store[*domain.FinancialSnapshot]
	logger     *zap.Logger
}

// NewFetcher creates a Fetcher backed by the given source and cache stores.
func NewFetcher(
	source Source,
	market *cache.Store[*domain.MarketSnapshot],
	financials *cache.Store[*domain.FinancialSnapshot],
	logger *zap.Logger,
) *Fetcher {
	return &Fetcher{
		source:     source,
		market:     market,
		financials: financials,
		logger:     logger,
	}
}

// MarketSnapshot returns the cached market snapshot for ticker, fetching it
// when absent or expired.
func (f *Fetcher) MarketSnapshot(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error) {
	key := cache.Key{Ticker: ticker.Symbol(), Kind: cache.KindMarket}
	return f.market.GetOrFetch(ctx, key, func(ctx context.Context) (*domain.MarketSnapshot, error) {
		f.logger.Info("fetching market snapshot", zap.String("ticker", ticker.Base))
		return f.source.FetchMarket(ctx, ticker)
	})
}

// Financials returns the cached financial statement snapshot for ticker.
func (f *Fetcher) Financials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error) {
	key := cache.Key{Ticker: ticker.Symbol(), Kind: cache.KindFinancials}
	return f.financials.GetOrFetch(ctx, key, func(ctx context.Context) (*domain.FinancialSnapshot, error) {
		f.logger.Info("fetching financial snapshot", zap.String("ticker", ticker.Base))
		return f.source.FetchFinancials(ctx, ticker)
	})
}

// Quote projects the cached market snapshot into a display quote.
func (f *Fetcher) Quote(ctx context.Context, ticker domain.Ticker) (domain.Quote, error) {
	snapshot, err := f.MarketSnapshot(ctx, ticker)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.QuoteFromSnapshot(snapshot), nil
}
