package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equitysage/equitysage/internal/cache"
	"github.com/equitysage/equitysage/internal/domain"
)

type stubSource struct {
	market      *domain.MarketSnapshot
	marketErr   error
	marketCalls int
	finCalls    int
}

func (s *stubSource) FetchMarket(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error) {
	s.marketCalls++
	return s.market, s.marketErr
}

func (s *stubSource) FetchFinancials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error) {
	s.finCalls++
	return &domain.FinancialSnapshot{Ticker: ticker}, nil
}

func newFetcher(source *stubSource) *Fetcher {
	logger := zap.NewNop()
	return NewFetcher(
		source,
		cache.New[*domain.MarketSnapshot](time.Minute, logger),
		cache.New[*domain.FinancialSnapshot](time.Minute, logger),
		logger,
	)
}

func TestFetcherCaching(t *testing.T) {
	ticker, err := domain.ParseTicker("TCS")
	require.NoError(t, err)

	t.Run("repeated reads hit the cache", func(t *testing.T) {
		source := &stubSource{market: &domain.MarketSnapshot{
			Ticker:        ticker,
			Price:         decimal.NewFromInt(3500),
			PreviousClose: decimal.NewFromInt(3450),
		}}
		f := newFetcher(source)

		for range 3 {
			_, err := f.MarketSnapshot(context.Background(), ticker)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, source.marketCalls)

		for range 3 {
			_, err := f.Financials(context.Background(), ticker)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, source.finCalls)
	})

	t.Run("quote is a deterministic projection of the cached snapshot", func(t *testing.T) {
		source := &stubSource{market: &domain.MarketSnapshot{
			Ticker:        ticker,
			Company:       domain.CompanyInfo{Name: "Tata Consultancy Services"},
			Price:         decimal.NewFromInt(3500),
			PreviousClose: decimal.NewFromInt(3450),
			Volume:        120000,
		}}
		f := newFetcher(source)

		first, err := f.Quote(context.Background(), ticker)
		require.NoError(t, err)
		second, err := f.Quote(context.Background(), ticker)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, source.marketCalls)
		assert.Equal(t, "TCS", first.Ticker)
		assert.Equal(t, 50.0, first.Change)
		assert.Equal(t, 1.45, first.ChangePercent)
	})

	t.Run("fetch failures are not cached", func(t *testing.T) {
		source := &stubSource{marketErr: errors.New("upstream down")}
		f := newFetcher(source)

		_, err := f.MarketSnapshot(context.Background(), ticker)
		require.Error(t, err)

		source.marketErr = nil
		source.market = &domain.MarketSnapshot{Ticker: ticker, Price: decimal.NewFromInt(10)}
		_, err = f.MarketSnapshot(context.Background(), ticker)
		require.NoError(t, err)
		assert.Equal(t, 2, source.marketCalls)
	})
}
