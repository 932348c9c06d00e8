package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equitysage/equitysage/internal/domain"
)

type stubQuotes struct {
	quotes map[string]domain.Quote
}

func (s *stubQuotes) Quote(ctx context.Context, ticker domain.Ticker) (domain.Quote, error) {
	q, ok := s.quotes[ticker.Base]
	if !ok {
		return domain.Quote{}, errors.New("no data")
	}
	return q, nil
}

func quote(ticker string, price, changePct float64) domain.Quote {
	return domain.Quote{Ticker: ticker, Price: price, ChangePercent: changePct}
}

func TestCompareValidation(t *testing.T) {
	engine := NewEngine(&stubQuotes{}, zap.NewNop())

	cases := []struct {
		name string
		raw  []string
	}{
		{"too few", []string{"TCS"}},
		{"too many", []string{"A", "B", "C", "D", "E", "F"}},
		{"duplicate", []string{"TCS", "INFY", "TCS"}},
		{"duplicate after normalization", []string{"TCS", "tcs.ns"}},
		{"malformed symbol", []string{"TCS", "BAD!"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Compare(context.Background(), tc.raw)
			require.Error(t, err)

			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestCompare(t *testing.T) {
	quotes := &stubQuotes{quotes: map[string]domain.Quote{
		"TCS":      quote("TCS", 3500, 1.2),
		"INFY":     quote("INFY", 1500, -0.8),
		"WIPRO":    quote("WIPRO", 250, 2.5),
		"HDFCBANK": quote("HDFCBANK", 1600, 1.2),
	}}
	engine := NewEngine(quotes, zap.NewNop())

	t.Run("picks the extremes", func(t *testing.T) {
		result, err := engine.Compare(context.Background(), []string{"TCS", "INFY", "WIPRO"})
		require.NoError(t, err)
		require.Len(t, result.Quotes, 3)

		assert.Equal(t, "TCS", result.HighestPrice)
		assert.Equal(t, "WIPRO", result.LowestPrice)
		assert.Equal(t, "WIPRO", result.BestPerformer)
		assert.Equal(t, "INFY", result.WorstPerformer)
		assert.Empty(t, result.FailedTickers)
		assert.False(t, result.GeneratedAt.IsZero())
	})

	t.Run("quotes keep the input order", func(t *testing.T) {
		result, err := engine.Compare(context.Background(), []string{"WIPRO", "TCS", "INFY"})
		require.NoError(t, err)
		assert.Equal(t, "WIPRO", result.Quotes[0].Ticker)
		assert.Equal(t, "TCS", result.Quotes[1].Ticker)
		assert.Equal(t, "INFY", result.Quotes[2].Ticker)
	})

	t.Run("ties keep the first occurrence", func(t *testing.T) {
		result, err := engine.Compare(context.Background(), []string{"TCS", "HDFCBANK"})
		require.NoError(t, err)
		// both gained 1.2%
		assert.Equal(t, "TCS", result.BestPerformer)
	})

	t.Run("failed tickers are reported, comparison proceeds", func(t *testing.T) {
		result, err := engine.Compare(context.Background(), []string{"TCS", "INFY", "NOSUCH"})
		require.NoError(t, err)
		assert.Len(t, result.Quotes, 2)
		assert.Equal(t, []string{"NOSUCH"}, result.FailedTickers)
		assert.Equal(t, "TCS", result.HighestPrice)
	})

	t.Run("all tickers failing is a not-found error", func(t *testing.T) {
		_, err := engine.Compare(context.Background(), []string{"NOSUCH1", "NOSUCH2"})
		require.Error(t, err)

		var upstream *domain.UpstreamDataError
		require.ErrorAs(t, err, &upstream)
		assert.True(t, upstream.NotFound)
	})
}
