package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/services/fundamentals"
	"github.com/equitysage/equitysage/internal/services/strategy"
	"github.com/equitysage/equitysage/internal/services/technical"
)

type stubData struct {
	market     *domain.MarketSnapshot
	marketErr  error
	financials *domain.FinancialSnapshot
	finErr     error

	marketCalls int
}

func (s *stubData) MarketSnapshot(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error) {
	s.marketCalls++
	return s.market, s.marketErr
}

func (s *stubData) Financials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error) {
	return s.financials, s.finErr
}

type stubInsight struct {
	err   error
	calls atomic.Int32
}

func (s *stubInsight) GenerateInsight(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "a narrative", nil
}

func testTicker(t *testing.T) domain.Ticker {
	t.Helper()
	ticker, err := domain.ParseTicker("TCS")
	require.NoError(t, err)
	return ticker
}

func testSnapshot(ticker domain.Ticker) *domain.MarketSnapshot {
	bars := make([]domain.Bar, 30)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = domain.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(c - 0.5),
			High:   decimal.NewFromFloat(c + 1),
			Low:    decimal.NewFromFloat(c - 1),
			Close:  decimal.NewFromFloat(c),
			Volume: 1000,
		}
	}
	return &domain.MarketSnapshot{
		Ticker:        ticker,
		Company:       domain.CompanyInfo{Name: "Tata Consultancy Services"},
		Price:         decimal.NewFromFloat(130),
		PreviousClose: decimal.NewFromFloat(129),
		Volume:        1000,
		MarketCap:     domain.MetricFromFloat(4.7e12),
		High52W:       decimal.NewFromFloat(135),
		Low52W:        decimal.NewFromFloat(95),
		Bars:          bars,
	}
}

func testFinancials(ticker domain.Ticker) *domain.FinancialSnapshot {
	return &domain.FinancialSnapshot{
		Ticker:         ticker,
		ReturnOnEquity: domain.MetricFromFloat(0.45),
		ProfitMargin:   domain.MetricFromFloat(0.19),
		PERatio:        domain.MetricFromFloat(28),
		CurrentRatio:   decimal.NewFromFloat(2.4),
		TotalDebt:      decimal.NewFromInt(80),
		TotalEquity:    decimal.NewFromInt(900),
		Revenue:        decimal.NewFromInt(2400),
		PriorRevenue:   decimal.NewFromInt(2250),
	}
}

func TestAnalyze(t *testing.T) {
	logger := zap.NewNop()

	t.Run("market fetch failure aborts the run", func(t *testing.T) {
		data := &stubData{marketErr: errors.New("upstream down")}
		insight := &stubInsight{}
		o := New(data, insight, strategy.DefaultWeights, logger)

		result, err := o.Analyze(context.Background(), testTicker(t))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 1, data.marketCalls)
		assert.Zero(t, insight.calls.Load(), "no stage may run without market data")
	})

	t.Run("full pipeline success", func(t *testing.T) {
		ticker := testTicker(t)
		data := &stubData{market: testSnapshot(ticker), financials: testFinancials(ticker)}
		insight := &stubInsight{}
		o := New(data, insight, strategy.DefaultWeights, logger)

		result, err := o.Analyze(context.Background(), ticker)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "TCS", result.Ticker)
		assert.Equal(t, "Tata Consultancy Services", result.Name)
		assert.False(t, result.GeneratedAt.IsZero())

		for _, res := range []domain.StageResult{
			result.MarketData, result.Fundamental, result.Technical, result.Recommendation,
		} {
			assert.Equal(t, domain.StageSuccess, res.Status)
			assert.Equal(t, "a narrative", res.Narrative)
			assert.Empty(t, res.Error)
		}

		assert.Equal(t, AgentMarket, result.MarketData.Agent)
		assert.Equal(t, AgentFundamental, result.Fundamental.Agent)
		assert.Equal(t, AgentTechnical, result.Technical.Agent)
		assert.Equal(t, AgentStrategy, result.Recommendation.Agent)

		assert.Equal(t, marketConfidence, result.MarketData.Confidence)
		assert.InDelta(t, 0.9, result.Fundamental.Confidence, 0.001, "all four sections assessable")
		assert.Equal(t, int32(4), insight.calls.Load())
	})

	t.Run("partial financials degrade the fundamental stage", func(t *testing.T) {
		ticker := testTicker(t)
		fin := &domain.FinancialSnapshot{
			Ticker:         ticker,
			ReturnOnEquity: domain.MetricFromFloat(0.45),
			ProfitMargin:   domain.MetricFromFloat(0.19),
		}
		data := &stubData{market: testSnapshot(ticker), financials: fin}
		o := New(data, &stubInsight{}, strategy.DefaultWeights, logger)

		result, err := o.Analyze(context.Background(), ticker)
		require.NoError(t, err)

		assert.Equal(t, domain.StageDegraded, result.Fundamental.Status)
		assert.Equal(t, "a narrative", result.Fundamental.Narrative)
		assert.InDelta(t, 0.6, result.Fundamental.Confidence, 0.001, "one of four sections assessable")
	})

	t.Run("missing financials only fails the fundamental stage", func(t *testing.T) {
		ticker := testTicker(t)
		data := &stubData{
			market: testSnapshot(ticker),
			finErr: errors.New("statements unavailable"),
		}
		o := New(data, &stubInsight{}, strategy.DefaultWeights, logger)

		result, err := o.Analyze(context.Background(), ticker)
		require.NoError(t, err)

		assert.Equal(t, domain.StageFailed, result.Fundamental.Status)
		assert.Equal(t, domain.FallbackNarrative, result.Fundamental.Narrative)
		assert.Nil(t, result.Fundamental.Data)

		assert.Equal(t, domain.StageSuccess, result.MarketData.Status)
		assert.Equal(t, domain.StageSuccess, result.Technical.Status)
		assert.Equal(t, domain.StageSuccess, result.Recommendation.Status)
	})

	t.Run("insight failure degrades narratives but keeps structured data", func(t *testing.T) {
		ticker := testTicker(t)
		data := &stubData{market: testSnapshot(ticker), financials: testFinancials(ticker)}
		insight := &stubInsight{err: errors.New("llm timeout")}
		o := New(data, insight, strategy.DefaultWeights, logger)

		result, err := o.Analyze(context.Background(), ticker)
		require.NoError(t, err, "insight failures must never fail the request")

		for _, res := range []domain.StageResult{
			result.MarketData, result.Fundamental, result.Technical, result.Recommendation,
		} {
			assert.Equal(t, domain.StageFailed, res.Status)
			assert.Equal(t, domain.FallbackNarrative, res.Narrative)
			assert.Zero(t, res.Confidence)
			assert.Contains(t, res.Error, "llm timeout")
		}

		// the deterministic layers still produce their reports
		_, ok := result.Fundamental.Data.(*fundamentals.Report)
		assert.True(t, ok)
		_, ok = result.Technical.Data.(*technical.Report)
		assert.True(t, ok)

		report, ok := result.Recommendation.Data.(*strategy.Report)
		require.True(t, ok)
		assert.NotEmpty(t, report.Recommendation.Action)
	})
}
