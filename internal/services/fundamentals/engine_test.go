package fundamentals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitysage/equitysage/internal/domain"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func metric(v float64) domain.Metric {
	return domain.MetricFromFloat(v)
}

func TestProfitabilityAssessment(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name   string
		roe    domain.Metric
		margin domain.Metric
		want   string
	}{
		{"strong", metric(0.20), metric(0.12), AssessStrong},
		{"good", metric(0.12), metric(0.06), AssessGood},
		{"moderate on thin margins", metric(0.05), metric(0.01), AssessModerate},
		{"weak on negative returns", metric(-0.05), metric(-0.02), AssessWeak},
		{"unknown without data", domain.Unavailable, domain.Unavailable, AssessUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := engine.Analyze(&domain.FinancialSnapshot{
				ReturnOnEquity: tc.roe,
				ProfitMargin:   tc.margin,
			})
			assert.Equal(t, tc.want, report.Profitability.Assessment)
		})
	}

	t.Run("fractions are reported as percents", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{ReturnOnEquity: metric(0.155)})
		require.True(t, report.Profitability.ROE.Valid)
		assert.Equal(t, 15.5, report.Profitability.ROE.Float64())
	})
}

func TestValuationAssessment(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name string
		pe   domain.Metric
		peg  domain.Metric
		want string
	}{
		{"negative earnings", metric(-8), domain.Unavailable, ValuationNegativeEarnings},
		{"undervalued by peg", metric(22), metric(0.8), ValuationUndervalued},
		{"attractive", metric(12), domain.Unavailable, ValuationAttractive},
		{"fair", metric(20), metric(1.4), ValuationFair},
		{"premium", metric(32), domain.Unavailable, ValuationPremium},
		{"expensive", metric(55), domain.Unavailable, ValuationExpensive},
		{"unknown without pe", domain.Unavailable, metric(0.8), AssessUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := engine.Analyze(&domain.FinancialSnapshot{
				PERatio:  tc.pe,
				PEGRatio: tc.peg,
			})
			assert.Equal(t, tc.want, report.Valuation.Assessment)
		})
	}
}

func TestFinancialHealth(t *testing.T) {
	engine := NewEngine()

	t.Run("strong balance sheet", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			CurrentRatio: dec(2.0),
			TotalDebt:    dec(300),
			TotalEquity:  dec(1000),
		})
		assert.Equal(t, AssessStrong, report.FinancialHealth.Assessment)
		assert.Equal(t, 0.3, report.FinancialHealth.DebtToEquity.Float64())
	})

	t.Run("healthy", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			CurrentRatio: dec(1.2),
			TotalDebt:    dec(800),
			TotalEquity:  dec(1000),
		})
		assert.Equal(t, AssessHealthy, report.FinancialHealth.Assessment)
	})

	t.Run("zero equity leaves leverage unavailable", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			CurrentRatio: dec(2.0),
			TotalDebt:    dec(500),
		})
		assert.False(t, report.FinancialHealth.DebtToEquity.Valid)
		assert.NotEqual(t, AssessStrong, report.FinancialHealth.Assessment)
	})

	t.Run("net debt", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			TotalDebt: dec(500),
			TotalCash: dec(200),
		})
		require.True(t, report.FinancialHealth.NetDebt.Valid)
		assert.Equal(t, 300.0, report.FinancialHealth.NetDebt.Float64())
	})
}

func TestGrowthAssessment(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name     string
		revenue  decimal.Decimal
		prior    decimal.Decimal
		want     string
		wantRate float64
	}{
		{"high growth", dec(1250), dec(1000), GrowthHigh, 25},
		{"moderate growth", dec(1150), dec(1000), GrowthModerate, 15},
		{"low growth", dec(1050), dec(1000), GrowthLow, 5},
		{"declining", dec(950), dec(1000), GrowthDeclining, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := engine.Analyze(&domain.FinancialSnapshot{
				Revenue:      tc.revenue,
				PriorRevenue: tc.prior,
			})
			assert.Equal(t, tc.want, report.Growth.Assessment)
			require.True(t, report.Growth.RevenueGrowth.Valid)
			assert.Equal(t, tc.wantRate, report.Growth.RevenueGrowth.Float64())
		})
	}

	t.Run("non-positive prior period cannot anchor a rate", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{Revenue: dec(1000)})
		assert.False(t, report.Growth.RevenueGrowth.Valid)
		assert.Equal(t, AssessUnknown, report.Growth.Assessment)
	})
}

func TestCashFlowAndDividends(t *testing.T) {
	engine := NewEngine()

	t.Run("positive free cash flow", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			Revenue:           dec(1000),
			OperatingCashflow: dec(200),
			FreeCashflow:      dec(150),
		})
		assert.Equal(t, CashFlowPositive, report.CashFlow.Assessment)
		require.True(t, report.CashFlow.FCFMargin.Valid)
		assert.Equal(t, 15.0, report.CashFlow.FCFMargin.Float64())
	})

	t.Run("zero revenue leaves fcf margin unavailable", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{FreeCashflow: dec(150)})
		assert.False(t, report.CashFlow.FCFMargin.Valid)
	})

	t.Run("dividend payer", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{DividendYield: metric(0.012)})
		assert.True(t, report.Dividends.IsDividendPayer)
		assert.Equal(t, 1.2, report.Dividends.Yield.Float64())
	})

	t.Run("non payer", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{})
		assert.False(t, report.Dividends.IsDividendPayer)
	})
}

func TestAvailableSections(t *testing.T) {
	engine := NewEngine()

	t.Run("empty snapshot", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{})
		assert.Equal(t, 0, report.AvailableSections())
	})

	t.Run("full snapshot", func(t *testing.T) {
		report := engine.Analyze(&domain.FinancialSnapshot{
			ReturnOnEquity: metric(0.18),
			ProfitMargin:   metric(0.12),
			PERatio:        metric(18),
			CurrentRatio:   dec(1.8),
			TotalDebt:      dec(200),
			TotalEquity:    dec(1000),
			Revenue:        dec(1200),
			PriorRevenue:   dec(1000),
		})
		assert.Equal(t, 4, report.AvailableSections())
	})
}
