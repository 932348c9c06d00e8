package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitysage/equitysage/internal/domain"
)

func TestFormatMarketCap(t *testing.T) {
	cases := []struct {
		name string
		cap  domain.Metric
		want string
	}{
		{"unavailable", domain.Unavailable, "N/A"},
		{"small cap", domain.MetricFromFloat(500 * 1e7), "₹500.00 Cr"},
		{"large cap", domain.MetricFromFloat(4500 * 1e7), "₹4.50K Cr"},
		{"mega cap", domain.MetricFromFloat(1_300_000 * 1e7), "₹13.00L Cr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatMarketCap(tc.cap))
		})
	}
}

func TestPeriodReturn(t *testing.T) {
	ticker, err := domain.ParseTicker("TCS")
	require.NoError(t, err)
	snap := testSnapshot(ticker)

	t.Run("window change", func(t *testing.T) {
		// closes run 100..129, the last 22 bars run 108..129
		m := periodReturn(snap.Bars, returnWindow1M)
		require.True(t, m.Valid)
		assert.InDelta(t, 19.44, m.Float64(), 0.01)
	})

	t.Run("window clamps to available history", func(t *testing.T) {
		full := periodReturn(snap.Bars, len(snap.Bars))
		clamped := periodReturn(snap.Bars, returnWindow6M)
		assert.Equal(t, full, clamped)
	})

	t.Run("insufficient history", func(t *testing.T) {
		assert.False(t, periodReturn(snap.Bars[:1], returnWindow1M).Valid)
	})
}

func TestBuildMarketReport(t *testing.T) {
	ticker, err := domain.ParseTicker("TCS")
	require.NoError(t, err)

	report := buildMarketReport(testSnapshot(ticker))
	assert.Equal(t, "Tata Consultancy Services", report.BasicInfo.Name)
	assert.Equal(t, "NSE", report.BasicInfo.Exchange)
	assert.Equal(t, 130.0, report.PriceData.CurrentPrice)
	assert.Equal(t, 135.0, report.Week52.High)
	require.True(t, report.Week52.PositionPercent.Valid)
	assert.Equal(t, 87.5, report.Week52.PositionPercent.Float64())
}
