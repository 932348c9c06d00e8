package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricJSON(t *testing.T) {
	t.Run("unavailable encodes as null", func(t *testing.T) {
		out, err := json.Marshal(Unavailable)
		require.NoError(t, err)
		assert.Equal(t, "null", string(out))
	})

	t.Run("available encodes as number", func(t *testing.T) {
		out, err := json.Marshal(MetricOf(decimal.NewFromFloat(12.5)))
		require.NoError(t, err)
		assert.Equal(t, "12.5", string(out))
	})

	t.Run("null decodes as unavailable", func(t *testing.T) {
		var m Metric
		require.NoError(t, json.Unmarshal([]byte("null"), &m))
		assert.False(t, m.Valid)
	})
}

func TestMetricRound(t *testing.T) {
	m := MetricFromFloat(3.14159).Round(2)
	assert.True(t, m.Valid)
	assert.Equal(t, 3.14, m.Float64())

	assert.False(t, Unavailable.Round(2).Valid)
	assert.Zero(t, Unavailable.Float64())
}

func TestFailedStage(t *testing.T) {
	res := FailedStage("Technical Analyst", nil, assert.AnError)
	assert.Equal(t, StageFailed, res.Status)
	assert.Equal(t, FallbackNarrative, res.Narrative)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, assert.AnError.Error(), res.Error)
}
