package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicker(t *testing.T) {
	t.Run("defaults to NSE", func(t *testing.T) {
		ticker, err := ParseTicker("reliance")
		require.NoError(t, err)
		assert.Equal(t, "RELIANCE", ticker.Base)
		assert.Equal(t, ExchangeNSE, ticker.Exchange)
		assert.Equal(t, "RELIANCE.NS", ticker.Symbol())
		assert.Equal(t, "NSE", ticker.ExchangeName())
	})

	t.Run("keeps BSE suffix", func(t *testing.T) {
		ticker, err := ParseTicker("tcs.bo")
		require.NoError(t, err)
		assert.Equal(t, "TCS", ticker.Base)
		assert.Equal(t, ExchangeBSE, ticker.Exchange)
		assert.Equal(t, "TCS.BO", ticker.Symbol())
		assert.Equal(t, "BSE", ticker.ExchangeName())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		ticker, err := ParseTicker("  infy.ns ")
		require.NoError(t, err)
		assert.Equal(t, "INFY.NS", ticker.Symbol())
	})

	t.Run("parsing is idempotent", func(t *testing.T) {
		first, err := ParseTicker("hdfcbank")
		require.NoError(t, err)

		second, err := ParseTicker(first.Symbol())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			name string
			raw  string
		}{
			{"empty", ""},
			{"whitespace only", "   "},
			{"invalid characters", "TCS!"},
			{"embedded space", "TATA MOTORS"},
			{"too long", strings.Repeat("A", 21)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ParseTicker(tc.raw)
				require.Error(t, err)

				var validation *ValidationError
				assert.ErrorAs(t, err, &validation)
			})
		}
	})

	t.Run("digits are allowed", func(t *testing.T) {
		ticker, err := ParseTicker("360ONE")
		require.NoError(t, err)
		assert.Equal(t, "360ONE", ticker.Base)
	})
}
