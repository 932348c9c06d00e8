package domain

import "github.com/shopspring/decimal"

// Metric numeric value that may be unavailable. Ratios with a zero
// denominator and indicators whose lookback exceeds the available history
// report an unavailable metric instead of raising an error.
type Metric struct {
	Value decimal.Decimal
	Valid bool
}

// Unavailable is the zero Metric.
var Unavailable = Metric{}

// MetricOf wraps a value in an available metric.
func MetricOf(v decimal.Decimal) Metric {
	return Metric{Value: v, Valid: true}
}

// MetricFromFloat wraps a float64 in an available metric.
func MetricFromFloat(v float64) Metric {
	return Metric{Value: decimal.NewFromFloat(v), Valid: true}
}

// Round returns the metric rounded to the given number of decimal places.
// Unavailable metrics stay unavailable.
func (m Metric) Round(places int32) Metric {
	if !m.Valid {
		return m
	}
	return Metric{Value: m.Value.Round(places), Valid: true}
}

// Float64 returns the value as float64, or 0 when unavailable.
func (m Metric) Float64() float64 {
	if !m.Valid {
		return 0
	}
	f, _ := m.Value.Float64()
	return f
}

// MarshalJSON encodes an available metric as a JSON number and an
// unavailable one as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON decodes null as unavailable and a number as available.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unavailable
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return err
	}
	*m = MetricOf(v)
	return nil
}
