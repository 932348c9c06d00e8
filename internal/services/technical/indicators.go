package technical

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// Thin bridges over the cinar indicator kernels. All of them return an
// empty slice instead of an error when the series is shorter than the
// indicator's natural lookback; the engine reports those metrics as
// unavailable.

func smaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
}

func rsiSeries(values []float64, period int) []float64 {
	if len(values) < period+1 {
		return nil
	}
	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(values)))
}

// macdSeries returns the MACD line and the signal line. The signal line is
// collected concurrently because the kernel produces both channels from one
// input stream.
func macdSeries(values []float64) (macdLine, signalLine []float64) {
	if len(values) < 35 { // 26-bar slow EMA plus 9-bar signal warmup
		return nil, nil
	}
	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(values))

	done := make(chan []float64, 1)
	go func() {
		done <- helper.ChanToSlice(signalChan)
	}()
	macdLine = helper.ChanToSlice(macdChan)
	signalLine = <-done
	return macdLine, signalLine
}

func stochasticSeries(highs, lows, closes []float64) (k, d []float64) {
	if len(closes) < 17 { // 14-bar %K window plus 3-bar %D smoothing
		return nil, nil
	}
	stoch := momentum.NewStochasticOscillator[float64]()
	kChan, dChan := stoch.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	)

	done := make(chan []float64, 1)
	go func() {
		done <- helper.ChanToSlice(dChan)
	}()
	k = helper.ChanToSlice(kChan)
	d = <-done
	return k, d
}

func atrSeries(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return nil
	}
	atr := volatility.NewAtrWithPeriod[float64](period)
	return helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	))
}

func last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
