package technical

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/equitysage/equitysage/internal/domain"
)

// Direction and condition labels shared by the report fields.
const (
	LabelBullish = "Bullish"
	LabelBearish = "Bearish"
	LabelNeutral = "Neutral"

	ConditionOversold   = "Oversold"
	ConditionOverbought = "Overbought"

	CrossoverBullish = "Bullish Crossover"
	CrossoverBearish = "Bearish Crossover"
	CrossoverNone    = "No Crossover"

	PositionAbove       = "Above"
	PositionBelow       = "Below"
	PositionUnavailable = "Unavailable"

	VolumeIncreasing = "Increasing"
	VolumeDecreasing = "Decreasing"
	VolumeFlat       = "Flat"

	VolatilityHigh     = "High"
	VolatilityModerate = "Moderate"
	VolatilityLow      = "Low"
)

const (
	shortHorizon  = 5
	mediumHorizon = 20
	longHorizon   = 60

	srLookback  = 66
	swingWindow = 2

	volumeFlatLow  = 0.9
	volumeFlatHigh = 1.1
)

// Report is the full structured output of one indicator pass. Every metric
// that cannot be computed from the given series length is reported as
// unavailable rather than as an error.
type Report struct {
	CurrentPrice      domain.Metric   `json:"current_price"`
	Trend             TrendReport     `json:"trend"`
	Indicators        IndicatorReport `json:"indicators"`
	SupportResistance LevelsReport    `json:"support_resistance"`
	Volume            VolumeReport    `json:"volume"`
	Signals           SignalReport    `json:"signals"`
}

type TrendReport struct {
	ShortTerm  HorizonTrend `json:"short_term"`
	MediumTerm HorizonTrend `json:"medium_term"`
	LongTerm   HorizonTrend `json:"long_term"`
	Overall    string       `json:"overall_trend"`
}

type HorizonTrend struct {
	Direction     string        `json:"direction"`
	ChangePercent domain.Metric `json:"change_percent"`
}

type IndicatorReport struct {
	MovingAverages MovingAverages   `json:"moving_averages"`
	RSI            RSIReport        `json:"rsi"`
	MACD           MACDReport       `json:"macd"`
	Stochastic     StochasticReport `json:"stochastic"`
	ATR            ATRReport        `json:"atr"`
}

type MovingAverages struct {
	SMA20         domain.Metric `json:"sma_20"`
	SMA50         domain.Metric `json:"sma_50"`
	SMA200        domain.Metric `json:"sma_200"`
	EMA12         domain.Metric `json:"ema_12"`
	EMA26         domain.Metric `json:"ema_26"`
	PriceVsSMA20  string        `json:"price_vs_sma_20"`
	PriceVsSMA50  string        `json:"price_vs_sma_50"`
	PriceVsSMA200 string        `json:"price_vs_sma_200"`
}

type RSIReport struct {
	Value     domain.Metric `json:"value"`
	Condition string        `json:"condition"`
}

type MACDReport struct {
	Line      domain.Metric `json:"macd_line"`
	Signal    domain.Metric `json:"signal_line"`
	Histogram domain.Metric `json:"histogram"`
	Crossover string        `json:"crossover"`
}

type StochasticReport struct {
	K         domain.Metric `json:"k"`
	D         domain.Metric `json:"d"`
	Condition string        `json:"condition"`
}

type ATRReport struct {
	Value      domain.Metric `json:"value"`
	Percent    domain.Metric `json:"percent_of_price"`
	Volatility string        `json:"volatility"`
}

type LevelsReport struct {
	Pivot             domain.Metric `json:"pivot_point"`
	SupportLevels     []float64     `json:"support_levels"`
	ResistanceLevels  []float64     `json:"resistance_levels"`
	NearestSupport    domain.Metric `json:"nearest_support"`
	NearestResistance domain.Metric `json:"nearest_resistance"`
}

type VolumeReport struct {
	Current    int64         `json:"current_volume"`
	Average    domain.Metric `json:"average_volume"`
	Ratio      domain.Metric `json:"ratio"`
	TrendLabel string        `json:"trend"`
}

type SignalReport struct {
	Bullish []string `json:"bullish_signals"`
	Bearish []string `json:"bearish_signals"`
	Overall string   `json:"overall_signal"`
	// Strength is the absolute imbalance between the two signal lists.
	Strength int `json:"strength"`
}

// Engine computes the indicator report from an ordered daily price series.
// It performs no I/O and never fails on a non-empty series.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Analyze runs the full indicator pass over the bars. The series must be
// ordered oldest to newest; price is the latest traded price, which may be
// fresher than the last bar's close.
func (e *Engine) Analyze(bars []domain.Bar, price decimal.Decimal) Report {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close.InexactFloat64()
		highs[i] = b.High.InexactFloat64()
		lows[i] = b.Low.InexactFloat64()
	}
	px := price.InexactFloat64()

	report := Report{
		CurrentPrice:      domain.MetricOf(price).Round(2),
		Trend:             e.trend(closes),
		Indicators:        e.indicators(highs, lows, closes, px),
		SupportResistance: e.supportResistance(bars, px),
		Volume:            e.volume(bars),
	}
	report.Signals = e.signals(report, closes)
	return report
}

func (e *Engine) trend(closes []float64) TrendReport {
	short := horizonTrend(closes, shortHorizon)
	medium := horizonTrend(closes, mediumHorizon)
	long := horizonTrend(closes, longHorizon)

	var bullish, bearish int
	for _, h := range []HorizonTrend{short, medium, long} {
		switch h.Direction {
		case LabelBullish:
			bullish++
		case LabelBearish:
			bearish++
		}
	}
	overall := LabelNeutral
	if bullish > bearish {
		overall = LabelBullish
	} else if bearish > bullish {
		overall = LabelBearish
	}

	return TrendReport{
		ShortTerm:  short,
		MediumTerm: medium,
		LongTerm:   long,
		Overall:    overall,
	}
}

func horizonTrend(closes []float64, lookback int) HorizonTrend {
	if len(closes) < lookback+1 {
		return HorizonTrend{Direction: PositionUnavailable, ChangePercent: domain.Unavailable}
	}
	latest := closes[len(closes)-1]
	past := closes[len(closes)-1-lookback]
	if past == 0 {
		return HorizonTrend{Direction: PositionUnavailable, ChangePercent: domain.Unavailable}
	}
	change := (latest - past) / past * 100
	direction := LabelNeutral
	if change > 0 {
		direction = LabelBullish
	} else if change < 0 {
		direction = LabelBearish
	}
	return HorizonTrend{
		Direction:     direction,
		ChangePercent: domain.MetricFromFloat(change).Round(2),
	}
}

func (e *Engine) indicators(highs, lows, closes []float64, price float64) IndicatorReport {
	return IndicatorReport{
		MovingAverages: movingAverages(closes, price),
		RSI:            rsiReport(closes),
		MACD:           macdReport(closes),
		Stochastic:     stochasticReport(highs, lows, closes),
		ATR:            atrReport(highs, lows, closes, price),
	}
}

func movingAverages(closes []float64, price float64) MovingAverages {
	report := MovingAverages{
		SMA20:         domain.Unavailable,
		SMA50:         domain.Unavailable,
		SMA200:        domain.Unavailable,
		EMA12:         domain.Unavailable,
		EMA26:         domain.Unavailable,
		PriceVsSMA20:  PositionUnavailable,
		PriceVsSMA50:  PositionUnavailable,
		PriceVsSMA200: PositionUnavailable,
	}
	if v, ok := last(smaSeries(closes, 20)); ok {
		report.SMA20 = domain.MetricFromFloat(v).Round(2)
		report.PriceVsSMA20 = priceVs(price, v)
	}
	if v, ok := last(smaSeries(closes, 50)); ok {
		report.SMA50 = domain.MetricFromFloat(v).Round(2)
		report.PriceVsSMA50 = priceVs(price, v)
	}
	if v, ok := last(smaSeries(closes, 200)); ok {
		report.SMA200 = domain.MetricFromFloat(v).Round(2)
		report.PriceVsSMA200 = priceVs(price, v)
	}
	if v, ok := last(emaSeries(closes, 12)); ok {
		report.EMA12 = domain.MetricFromFloat(v).Round(2)
	}
	if v, ok := last(emaSeries(closes, 26)); ok {
		report.EMA26 = domain.MetricFromFloat(v).Round(2)
	}
	return report
}

func priceVs(price, average float64) string {
	if price > average {
		return PositionAbove
	}
	return PositionBelow
}

func rsiReport(closes []float64) RSIReport {
	v, ok := last(rsiSeries(closes, 14))
	if !ok {
		return RSIReport{Value: domain.Unavailable, Condition: PositionUnavailable}
	}
	condition := LabelNeutral
	if v < 30 {
		condition = ConditionOversold
	} else if v > 70 {
		condition = ConditionOverbought
	}
	return RSIReport{
		Value:     domain.MetricFromFloat(v).Round(2),
		Condition: condition,
	}
}

func macdReport(closes []float64) MACDReport {
	macdLine, signalLine := macdSeries(closes)
	n := len(macdLine)
	if len(signalLine) < n {
		n = len(signalLine)
	}
	if n == 0 {
		return MACDReport{
			Line:      domain.Unavailable,
			Signal:    domain.Unavailable,
			Histogram: domain.Unavailable,
			Crossover: PositionUnavailable,
		}
	}
	// Align the tails: both kernels emit their values for the newest bars
	// last, so the last n entries of each series describe the same bars.
	macdLine = macdLine[len(macdLine)-n:]
	signalLine = signalLine[len(signalLine)-n:]

	curr := macdLine[n-1] - signalLine[n-1]
	report := MACDReport{
		Line:      domain.MetricFromFloat(macdLine[n-1]).Round(4),
		Signal:    domain.MetricFromFloat(signalLine[n-1]).Round(4),
		Histogram: domain.MetricFromFloat(curr).Round(4),
		Crossover: CrossoverNone,
	}
	if n < 2 {
		return report
	}
	prev := macdLine[n-2] - signalLine[n-2]
	if prev <= 0 && curr > 0 {
		report.Crossover = CrossoverBullish
	} else if prev >= 0 && curr < 0 {
		report.Crossover = CrossoverBearish
	}
	return report
}

func stochasticReport(highs, lows, closes []float64) StochasticReport {
	kSeries, dSeries := stochasticSeries(highs, lows, closes)
	k, okK := last(kSeries)
	d, okD := last(dSeries)
	if !okK {
		return StochasticReport{
			K:         domain.Unavailable,
			D:         domain.Unavailable,
			Condition: PositionUnavailable,
		}
	}
	condition := LabelNeutral
	if k < 20 {
		condition = ConditionOversold
	} else if k > 80 {
		condition = ConditionOverbought
	}
	report := StochasticReport{
		K:         domain.MetricFromFloat(k).Round(2),
		D:         domain.Unavailable,
		Condition: condition,
	}
	if okD {
		report.D = domain.MetricFromFloat(d).Round(2)
	}
	return report
}

func atrReport(highs, lows, closes []float64, price float64) ATRReport {
	v, ok := last(atrSeries(highs, lows, closes, 14))
	if !ok || price == 0 {
		return ATRReport{
			Value:      domain.Unavailable,
			Percent:    domain.Unavailable,
			Volatility: PositionUnavailable,
		}
	}
	pct := v / price * 100
	volatility := VolatilityLow
	if pct > 3 {
		volatility = VolatilityHigh
	} else if pct > 1.5 {
		volatility = VolatilityModerate
	}
	return ATRReport{
		Value:      domain.MetricFromFloat(v).Round(2),
		Percent:    domain.MetricFromFloat(pct).Round(2),
		Volatility: volatility,
	}
}

func (e *Engine) supportResistance(bars []domain.Bar, price float64) LevelsReport {
	report := LevelsReport{
		Pivot:             domain.Unavailable,
		NearestSupport:    domain.Unavailable,
		NearestResistance: domain.Unavailable,
	}
	if len(bars) == 0 {
		return report
	}

	window := bars
	if len(window) > srLookback {
		window = window[len(window)-srLookback:]
	}

	supports, resistances := swingLevels(window)

	lastBar := bars[len(bars)-1]
	high := lastBar.High.InexactFloat64()
	low := lastBar.Low.InexactFloat64()
	cls := lastBar.Close.InexactFloat64()

	pivot := (high + low + cls) / 3
	report.Pivot = domain.MetricFromFloat(pivot).Round(2)
	resistances = append(resistances, 2*pivot-low, pivot+(high-low))
	supports = append(supports, 2*pivot-high, pivot-(high-low))

	report.SupportLevels = nearestBelow(supports, price, 3)
	report.ResistanceLevels = nearestAbove(resistances, price, 3)
	if len(report.SupportLevels) > 0 {
		report.NearestSupport = domain.MetricFromFloat(report.SupportLevels[0]).Round(2)
	}
	if len(report.ResistanceLevels) > 0 {
		report.NearestResistance = domain.MetricFromFloat(report.ResistanceLevels[0]).Round(2)
	}
	return report
}

// swingLevels collects local extrema: a bar whose high tops its neighbors on
// both sides is a resistance candidate, a bar whose low undercuts them is a
// support candidate.
func swingLevels(bars []domain.Bar) (supports, resistances []float64) {
	for i := swingWindow; i < len(bars)-swingWindow; i++ {
		high := bars[i].High.InexactFloat64()
		low := bars[i].Low.InexactFloat64()
		isSwingHigh, isSwingLow := true, true
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			if j == i {
				continue
			}
			if bars[j].High.InexactFloat64() >= high {
				isSwingHigh = false
			}
			if bars[j].Low.InexactFloat64() <= low {
				isSwingLow = false
			}
		}
		if isSwingHigh {
			resistances = append(resistances, high)
		}
		if isSwingLow {
			supports = append(supports, low)
		}
	}
	return supports, resistances
}

// nearestBelow returns up to limit levels strictly below price, closest first.
func nearestBelow(levels []float64, price float64, limit int) []float64 {
	var below []float64
	for _, l := range levels {
		if l < price && l > 0 {
			below = append(below, l)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(below)))
	if len(below) > limit {
		below = below[:limit]
	}
	return roundAll(below)
}

// nearestAbove returns up to limit levels strictly above price, closest first.
func nearestAbove(levels []float64, price float64, limit int) []float64 {
	var above []float64
	for _, l := range levels {
		if l > price {
			above = append(above, l)
		}
	}
	sort.Float64s(above)
	if len(above) > limit {
		above = above[:limit]
	}
	return roundAll(above)
}

func roundAll(levels []float64) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = domain.MetricFromFloat(l).Round(2).Float64()
	}
	return out
}

func (e *Engine) volume(bars []domain.Bar) VolumeReport {
	if len(bars) == 0 {
		return VolumeReport{
			Average:    domain.Unavailable,
			Ratio:      domain.Unavailable,
			TrendLabel: PositionUnavailable,
		}
	}
	current := bars[len(bars)-1].Volume

	window := bars
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	var total int64
	for _, b := range window {
		total += b.Volume
	}
	avg := float64(total) / float64(len(window))
	if avg == 0 {
		return VolumeReport{
			Current:    current,
			Average:    domain.MetricFromFloat(0),
			Ratio:      domain.Unavailable,
			TrendLabel: PositionUnavailable,
		}
	}

	ratio := float64(current) / avg
	label := VolumeFlat
	if ratio > volumeFlatHigh {
		label = VolumeIncreasing
	} else if ratio < volumeFlatLow {
		label = VolumeDecreasing
	}
	return VolumeReport{
		Current:    current,
		Average:    domain.MetricFromFloat(avg).Round(0),
		Ratio:      domain.MetricFromFloat(ratio).Round(2),
		TrendLabel: label,
	}
}

// signals applies the fixed rule set. Every rule appends to exactly one of
// the two lists, so a signal can never appear on both sides.
func (e *Engine) signals(r Report, closes []float64) SignalReport {
	var bullish, bearish []string

	ma := r.Indicators.MovingAverages
	if ma.PriceVsSMA20 == PositionAbove && ma.PriceVsSMA50 == PositionAbove && ma.PriceVsSMA200 == PositionAbove {
		bullish = append(bullish, "Price above all major SMAs")
	} else if ma.PriceVsSMA20 == PositionBelow && ma.PriceVsSMA50 == PositionBelow && ma.PriceVsSMA200 == PositionBelow {
		bearish = append(bearish, "Price below all major SMAs")
	}
	switch ma.PriceVsSMA200 {
	case PositionAbove:
		bullish = append(bullish, "Price above 200-day SMA")
	case PositionBelow:
		bearish = append(bearish, "Price below 200-day SMA")
	}

	switch r.Indicators.RSI.Condition {
	case ConditionOversold:
		bullish = append(bullish, "RSI oversold")
	case ConditionOverbought:
		bearish = append(bearish, "RSI overbought")
	}

	switch r.Indicators.MACD.Crossover {
	case CrossoverBullish:
		bullish = append(bullish, "MACD bullish crossover")
	case CrossoverBearish:
		bearish = append(bearish, "MACD bearish crossover")
	}

	switch r.Indicators.Stochastic.Condition {
	case ConditionOversold:
		bullish = append(bullish, "Stochastic oversold")
	case ConditionOverbought:
		bearish = append(bearish, "Stochastic overbought")
	}

	if r.Volume.TrendLabel == VolumeIncreasing && len(closes) >= 2 {
		if closes[len(closes)-1] > closes[len(closes)-2] {
			bullish = append(bullish, "Volume increasing with rising price")
		} else if closes[len(closes)-1] < closes[len(closes)-2] {
			bearish = append(bearish, "Volume increasing with falling price")
		}
	}

	overall := LabelNeutral
	if len(bullish) > len(bearish)+1 {
		overall = LabelBullish
	} else if len(bearish) > len(bullish)+1 {
		overall = LabelBearish
	}

	strength := len(bullish) - len(bearish)
	if strength < 0 {
		strength = -strength
	}
	return SignalReport{
		Bullish:  bullish,
		Bearish:  bearish,
		Overall:  overall,
		Strength: strength,
	}
}
