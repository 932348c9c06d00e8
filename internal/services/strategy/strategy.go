// Package strategy turns the structured outputs of the ratio and indicator
// engines into a scored, deterministic recommendation. The narrative layer
// sits elsewhere: everything here is computable without an LLM.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/services/fundamentals"
	"github.com/equitysage/equitysage/internal/services/technical"
)

// Recommendation actions.
const (
	ActionBuy  = "BUY"
	ActionHold = "HOLD"
	ActionSell = "SELL"

	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

const (
	buyThreshold  = 70
	sellThreshold = 40

	maxKeyFactors = 5
)

// Weights is the blend of the two composite scores, in percent. The two
// values must sum to 100.
type Weights struct {
	Fundamental int `yaml:"fundamental"`
	Technical   int `yaml:"technical"`
}

// DefaultWeights is the even blend.
var DefaultWeights = Weights{Fundamental: 50, Technical: 50}

// Report is the full structured output of one synthesis pass.
type Report struct {
	Scores         Scores         `json:"scores"`
	Recommendation Recommendation `json:"recommendation"`
	TargetPrice    TargetPrice    `json:"target_price"`
	Risk           RiskAssessment `json:"risk_assessment"`
	KeyFactors     KeyFactors     `json:"key_factors"`
}

type Scores struct {
	Fundamental int `json:"fundamental_score"`
	Technical   int `json:"technical_score"`
	Overall     int `json:"overall_score"`
}

type Recommendation struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

type TargetPrice struct {
	Low           float64 `json:"low"`
	Mid           float64 `json:"mid"`
	High          float64 `json:"high"`
	UpsidePercent float64 `json:"upside_percent"`
}

type RiskAssessment struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

type KeyFactors struct {
	Bullish []string `json:"bullish"`
	Bearish []string `json:"bearish"`
}

// Engine computes the synthesis report. Stateless and safe for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine(weights Weights) *Engine {
	if weights.Fundamental+weights.Technical != 100 {
		weights = DefaultWeights
	}
	return &Engine{weights: weights}
}

// Evaluate synthesizes the upstream reports into scores, an action, a target
// price range, and a risk assessment. Either report may be nil when its
// stage could not produce structured data; the corresponding composite then
// stays at the neutral midpoint.
func (e *Engine) Evaluate(market *domain.MarketSnapshot, fund *fundamentals.Report, tech *technical.Report) Report {
	scores := e.scores(fund, tech)
	return Report{
		Scores:         scores,
		Recommendation: recommend(scores.Overall),
		TargetPrice:    targetPrice(market, tech),
		Risk:           assessRisk(fund, tech),
		KeyFactors:     keyFactors(fund, tech),
	}
}

func (e *Engine) scores(fund *fundamentals.Report, tech *technical.Report) Scores {
	fundScore := fundamentalComposite(fund)
	techScore := technicalComposite(tech)
	overall := (fundScore*e.weights.Fundamental + techScore*e.weights.Technical) / 100
	return Scores{
		Fundamental: fundScore,
		Technical:   techScore,
		Overall:     clampScore(overall),
	}
}

// fundamentalComposite weighs the four assessment labels:
// profitability 30, valuation 25, financial health 25, growth 20.
func fundamentalComposite(fund *fundamentals.Report) int {
	if fund == nil {
		return 50
	}

	profit := labelScore(fund.Profitability.Assessment, map[string]int{
		fundamentals.AssessStrong:   90,
		fundamentals.AssessGood:     70,
		fundamentals.AssessModerate: 50,
		fundamentals.AssessWeak:     20,
	})
	valuation := labelScore(fund.Valuation.Assessment, map[string]int{
		fundamentals.ValuationUndervalued:      90,
		fundamentals.ValuationAttractive:       75,
		fundamentals.ValuationFair:             55,
		fundamentals.ValuationPremium:          35,
		fundamentals.ValuationExpensive:        15,
		fundamentals.ValuationNegativeEarnings: 25,
	})
	health := labelScore(fund.FinancialHealth.Assessment, map[string]int{
		fundamentals.AssessStrong:   90,
		fundamentals.AssessHealthy:  70,
		fundamentals.AssessModerate: 50,
		fundamentals.AssessCaution:  20,
	})
	growth := labelScore(fund.Growth.Assessment, map[string]int{
		fundamentals.GrowthHigh:      90,
		fundamentals.GrowthModerate:  70,
		fundamentals.GrowthLow:       50,
		fundamentals.GrowthDeclining: 15,
	})

	return clampScore((profit*30 + valuation*25 + health*25 + growth*20) / 100)
}

// technicalComposite weighs trend 40, momentum 35, signal balance 25.
func technicalComposite(tech *technical.Report) int {
	if tech == nil {
		return 50
	}

	trend := labelScore(tech.Trend.Overall, map[string]int{
		technical.LabelBullish: 85,
		technical.LabelBearish: 15,
	})

	momentum := 50
	switch tech.Indicators.RSI.Condition {
	case technical.ConditionOversold:
		momentum += 25
	case technical.ConditionOverbought:
		momentum -= 25
	}
	switch tech.Indicators.Stochastic.Condition {
	case technical.ConditionOversold:
		momentum += 10
	case technical.ConditionOverbought:
		momentum -= 10
	}
	switch tech.Indicators.MACD.Crossover {
	case technical.CrossoverBullish:
		momentum += 20
	case technical.CrossoverBearish:
		momentum -= 20
	}
	momentum = clampScore(momentum)

	balance := clampScore(50 + 10*(len(tech.Signals.Bullish)-len(tech.Signals.Bearish)))

	return clampScore((trend*40 + momentum*35 + balance*25) / 100)
}

func recommend(overall int) Recommendation {
	switch {
	case overall >= buyThreshold:
		return Recommendation{
			Action:      ActionBuy,
			Description: "Favorable fundamentals and technical setup support accumulation",
			Score:       overall,
		}
	case overall >= sellThreshold:
		return Recommendation{
			Action:      ActionHold,
			Description: "Maintain existing positions and wait for a better entry",
			Score:       overall,
		}
	default:
		return Recommendation{
			Action:      ActionSell,
			Description: "Unfavorable outlook, consider reducing exposure",
			Score:       overall,
		}
	}
}

// targetPrice derives a range from the ATR and the nearest support and
// resistance levels. When a level is unavailable the ATR band substitutes;
// when the ATR itself is unavailable a 2% band does.
func targetPrice(market *domain.MarketSnapshot, tech *technical.Report) TargetPrice {
	if market == nil || market.Price.IsZero() {
		return TargetPrice{}
	}
	price := market.Price.InexactFloat64()

	band := price * 0.02
	if tech != nil && tech.Indicators.ATR.Value.Valid {
		band = tech.Indicators.ATR.Value.Float64()
	}

	low := price - 2*band
	high := price + 2*band
	if tech != nil {
		if s := tech.SupportResistance.NearestSupport; s.Valid && s.Float64() < price {
			low = s.Float64()
		}
		if r := tech.SupportResistance.NearestResistance; r.Valid && r.Float64() > price {
			high = r.Float64()
		}
	}
	if low < 0 {
		low = 0
	}
	mid := (low + high) / 2

	return TargetPrice{
		Low:           round2(low),
		Mid:           round2(mid),
		High:          round2(high),
		UpsidePercent: round1((mid - price) / price * 100),
	}
}

func assessRisk(fund *fundamentals.Report, tech *technical.Report) RiskAssessment {
	factors := []string{}
	score := 0

	if fund != nil {
		if de := fund.FinancialHealth.DebtToEquity; de.Valid && de.Value.GreaterThan(decimal.NewFromInt(1)) {
			factors = append(factors, "High debt levels")
			score += 20
		}
		switch fund.Profitability.Assessment {
		case fundamentals.AssessWeak, fundamentals.AssessModerate:
			factors = append(factors, "Weak profitability")
			score += 15
		}
		if fund.Growth.Assessment == fundamentals.GrowthDeclining {
			factors = append(factors, "Declining growth")
			score += 15
		}
	}

	if tech != nil {
		if tech.Indicators.ATR.Volatility == technical.VolatilityHigh {
			factors = append(factors, "High price volatility")
			score += 15
		}
		if tech.Trend.Overall == technical.LabelBearish {
			factors = append(factors, "Bearish price trend")
			score += 20
		}
	}

	level := RiskLow
	if score >= 50 {
		level = RiskHigh
	} else if score >= 30 {
		level = RiskModerate
	}
	return RiskAssessment{Level: level, Score: score, Factors: factors}
}

func keyFactors(fund *fundamentals.Report, tech *technical.Report) KeyFactors {
	bullish := []string{}
	bearish := []string{}

	if fund != nil {
		switch fund.Profitability.Assessment {
		case fundamentals.AssessStrong, fundamentals.AssessGood:
			bullish = append(bullish, "Strong profitability")
		case fundamentals.AssessWeak:
			bearish = append(bearish, "Weak profitability")
		}
		switch fund.Valuation.Assessment {
		case fundamentals.ValuationUndervalued, fundamentals.ValuationAttractive:
			bullish = append(bullish, "Attractive valuation")
		case fundamentals.ValuationExpensive:
			bearish = append(bearish, "Expensive valuation")
		}
		switch fund.Growth.Assessment {
		case fundamentals.GrowthHigh, fundamentals.GrowthModerate:
			bullish = append(bullish, "Growing revenue")
		case fundamentals.GrowthDeclining:
			bearish = append(bearish, "Revenue decline")
		}
		switch fund.FinancialHealth.Assessment {
		case fundamentals.AssessStrong, fundamentals.AssessHealthy:
			bullish = append(bullish, "Healthy balance sheet")
		case fundamentals.AssessCaution:
			bearish = append(bearish, "Balance sheet concerns")
		}
	}

	if tech != nil {
		bullish = append(bullish, headOf(tech.Signals.Bullish, 3)...)
		bearish = append(bearish, headOf(tech.Signals.Bearish, 3)...)
	}

	return KeyFactors{
		Bullish: headOf(bullish, maxKeyFactors),
		Bearish: headOf(bearish, maxKeyFactors),
	}
}

func labelScore(label string, table map[string]int) int {
	if s, ok := table[label]; ok {
		return s
	}
	return 50
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func headOf(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
