// Package fundamentals computes financial ratios and assessment labels from
// a statement snapshot. All computations are pure: no I/O, no narrative
// generation, and a zero denominator always yields an unavailable metric.
package fundamentals

import (
	"github.com/shopspring/decimal"

	"github.com/equitysage/equitysage/internal/domain"
)

// Assessment labels per report section.
const (
	AssessStrong   = "Strong"
	AssessGood     = "Good"
	AssessHealthy  = "Healthy"
	AssessModerate = "Moderate"
	AssessWeak     = "Weak"
	AssessCaution  = "Needs Attention"
	AssessUnknown  = "Unable to assess"

	ValuationNegativeEarnings = "Negative earnings"
	ValuationUndervalued      = "Undervalued"
	ValuationAttractive       = "Attractively valued"
	ValuationFair             = "Fairly valued"
	ValuationPremium          = "Premium valuation"
	ValuationExpensive        = "Expensive"

	GrowthHigh      = "High Growth"
	GrowthModerate  = "Moderate Growth"
	GrowthLow       = "Low Growth"
	GrowthDeclining = "Declining"

	CashFlowPositive = "Positive"
)

// Report is the full structured output of one ratio pass. Section order
// matches the weight table used for the fundamental composite score.
type Report struct {
	Profitability   Profitability   `json:"profitability"`
	Valuation       Valuation       `json:"valuation"`
	FinancialHealth FinancialHealth `json:"financial_health"`
	Growth          Growth          `json:"growth"`
	CashFlow        CashFlow        `json:"cash_flow"`
	Dividends       Dividends       `json:"dividends"`
}

// Profitability margins and returns, all in percent.
type Profitability struct {
	GrossMargin     domain.Metric `json:"gross_margin"`
	OperatingMargin domain.Metric `json:"operating_margin"`
	ProfitMargin    domain.Metric `json:"profit_margin"`
	ROE             domain.Metric `json:"roe"`
	ROA             domain.Metric `json:"roa"`
	Assessment      string        `json:"assessment"`
}

type Valuation struct {
	PERatio    domain.Metric `json:"pe_ratio"`
	ForwardPE  domain.Metric `json:"forward_pe"`
	PEGRatio   domain.Metric `json:"peg_ratio"`
	PBRatio    domain.Metric `json:"pb_ratio"`
	PSRatio    domain.Metric `json:"ps_ratio"`
	EVToEBITDA domain.Metric `json:"ev_ebitda"`
	Assessment string        `json:"assessment"`
}

type FinancialHealth struct {
	CurrentRatio domain.Metric `json:"current_ratio"`
	QuickRatio   domain.Metric `json:"quick_ratio"`
	DebtToEquity domain.Metric `json:"debt_to_equity"`
	TotalDebt    domain.Metric `json:"total_debt"`
	TotalCash    domain.Metric `json:"total_cash"`
	NetDebt      domain.Metric `json:"net_debt"`
	Assessment   string        `json:"assessment"`
}

// Growth period-over-period changes in percent. The sign of revenue growth
// drives the label; magnitude only picks the bucket.
type Growth struct {
	RevenueGrowth  domain.Metric `json:"revenue_growth"`
	EarningsGrowth domain.Metric `json:"earnings_growth"`
	Assessment     string        `json:"assessment"`
}

type CashFlow struct {
	OperatingCashflow domain.Metric `json:"operating_cashflow"`
	FreeCashflow      domain.Metric `json:"free_cashflow"`
	FCFMargin         domain.Metric `json:"fcf_margin"`
	Assessment        string        `json:"assessment"`
}

type Dividends struct {
	Yield           domain.Metric `json:"dividend_yield"`
	PayoutRatio     domain.Metric `json:"payout_ratio"`
	IsDividendPayer bool          `json:"is_dividend_payer"`
}

// Engine computes the ratio report. Stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Analyze runs the full ratio pass over the snapshot.
func (e *Engine) Analyze(fin *domain.FinancialSnapshot) Report {
	return Report{
		Profitability:   e.profitability(fin),
		Valuation:       e.valuation(fin),
		FinancialHealth: e.financialHealth(fin),
		Growth:          e.growth(fin),
		CashFlow:        e.cashFlow(fin),
		Dividends:       e.dividends(fin),
	}
}

func (e *Engine) profitability(fin *domain.FinancialSnapshot) Profitability {
	roe := fin.ReturnOnEquity
	margin := fin.ProfitMargin

	assessment := AssessWeak
	switch {
	case bothAbove(roe, 0.15, margin, 0.10):
		assessment = AssessStrong
	case bothAbove(roe, 0.10, margin, 0.05):
		assessment = AssessGood
	case roe.Valid && roe.Value.IsPositive():
		assessment = AssessModerate
	case !roe.Valid && !margin.Valid:
		assessment = AssessUnknown
	}

	return Profitability{
		GrossMargin:     asPercent(fin.GrossMargin),
		OperatingMargin: asPercent(fin.OperatingMargin),
		ProfitMargin:    asPercent(margin),
		ROE:             asPercent(roe),
		ROA:             asPercent(fin.ReturnOnAssets),
		Assessment:      assessment,
	}
}

func (e *Engine) valuation(fin *domain.FinancialSnapshot) Valuation {
	pe := fin.PERatio
	peg := fin.PEGRatio

	assessment := AssessUnknown
	switch {
	case !pe.Valid:
	case pe.Value.IsNegative():
		assessment = ValuationNegativeEarnings
	case peg.Valid && peg.Value.LessThan(decimal.NewFromInt(1)):
		assessment = ValuationUndervalued
	case pe.Value.LessThan(decimal.NewFromInt(15)):
		assessment = ValuationAttractive
	case pe.Value.LessThan(decimal.NewFromInt(25)):
		assessment = ValuationFair
	case pe.Value.LessThan(decimal.NewFromInt(40)):
		assessment = ValuationPremium
	default:
		assessment = ValuationExpensive
	}

	return Valuation{
		PERatio:    pe.Round(2),
		ForwardPE:  fin.ForwardPE.Round(2),
		PEGRatio:   peg.Round(2),
		PBRatio:    fin.PBRatio.Round(2),
		PSRatio:    fin.PSRatio.Round(2),
		EVToEBITDA: fin.EVToEBITDA.Round(2),
		Assessment: assessment,
	}
}

func (e *Engine) financialHealth(fin *domain.FinancialSnapshot) FinancialHealth {
	debtEquity := safeDiv(fin.TotalDebt, fin.TotalEquity)

	current := domain.Unavailable
	if !fin.CurrentRatio.IsZero() {
		current = domain.MetricOf(fin.CurrentRatio)
	}
	quick := domain.Unavailable
	if !fin.QuickRatio.IsZero() {
		quick = domain.MetricOf(fin.QuickRatio)
	}

	assessment := AssessCaution
	switch {
	case metricAbove(current, 1.5) && metricBelow(debtEquity, 0.5):
		assessment = AssessStrong
	case metricAbove(current, 1.0) && metricBelow(debtEquity, 1.0):
		assessment = AssessHealthy
	case metricAbove(current, 0.8):
		assessment = AssessModerate
	case !current.Valid && !debtEquity.Valid:
		assessment = AssessUnknown
	}

	netDebt := domain.MetricOf(fin.TotalDebt.Sub(fin.TotalCash))
	if fin.TotalDebt.IsZero() && fin.TotalCash.IsZero() {
		netDebt = domain.Unavailable
	}

	return FinancialHealth{
		CurrentRatio: current.Round(2),
		QuickRatio:   quick.Round(2),
		DebtToEquity: debtEquity.Round(2),
		TotalDebt:    nonZeroMetric(fin.TotalDebt),
		TotalCash:    nonZeroMetric(fin.TotalCash),
		NetDebt:      netDebt,
		Assessment:   assessment,
	}
}

func (e *Engine) growth(fin *domain.FinancialSnapshot) Growth {
	revenue := growthPercent(fin.Revenue, fin.PriorRevenue)
	earnings := growthPercent(fin.NetIncome, fin.PriorNetIncome)

	assessment := AssessUnknown
	if revenue.Valid {
		switch {
		case revenue.Value.IsNegative():
			assessment = GrowthDeclining
		case revenue.Value.GreaterThan(decimal.NewFromInt(20)):
			assessment = GrowthHigh
		case revenue.Value.GreaterThan(decimal.NewFromInt(10)):
			assessment = GrowthModerate
		default:
			assessment = GrowthLow
		}
	}

	return Growth{
		RevenueGrowth:  revenue,
		EarningsGrowth: earnings,
		Assessment:     assessment,
	}
}

func (e *Engine) cashFlow(fin *domain.FinancialSnapshot) CashFlow {
	assessment := AssessCaution
	if fin.FreeCashflow.IsPositive() {
		assessment = CashFlowPositive
	}
	return CashFlow{
		OperatingCashflow: nonZeroMetric(fin.OperatingCashflow),
		FreeCashflow:      nonZeroMetric(fin.FreeCashflow),
		FCFMargin:         asPercent(safeDiv(fin.FreeCashflow, fin.Revenue)),
		Assessment:        assessment,
	}
}

func (e *Engine) dividends(fin *domain.FinancialSnapshot) Dividends {
	return Dividends{
		Yield:           asPercent(fin.DividendYield),
		PayoutRatio:     asPercent(fin.PayoutRatio),
		IsDividendPayer: fin.DividendYield.Valid && fin.DividendYield.Value.IsPositive(),
	}
}

// AvailableSections counts the core report sections whose assessment could
// be derived from the snapshot. Drives the stage confidence score.
func (r Report) AvailableSections() int {
	n := 0
	for _, a := range []string{
		r.Profitability.Assessment,
		r.Valuation.Assessment,
		r.FinancialHealth.Assessment,
		r.Growth.Assessment,
	} {
		if a != AssessUnknown {
			n++
		}
	}
	return n
}

// asPercent converts a fraction metric (0.15) to percent (15.00).
func asPercent(m domain.Metric) domain.Metric {
	if !m.Valid {
		return m
	}
	return domain.MetricOf(m.Value.Mul(decimal.NewFromInt(100))).Round(2)
}

// safeDiv returns numer/denom, or unavailable when denom is zero.
func safeDiv(numer, denom decimal.Decimal) domain.Metric {
	if denom.IsZero() {
		return domain.Unavailable
	}
	return domain.MetricOf(numer.Div(denom))
}

// growthPercent returns the period-over-period change in percent. A
// non-positive prior period cannot anchor a meaningful rate.
func growthPercent(current, prior decimal.Decimal) domain.Metric {
	if !prior.IsPositive() {
		return domain.Unavailable
	}
	change := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100))
	return domain.MetricOf(change).Round(2)
}

func nonZeroMetric(v decimal.Decimal) domain.Metric {
	if v.IsZero() {
		return domain.Unavailable
	}
	return domain.MetricOf(v)
}

func bothAbove(a domain.Metric, aMin float64, b domain.Metric, bMin float64) bool {
	return metricAbove(a, aMin) && metricAbove(b, bMin)
}

func metricAbove(m domain.Metric, min float64) bool {
	return m.Valid && m.Value.GreaterThan(decimal.NewFromFloat(min))
}

func metricBelow(m domain.Metric, max float64) bool {
	return m.Valid && m.Value.LessThan(decimal.NewFromFloat(max))
}
