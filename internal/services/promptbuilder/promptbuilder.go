// Package promptbuilder formats structured analysis data into compact
// markdown prompts for LLM consumption. Each analysis stage has its own
// system role and user prompt builder.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/services/fundamentals"
	"github.com/equitysage/equitysage/internal/services/strategy"
	"github.com/equitysage/equitysage/internal/services/technical"
)

// System roles, one per analysis stage.
const (
	MarketRole = `You are a specialist in fetching and interpreting Indian stock market data.
Provide a clear, concise analysis. Focus on key insights and actionable information.`

	FundamentalRole = `You are an expert financial analyst specializing in fundamental analysis, financial statements, and valuation metrics.
Provide a clear, concise analysis. Focus on key insights and actionable information.`

	TechnicalRole = `You are an expert technical analyst specializing in chart patterns, indicators, and price action analysis.
Provide a clear, concise analysis. Focus on key insights and actionable information.`

	StrategistRole = `You are a senior investment strategist who synthesizes market data, fundamental analysis, and technical analysis to provide actionable investment recommendations.
Provide a clear, concise analysis. Focus on key insights and actionable information.`
)

// BuildMarketPrompt summarizes the market snapshot for the market stage.
func BuildMarketPrompt(snap *domain.MarketSnapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the market data for %s and provide key observations about its current market position, valuation, and recent performance.\n\n", snap.Ticker))

	sb.WriteString("## Market Data\n\n")
	sb.WriteString(fmt.Sprintf("**Company:** %s (%s)\n", snap.Company.Name, snap.Company.Sector))
	sb.WriteString(fmt.Sprintf("**Current Price:** %s\n", snap.Price.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("**Change:** %s (%s%%)\n", snap.Change().StringFixed(2), snap.ChangePercent().StringFixed(2)))
	sb.WriteString(fmt.Sprintf("**Volume:** %d (avg %d)\n", snap.Volume, snap.AvgVolume))
	sb.WriteString(fmt.Sprintf("**52-Week Range:** %s - %s", snap.Low52W.StringFixed(2), snap.High52W.StringFixed(2)))
	if pos := snap.Position52W(); pos.Valid {
		sb.WriteString(fmt.Sprintf(" (currently at %s%% of range)", pos.Round(1).Value.String()))
	}
	sb.WriteString("\n\n")

	writeInstruction(&sb)
	return sb.String()
}

// BuildFundamentalPrompt summarizes the ratio report for the fundamental stage.
func BuildFundamentalPrompt(ticker domain.Ticker, report fundamentals.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the fundamental health of %s based on the following key metrics.\n\n", ticker))
	sb.WriteString("Evaluate:\n")
	sb.WriteString("1. Is the company profitable and growing?\n")
	sb.WriteString("2. Is the valuation reasonable compared to growth?\n")
	sb.WriteString("3. Is the balance sheet healthy?\n")
	sb.WriteString("4. What are the key strengths and concerns?\n\n")

	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString(fmt.Sprintf("**Profitability (%s):** ROE %s%%, profit margin %s%%\n",
		report.Profitability.Assessment, metricStr(report.Profitability.ROE), metricStr(report.Profitability.ProfitMargin)))
	sb.WriteString(fmt.Sprintf("**Valuation (%s):** P/E %s, P/B %s, PEG %s\n",
		report.Valuation.Assessment, metricStr(report.Valuation.PERatio), metricStr(report.Valuation.PBRatio), metricStr(report.Valuation.PEGRatio)))
	sb.WriteString(fmt.Sprintf("**Financial Health (%s):** current ratio %s, debt/equity %s\n",
		report.FinancialHealth.Assessment, metricStr(report.FinancialHealth.CurrentRatio), metricStr(report.FinancialHealth.DebtToEquity)))
	sb.WriteString(fmt.Sprintf("**Growth (%s):** revenue %s%%, earnings %s%%\n",
		report.Growth.Assessment, metricStr(report.Growth.RevenueGrowth), metricStr(report.Growth.EarningsGrowth)))
	sb.WriteString(fmt.Sprintf("**Cash Flow (%s):** FCF margin %s%%\n",
		report.CashFlow.Assessment, metricStr(report.CashFlow.FCFMargin)))
	sb.WriteString(fmt.Sprintf("**Dividend Yield:** %s%%\n\n", metricStr(report.Dividends.Yield)))

	sb.WriteString("Provide a clear, structured analysis suitable for an investor.\n")
	return sb.String()
}

// BuildTechnicalPrompt summarizes the indicator report for the technical stage.
func BuildTechnicalPrompt(ticker domain.Ticker, report technical.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the technical setup for %s based on the following indicators and signals.\n\n", ticker))

	sb.WriteString("## Trend\n\n")
	sb.WriteString(fmt.Sprintf("**Overall:** %s (short %s, medium %s, long %s)\n\n",
		report.Trend.Overall,
		report.Trend.ShortTerm.Direction,
		report.Trend.MediumTerm.Direction,
		report.Trend.LongTerm.Direction))

	sb.WriteString("## Indicators\n\n")
	sb.WriteString(fmt.Sprintf("**RSI(14):** %s (%s)\n", metricStr(report.Indicators.RSI.Value), report.Indicators.RSI.Condition))
	sb.WriteString(fmt.Sprintf("**MACD:** %s (histogram %s)\n", report.Indicators.MACD.Crossover, metricStr(report.Indicators.MACD.Histogram)))
	sb.WriteString(fmt.Sprintf("**Stochastic %%K:** %s (%s)\n", metricStr(report.Indicators.Stochastic.K), report.Indicators.Stochastic.Condition))
	sb.WriteString(fmt.Sprintf("**Price vs SMA 20/50/200:** %s / %s / %s\n",
		report.Indicators.MovingAverages.PriceVsSMA20,
		report.Indicators.MovingAverages.PriceVsSMA50,
		report.Indicators.MovingAverages.PriceVsSMA200))
	sb.WriteString(fmt.Sprintf("**Volatility (ATR):** %s\n\n", report.Indicators.ATR.Volatility))

	sb.WriteString("## Levels\n\n")
	sb.WriteString(fmt.Sprintf("**Nearest Support:** %s\n", metricStr(report.SupportResistance.NearestSupport)))
	sb.WriteString(fmt.Sprintf("**Nearest Resistance:** %s\n\n", metricStr(report.SupportResistance.NearestResistance)))

	sb.WriteString("## Signals\n\n")
	sb.WriteString(fmt.Sprintf("**Bullish:** %s\n", joinOrNone(report.Signals.Bullish)))
	sb.WriteString(fmt.Sprintf("**Bearish:** %s\n", joinOrNone(report.Signals.Bearish)))
	sb.WriteString(fmt.Sprintf("**Volume:** %s\n\n", report.Volume.TrendLabel))

	sb.WriteString("Evaluate:\n")
	sb.WriteString("1. What is the overall technical picture?\n")
	sb.WriteString("2. Are there clear entry or exit signals?\n")
	sb.WriteString("3. What are the key levels to watch?\n\n")

	writeInstruction(&sb)
	return sb.String()
}

// BuildStrategyPrompt summarizes all upstream structured data for the final
// recommendation narrative.
func BuildStrategyPrompt(ticker domain.Ticker, report strategy.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("As a senior investment strategist, provide a comprehensive investment recommendation for %s.\n\n", ticker))

	sb.WriteString("Based on the analysis:\n")
	sb.WriteString(fmt.Sprintf("- Fundamental Score: %d/100\n", report.Scores.Fundamental))
	sb.WriteString(fmt.Sprintf("- Technical Score: %d/100\n", report.Scores.Technical))
	sb.WriteString(fmt.Sprintf("- Overall Score: %d/100\n\n", report.Scores.Overall))

	sb.WriteString(fmt.Sprintf("Key Bullish Factors: %s\n", joinOrNone(report.KeyFactors.Bullish)))
	sb.WriteString(fmt.Sprintf("Key Bearish Factors: %s\n\n", joinOrNone(report.KeyFactors.Bearish)))

	sb.WriteString(fmt.Sprintf("Recommendation: %s\n", report.Recommendation.Action))
	sb.WriteString(fmt.Sprintf("Target Price Range: %.2f - %.2f\n", report.TargetPrice.Low, report.TargetPrice.High))
	sb.WriteString(fmt.Sprintf("Risk Level: %s\n\n", report.Risk.Level))

	sb.WriteString("Provide:\n")
	sb.WriteString("1. Clear investment thesis\n")
	sb.WriteString("2. Key reasons for your recommendation\n")
	sb.WriteString("3. What would change your view\n")
	sb.WriteString("4. Suggested investment horizon\n")
	sb.WriteString("5. Position sizing advice based on risk\n\n")
	sb.WriteString("Be specific and actionable.\n")
	return sb.String()
}

func writeInstruction(sb *strings.Builder) {
	sb.WriteString("Provide a clear, concise analysis. Focus on key insights and actionable information.\n")
}

func metricStr(m domain.Metric) string {
	if !m.Valid {
		return "n/a"
	}
	return m.Value.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
