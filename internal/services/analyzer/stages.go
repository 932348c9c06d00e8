package analyzer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/equitysage/equitysage/internal/clients"
	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/services/fundamentals"
	"github.com/equitysage/equitysage/internal/services/promptbuilder"
	"github.com/equitysage/equitysage/internal/services/strategy"
	"github.com/equitysage/equitysage/internal/services/technical"
)

// Agent display names reported in stage results.
const (
	AgentMarket      = "Market Data Agent"
	AgentFundamental = "Fundamental Analyst"
	AgentTechnical   = "Technical Analyst"
	AgentStrategy    = "Investment Strategist"
)

const marketConfidence = 0.85

// StageInput carries everything a stage may consume. The orchestrator fills
// the snapshot fields before the parallel phase and the report and
// confidence fields before synthesis.
type StageInput struct {
	Ticker     domain.Ticker
	Market     *domain.MarketSnapshot
	Financials *domain.FinancialSnapshot

	FundamentalReport *fundamentals.Report
	TechnicalReport   *technical.Report

	MarketConfidence      float64
	FundamentalConfidence float64
	TechnicalConfidence   float64
}

// Stage is the uniform capability all four analysis stages implement. A
// stage never returns an error: failures are folded into the StageResult so
// one stage cannot abort its siblings.
type Stage interface {
	Name() string
	Produce(ctx context.Context, in StageInput) domain.StageResult
}

// marketStage projects the market snapshot into the market report and asks
// for a narrative about position and recent performance.
type marketStage struct {
	insight clients.InsightClient
}

func (s *marketStage) Name() string { return AgentMarket }

func (s *marketStage) Produce(ctx context.Context, in StageInput) domain.StageResult {
	report := buildMarketReport(in.Market)

	narrative, err := s.insight.GenerateInsight(ctx, promptbuilder.MarketRole, promptbuilder.BuildMarketPrompt(in.Market))
	if err != nil {
		return domain.FailedStage(s.Name(), report, err)
	}
	return domain.StageResult{
		Agent:      s.Name(),
		Data:       report,
		Narrative:  narrative,
		Confidence: marketConfidence,
		Status:     domain.StageSuccess,
	}
}

// fundamentalStage runs the ratio engine over the financial snapshot.
type fundamentalStage struct {
	engine  *fundamentals.Engine
	insight clients.InsightClient
}

func (s *fundamentalStage) Name() string { return AgentFundamental }

func (s *fundamentalStage) Produce(ctx context.Context, in StageInput) domain.StageResult {
	if in.Financials == nil {
		return domain.FailedStage(s.Name(), nil, errors.New("financial data unavailable"))
	}
	report := s.engine.Analyze(in.Financials)

	narrative, err := s.insight.GenerateInsight(ctx, promptbuilder.FundamentalRole, promptbuilder.BuildFundamentalPrompt(in.Ticker, report))
	if err != nil {
		return domain.FailedStage(s.Name(), &report, err)
	}
	status := domain.StageSuccess
	if report.AvailableSections() < 4 {
		status = domain.StageDegraded
	}
	return domain.StageResult{
		Agent:      s.Name(),
		Data:       &report,
		Narrative:  narrative,
		Confidence: fundamentalConfidence(report),
		Status:     status,
	}
}

// fundamentalConfidence grows with the share of report sections that could
// be assessed from the snapshot.
func fundamentalConfidence(report fundamentals.Report) float64 {
	return round2(0.5 + 0.4*float64(report.AvailableSections())/4)
}

// technicalStage runs the indicator engine over the bar series.
type technicalStage struct {
	engine  *technical.Engine
	insight clients.InsightClient
}

func (s *technicalStage) Name() string { return AgentTechnical }

func (s *technicalStage) Produce(ctx context.Context, in StageInput) domain.StageResult {
	report := s.engine.Analyze(in.Market.Bars, in.Market.Price)

	narrative, err := s.insight.GenerateInsight(ctx, promptbuilder.TechnicalRole, promptbuilder.BuildTechnicalPrompt(in.Ticker, report))
	if err != nil {
		return domain.FailedStage(s.Name(), &report, err)
	}
	return domain.StageResult{
		Agent:      s.Name(),
		Data:       &report,
		Narrative:  narrative,
		Confidence: technicalConfidence(report),
		Status:     domain.StageSuccess,
	}
}

// technicalConfidence grows with signal strength, capped at 0.9.
func technicalConfidence(report technical.Report) float64 {
	c := 0.5 + 0.1*float64(report.Signals.Strength)
	if c > 0.9 {
		c = 0.9
	}
	return round2(c)
}

// strategyStage synthesizes the upstream structured data into the final
// recommendation. Scores, action, and target price are deterministic; only
// the narrative and confidence degrade when the insight call fails.
type strategyStage struct {
	engine  *strategy.Engine
	insight clients.InsightClient
}

func (s *strategyStage) Name() string { return AgentStrategy }

func (s *strategyStage) Produce(ctx context.Context, in StageInput) domain.StageResult {
	report := s.engine.Evaluate(in.Market, in.FundamentalReport, in.TechnicalReport)

	narrative, err := s.insight.GenerateInsight(ctx, promptbuilder.StrategistRole, promptbuilder.BuildStrategyPrompt(in.Ticker, report))
	if err != nil {
		return domain.FailedStage(s.Name(), &report, err)
	}
	return domain.StageResult{
		Agent:      s.Name(),
		Data:       &report,
		Narrative:  narrative,
		Confidence: strategyConfidence(in),
		Status:     domain.StageSuccess,
	}
}

// strategyConfidence is the weighted blend of the upstream stage
// confidences: market 20%, fundamental 50%, technical 30%.
func strategyConfidence(in StageInput) float64 {
	return round2(0.2*in.MarketConfidence + 0.5*in.FundamentalConfidence + 0.3*in.TechnicalConfidence)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
