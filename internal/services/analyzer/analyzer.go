// Package analyzer sequences the full analysis pipeline for one ticker:
// fetch, parallel fundamental and technical stages, then synthesis. Stage
// failures are isolated; only a market-data fetch failure aborts the run.
package analyzer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equitysage/equitysage/internal/clients"
	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/services/fundamentals"
	"github.com/equitysage/equitysage/internal/services/strategy"
	"github.com/equitysage/equitysage/internal/services/technical"
)

// Pipeline phases, in order.
const (
	phaseFetching    = "fetching"
	phaseParallel    = "parallel_analysis"
	phaseSynthesis   = "synthesizing"
	phaseDone        = "done"
	phaseFetchFailed = "failed"
)

// DataProvider supplies cached snapshots to the pipeline.
type DataProvider interface {
	MarketSnapshot(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error)
	Financials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error)
}

// Orchestrator runs the four analysis stages over cached market data.
type Orchestrator struct {
	data     DataProvider
	market   Stage
	fund     Stage
	tech     Stage
	strategy Stage
	logger   *zap.Logger
	now      func() time.Time
}

// New wires the four stages around one insight client and one data provider.
func New(data DataProvider, insight clients.InsightClient, weights strategy.Weights, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		data:     data,
		market:   &marketStage{insight: insight},
		fund:     &fundamentalStage{engine: fundamentals.NewEngine(), insight: insight},
		tech:     &technicalStage{engine: technical.NewEngine(), insight: insight},
		strategy: &strategyStage{engine: strategy.NewEngine(weights), insight: insight},
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze runs the pipeline for one ticker. The returned error is non-nil
// only when the market-data fetch fails; every downstream failure is folded
// into the corresponding StageResult instead.
func (o *Orchestrator) Analyze(ctx context.Context, ticker domain.Ticker) (*domain.AnalysisResult, error) {
	log := o.logger.With(zap.String("ticker", ticker.Symbol()))
	log.Info("analysis started", zap.String("phase", phaseFetching))

	market, err := o.data.MarketSnapshot(ctx, ticker)
	if err != nil {
		log.Error("market data fetch failed", zap.String("phase", phaseFetchFailed), zap.Error(err))
		return nil, errors.Wrapf(err, "fetch market data for %s", ticker)
	}

	// A missing financial snapshot only fails the fundamental stage.
	financials, err := o.data.Financials(ctx, ticker)
	if err != nil {
		log.Warn("financial data fetch failed", zap.Error(err))
		financials = nil
	}

	in := StageInput{
		Ticker:     ticker,
		Market:     market,
		Financials: financials,
	}

	log.Info("running analysis stages", zap.String("phase", phaseParallel))
	var marketRes, fundRes, techRes domain.StageResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		marketRes = o.market.Produce(gctx, in)
		return nil
	})
	g.Go(func() error {
		fundRes = o.fund.Produce(gctx, in)
		return nil
	})
	g.Go(func() error {
		techRes = o.tech.Produce(gctx, in)
		return nil
	})
	// Stages never return errors, but Wait still fences the goroutines.
	_ = g.Wait()

	log.Info("synthesizing recommendation", zap.String("phase", phaseSynthesis))
	if report, ok := fundRes.Data.(*fundamentals.Report); ok {
		in.FundamentalReport = report
	}
	if report, ok := techRes.Data.(*technical.Report); ok {
		in.TechnicalReport = report
	}
	in.MarketConfidence = marketRes.Confidence
	in.FundamentalConfidence = fundRes.Confidence
	in.TechnicalConfidence = techRes.Confidence

	recommendation := o.strategy.Produce(ctx, in)

	log.Info("analysis complete",
		zap.String("phase", phaseDone),
		zap.String("fundamental_status", string(fundRes.Status)),
		zap.String("technical_status", string(techRes.Status)),
		zap.String("recommendation_status", string(recommendation.Status)),
	)

	return &domain.AnalysisResult{
		Ticker:         ticker.String(),
		Name:           market.Company.Name,
		MarketData:     marketRes,
		Fundamental:    fundRes,
		Technical:      techRes,
		Recommendation: recommendation,
		GeneratedAt:    o.now().UTC(),
	}, nil
}
