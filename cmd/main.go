// Command equitysage runs the stock analysis HTTP service. It fetches
// market and financial data from Yahoo Finance, runs fundamental and
// technical analysis in parallel, and synthesizes an investment
// recommendation, optionally narrated by an LLM.
//
// Usage:
//
//	equitysage --config config.yaml
//	equitysage --listen :8000
//
// The LLM API key is read from the LLM_API_KEY environment variable. When
// unset, analysis still runs with deterministic fallback narratives.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/equitysage/equitysage/config"
	"github.com/equitysage/equitysage/internal/cache"
	"github.com/equitysage/equitysage/internal/clients"
	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/internal/server"
	"github.com/equitysage/equitysage/internal/services/analyzer"
	"github.com/equitysage/equitysage/internal/services/compare"
	"github.com/equitysage/equitysage/internal/services/marketdata"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	yahoo := clients.NewYahooClient(logger, clients.WithHistoryRange(cfg.HistoryRange))
	insight := clients.NewOpenAICompatibleClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	if !insight.Configured() {
		logger.Warn("LLM_API_KEY is not set, narratives fall back to deterministic text")
	}

	marketCache := cache.New[*domain.MarketSnapshot](cfg.CacheTTL, logger)
	financialsCache := cache.New[*domain.FinancialSnapshot](cfg.CacheTTL, logger)

	janitor, err := cache.NewJanitor(cfg.PurgeInterval, logger, marketCache, financialsCache)
	if err != nil {
		logger.Fatal("failed to create cache janitor", zap.Error(err))
	}
	janitor.Start()
	defer janitor.Stop()

	fetcher := marketdata.NewFetcher(yahoo, marketCache, financialsCache, logger)
	orchestrator := analyzer.New(fetcher, insight, cfg.ScoreWeights, logger)
	comparer := compare.NewEngine(fetcher, logger)

	srv := server.NewServer(cfg.ListenAddr, version, orchestrator, fetcher, comparer, insight, logger)

	if len(cfg.TLSDomains) > 0 {
		err = srv.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
	} else {
		err = srv.Start(ctx)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
