// Package arbitrage implements the arbitrage bounded context: candidate
// discovery, ranking, sizing and simulation of triangular cycles.
package arbitrage

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/triangular-arbitrage/business/arbitrage/di"
	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/arbitrage/infra"
	exchangeDI "github.com/fd1az/triangular-arbitrage/business/exchange/di"
	tradingDI "github.com/fd1az/triangular-arbitrage/business/trading/di"
	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/di"
	"github.com/fd1az/triangular-arbitrage/internal/health"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/monolith"
)

const (
	triggerStream = "stream"
	// A scanner that has not completed a scan within this window after
	// startup is reported unhealthy.
	startupGrace = 2 * time.Minute
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers the ranking pipeline and the scanner.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := c.Get("config").(*config.Config)
	log := c.Get("logger").(logger.LoggerInterface)
	profiles := profilesFromConfig(context.Background(), cfg, log)

	di.RegisterToken(c, arbitrageDI.Ranker, func(sr di.ServiceRegistry) *app.Ranker {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		ranker, err := app.NewRanker(app.RankerConfig{
			MinRateProfit: cfg.Arbitrage.MinRateProfitDecimal(),
			MinNotional:   cfg.Arbitrage.MinProfitUSDDecimal(),
			Profiles:      profiles,
			Currency:      strings.ToUpper(cfg.Reference.Currency),
		}, app.NewRefiller(exchangeDI.GetVenue(sr)), exchangeDI.GetReferencePricer(sr), log)
		if err != nil {
			panic("failed to create ranker: " + err.Error())
		}
		return ranker
	})

	di.RegisterToken(c, arbitrageDI.Planner, func(sr di.ServiceRegistry) *app.Planner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		venue := exchangeDI.GetVenue(sr)

		planner, err := app.NewPlanner(venue.ID(), venue, app.NewSimulator(cfg.Arbitrage.DefaultFeeRateDecimal()), log)
		if err != nil {
			panic("failed to create planner: " + err.Error())
		}
		return planner
	})

	di.RegisterToken(c, arbitrageDI.Finder, func(sr di.ServiceRegistry) *app.Finder {
		cfg := sr.Get("config").(*config.Config)

		var tickers app.TickerSource = exchangeDI.GetVenue(sr)
		if cfg.Arbitrage.Trigger == triggerStream {
			tickers = exchangeDI.GetTickerStream(sr)
		}
		return app.NewFinder(tickers, cfg.Arbitrage.MaxCandidates)
	})

	di.RegisterToken(c, arbitrageDI.RankSink, func(sr di.ServiceRegistry) app.RankSink {
		cfg := sr.Get("config").(*config.Config)
		return infra.NewConsoleSink(os.Stdout, cfg.Arbitrage.ReportTop)
	})

	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		venue := exchangeDI.GetVenue(sr)

		var trigger app.Trigger = app.IntervalTrigger{Interval: cfg.Arbitrage.Interval}
		if cfg.Arbitrage.Trigger == triggerStream {
			trigger = exchangeDI.GetTickerStream(sr)
		}

		var orders app.OrderSink
		if cfg.Execution.Enabled {
			orders = tradingDI.GetExecutor(sr)
		}

		scanner, err := app.NewScanner(app.ScannerConfig{
			Exchange:     venue.ID(),
			PublishRanks: cfg.Arbitrage.PublishRanks,
			AllowOverlap: cfg.Arbitrage.AllowOverlap,
			ReportTop:    cfg.Arbitrage.ReportTop,
		}, app.ScannerDeps{
			Balances:   venue,
			Candidates: arbitrageDI.GetFinder(sr),
			Ranker:     arbitrageDI.GetRanker(sr),
			Planner:    arbitrageDI.GetPlanner(sr),
			Trigger:    trigger,
			Ranks:      arbitrageDI.GetRankSink(sr),
			Orders:     orders,
		}, log)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return scanner
	})

	return nil
}

// Startup starts the scan loop and exposes its heartbeat as a health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	scanner := arbitrageDI.GetScanner(mono.Services())
	if err := scanner.Start(ctx); err != nil {
		return err
	}
	mono.OnShutdown(func(context.Context) error {
		scanner.Stop()
		return nil
	})

	maxAge := 3*cfg.Arbitrage.Interval + time.Minute
	mono.Health().RegisterCheck("scanner", health.StalenessCheck(scanner.Heartbeat(), maxAge, startupGrace, time.Now))

	log.Info(ctx, "arbitrage module started",
		"trigger", cfg.Arbitrage.Trigger,
		"interval", cfg.Arbitrage.Interval.String(),
		"min_rate_profit", cfg.Arbitrage.MinRateProfit,
		"execution", cfg.Execution.Enabled,
	)
	return nil
}

// profilesFromConfig builds the ranking profiles. Entries for unknown
// exchanges are logged and skipped.
func profilesFromConfig(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) domain.Profiles {
	profiles := make(domain.Profiles, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		id, err := domain.ParseExchangeID(name)
		if err != nil {
			log.Warn(ctx, "ignoring profile for unknown exchange", "exchange", name)
			continue
		}
		profiles[id] = domain.NewProfile(p.FeeTiersDecimal(), p.Blacklist, p.AmountHaircutDecimal())
	}
	return profiles
}
