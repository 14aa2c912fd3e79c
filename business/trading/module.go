// Package trading implements the trading bounded context: balance-aware order
// submission and sequential execution of planned cycles.
package trading

import (
	"context"

	exchangeDI "github.com/fd1az/triangular-arbitrage/business/exchange/di"
	"github.com/fd1az/triangular-arbitrage/business/trading/app"
	tradingDI "github.com/fd1az/triangular-arbitrage/business/trading/di"
	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/di"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/monolith"
)

// Module implements the trading bounded context.
type Module struct{}

// RegisterServices registers the order driver and the executor.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradingDI.Driver, func(sr di.ServiceRegistry) *app.Driver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		venue := exchangeDI.GetVenue(sr)

		dc := app.DefaultDriverConfig(venue.ID())
		if cfg.Execution.MaxAttempts > 0 {
			dc.MaxAttempts = cfg.Execution.MaxAttempts
		}
		if cfg.Execution.RetryDelay > 0 {
			dc.RetryDelay = cfg.Execution.RetryDelay
		}
		dc.Haircut = cfg.Profile(venue.ID().String()).AmountHaircutDecimal()

		driver, err := app.NewDriver(dc, venue, log)
		if err != nil {
			panic("failed to create order driver: " + err.Error())
		}
		return driver
	})

	di.RegisterToken(c, tradingDI.Executor, func(sr di.ServiceRegistry) *app.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		executor, err := app.NewExecutor(app.ExecutorConfig{
			Exchange:  exchangeDI.GetVenue(sr).ID(),
			QueueSize: cfg.Execution.QueueSize,
		}, tradingDI.GetDriver(sr), log)
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return executor
	})

	return nil
}

// Startup starts the executor when execution is enabled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if !cfg.Execution.Enabled {
		log.Info(ctx, "trading module started", "execution", "disabled")
		return nil
	}

	executor := tradingDI.GetExecutor(mono.Services())
	executor.Start(ctx)
	mono.OnShutdown(func(context.Context) error {
		executor.Stop()
		return nil
	})

	log.Info(ctx, "trading module started",
		"execution", "enabled",
		"exchange", exchangeDI.GetVenue(mono.Services()).ID().String(),
		"queue_size", cfg.Execution.QueueSize,
	)
	return nil
}
