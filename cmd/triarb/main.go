// Package main is the entry point for the triangular arbitrage scanner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage"
	"github.com/fd1az/triangular-arbitrage/business/exchange"
	"github.com/fd1az/triangular-arbitrage/business/trading"
	"github.com/fd1az/triangular-arbitrage/internal/apm"
	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/health"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/metrics"
	"github.com/fd1az/triangular-arbitrage/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	execute := flag.Bool("execute", false, "Place orders for profitable plans (overrides execution.enabled)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("triarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *execute); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, execute bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if execute {
		cfg.Execution.Enabled = true
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	out := io.Writer(os.Stderr)
	if cfg.App.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.App.LogFile,
			MaxSize:    cfg.App.LogMaxSizeMB,
			MaxBackups: cfg.App.LogMaxBackups,
			MaxAge:     cfg.App.LogMaxAgeDays,
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stderr, rotator)
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceIDFromContext)
	log.Info(ctx, "starting triangular arbitrage scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"exchange", cfg.Exchange.ID,
		"execution", cfg.Execution.Enabled,
	)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer shutdownTelemetry()
	}

	healthServer := health.NewServer(cfg.Health.Port, version)
	healthServer.OnError(func(err error) {
		log.Error(ctx, "health server failed", "error", err)
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := healthServer.Stop(stopCtx); err != nil {
			log.Warn(stopCtx, "health server shutdown", "error", err)
		}
	}()

	mono := monolith.New(cfg, log, healthServer)

	// Define modules in dependency order
	modules := []monolith.Module{
		&exchange.Module{},  // venue, ticker stream, reference prices
		&trading.Module{},   // depends on exchange for orders and balances
		&arbitrage.Module{}, // depends on exchange and, when executing, trading
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	startErr := mono.StartModules(ctx, modules...)
	if startErr == nil {
		log.Info(ctx, "all modules started")
		<-ctx.Done()
		log.Info(context.Background(), "shutting down")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := mono.Close(closeCtx)

	if startErr != nil {
		return errors.Join(fmt.Errorf("failed to start modules: %w", startErr), closeErr)
	}
	return closeErr
}

// startTelemetry installs the trace and meter providers and serves /metrics.
func startTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	if cfg.Telemetry.ServiceName != "" {
		os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	}

	endpoint := cfg.Telemetry.OTLPEndpoint
	if apm.Provider(cfg.Telemetry.Exporter) == apm.ZipkinProvider {
		endpoint = cfg.Telemetry.ZipkinEndpoint
	}
	traceProvider, err := apm.NewTraceProvider(ctx, apm.TracerOptions{
		Provider:    apm.Provider(cfg.Telemetry.Exporter),
		Endpoint:    endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.Exporter, "endpoint", endpoint)

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to start metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer := metrics.ServePrometheusMetrics(
		metrics.WithPort(strconv.Itoa(port)),
		metrics.WithErrorHandler(func(err error) {
			log.Error(ctx, "prometheus server failed", "error", err)
		}),
	)
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := promServer.Shutdown(ctx); err != nil {
			log.Warn(ctx, "prometheus server shutdown", "error", err)
		}
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Warn(ctx, "meter provider shutdown", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(ctx, "trace provider shutdown", "error", err)
		}
	}, nil
}
