// Package exchange implements the exchange bounded context: venue connectivity,
// the ticker stream and fiat reference prices.
package exchange

import (
	"context"
	"fmt"
	"time"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/exchange/app"
	exchangeDI "github.com/fd1az/triangular-arbitrage/business/exchange/di"
	"github.com/fd1az/triangular-arbitrage/business/exchange/infra/binance"
	"github.com/fd1az/triangular-arbitrage/business/exchange/infra/coingecko"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/di"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/monolith"
)

const startupTimeout = 15 * time.Second

// Module implements the exchange bounded context.
type Module struct{}

// RegisterServices registers the venue, ticker stream and reference pricer.
// The configured exchange must have a connector.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := c.Get("config").(*config.Config)
	id, err := arbdomain.ParseExchangeID(cfg.Exchange.ID)
	if err != nil {
		return err
	}

	di.RegisterToken(c, exchangeDI.BinanceClient, func(sr di.ServiceRegistry) *binance.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		symbols := sr.Get("symbols").(*asset.Registry)

		client, err := binance.NewClient(binance.ClientConfig{
			APIKey:          cfg.Exchange.APIKey,
			APISecret:       cfg.Exchange.APISecret,
			BaseURL:         cfg.Exchange.RESTURL,
			Timeout:         cfg.Exchange.Timeout,
			WeightPerMinute: cfg.Exchange.WeightPerMinute,
			QuoteAssets:     cfg.Exchange.QuoteAssets,
		}, symbols, log)
		if err != nil {
			panic("failed to create binance client: " + err.Error())
		}
		return client
	})

	connectors := app.Connectors{
		arbdomain.Binance: func() (app.Venue, error) {
			return exchangeDI.GetBinanceClient(c), nil
		},
	}
	if _, ok := connectors[id]; !ok {
		_, err := connectors.Open(id)
		return err
	}

	di.RegisterToken(c, exchangeDI.Venue, func(sr di.ServiceRegistry) app.Venue {
		venue, err := connectors.Open(id)
		if err != nil {
			panic("failed to open venue: " + err.Error())
		}
		return venue
	})

	di.RegisterToken(c, exchangeDI.TickerStream, func(sr di.ServiceRegistry) app.TickerStream {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		symbols := sr.Get("symbols").(*asset.Registry)

		stream, err := binance.NewStream(binance.StreamConfig{
			BaseURL:    cfg.Exchange.WebSocketURL,
			StaleAfter: 3 * cfg.Arbitrage.Interval,
		}, symbols, exchangeDI.GetVenue(sr), log)
		if err != nil {
			panic("failed to create ticker stream: " + err.Error())
		}
		return stream
	})

	di.RegisterToken(c, exchangeDI.CoingeckoProvider, func(sr di.ServiceRegistry) *coingecko.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := coingecko.NewProvider(coingecko.ProviderConfig{
			BaseURL:  cfg.Reference.BaseURL,
			APIKey:   cfg.Reference.APIKey,
			Currency: cfg.Reference.Currency,
			CacheTTL: cfg.Reference.CacheTTL,
			Timeout:  cfg.Reference.Timeout,
		}, log)
		if err != nil {
			panic("failed to create coingecko provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, exchangeDI.ReferencePricer, func(sr di.ServiceRegistry) app.ReferencePricer {
		return exchangeDI.GetCoingeckoProvider(sr)
	})

	return nil
}

// Startup loads market metadata, registers the exchange health checks and,
// in stream mode, connects the ticker stream in the background.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	sr := mono.Services()

	venue := exchangeDI.GetVenue(sr)
	loadCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	markets, err := venue.Markets(loadCtx)
	cancel()
	if err != nil {
		// The first scan retries the load.
		log.Warn(ctx, "market metadata unavailable at startup", "exchange", venue.ID().String(), "error", err)
	} else {
		log.Info(ctx, "market metadata loaded", "exchange", venue.ID().String(), "markets", len(markets), "symbols", mono.Symbols().Count())
	}

	mono.Health().RegisterCheck("exchange", func(ctx context.Context) (bool, string) {
		if err := venue.Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, venue.ID().String() + " reachable"
	})

	pricer := exchangeDI.GetCoingeckoProvider(sr)
	if client, ok := venue.(*binance.Client); ok {
		mono.OnShutdown(func(context.Context) error {
			client.Close()
			return nil
		})
	}
	mono.OnShutdown(func(context.Context) error {
		pricer.Close()
		return nil
	})

	if cfg.Arbitrage.Trigger != "stream" {
		log.Info(ctx, "exchange module started", "exchange", venue.ID().String(), "tickers", "rest")
		return nil
	}

	stream := exchangeDI.GetTickerStream(sr)
	go func() {
		if err := stream.Connect(ctx); err != nil {
			log.Error(ctx, "ticker stream connection failed", "error", err)
			return
		}
		log.Info(ctx, "ticker stream connected")
	}()
	mono.Health().RegisterCheck("ticker_stream", streamCheck(stream, 3*cfg.Arbitrage.Interval+time.Minute, time.Now))
	mono.OnShutdown(func(context.Context) error {
		return stream.Close()
	})

	log.Info(ctx, "exchange module started", "exchange", venue.ID().String(), "tickers", "stream")
	return nil
}

func streamCheck(stream app.TickerStream, maxAge time.Duration, now func() time.Time) func(context.Context) (bool, string) {
	started := now()
	return func(context.Context) (bool, string) {
		last := stream.LastUpdate()
		if last.IsZero() {
			if now().Sub(started) > maxAge {
				return false, "no ticker batch received"
			}
			return true, "connecting"
		}
		if age := now().Sub(last); age > maxAge {
			return false, fmt.Sprintf("last batch %s ago", age.Truncate(time.Second))
		}
		return true, "streaming"
	}
}
