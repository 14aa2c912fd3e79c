// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/fd1az/triangular-arbitrage/business/exchange/app"
	"github.com/fd1az/triangular-arbitrage/business/exchange/infra/binance"
	"github.com/fd1az/triangular-arbitrage/business/exchange/infra/coingecko"
	"github.com/fd1az/triangular-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Venue           = di.NewToken[app.Venue]("exchange.Venue")
	TickerStream    = di.NewToken[app.TickerStream]("exchange.TickerStream")
	ReferencePricer = di.NewToken[app.ReferencePricer]("exchange.ReferencePricer")
)

// Private dependency tokens - internal to exchange module
var (
	BinanceClient     = di.NewToken[*binance.Client]("exchange:binanceClient")
	CoingeckoProvider = di.NewToken[*coingecko.Provider]("exchange:coingeckoProvider")
)

func GetVenue(c di.ServiceRegistry) app.Venue {
	return di.GetToken(c, Venue)
}

func GetTickerStream(c di.ServiceRegistry) app.TickerStream {
	return di.GetToken(c, TickerStream)
}

func GetReferencePricer(c di.ServiceRegistry) app.ReferencePricer {
	return di.GetToken(c, ReferencePricer)
}

func GetBinanceClient(c di.ServiceRegistry) *binance.Client {
	return di.GetToken(c, BinanceClient)
}

func GetCoingeckoProvider(c di.ServiceRegistry) *coingecko.Provider {
	return di.GetToken(c, CoingeckoProvider)
}
