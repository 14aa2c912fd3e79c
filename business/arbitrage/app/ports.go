// Package app contains the ranking, sizing, simulation and scanning services of the arbitrage context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// BalanceSource returns the account balances.
type BalanceSource interface {
	FetchBalance(ctx context.Context) (*domain.BalanceSnapshot, error)
}

// OrderBookSource returns the top levels of a pair.
type OrderBookSource interface {
	FetchOrderBook(ctx context.Context, pair asset.Pair, depth int) (*domain.OrderBook, error)
}

// MarketSource returns per-pair precision, limits and fees.
type MarketSource interface {
	Markets(ctx context.Context) (domain.Markets, error)
}

// TickerSource returns the latest best bid/ask of every pair.
type TickerSource interface {
	Tickers(ctx context.Context) ([]domain.Ticker, error)
}

// CandidateSource produces raw cycles with prices and sides set.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]*domain.Cycle, error)
}

// ReferencePricer values an asset in the reference fiat unit. pair is "ASSET/USD".
type ReferencePricer interface {
	ReferencePrice(ctx context.Context, pair string) (decimal.Decimal, error)
}

// RankSink receives the ranks of every scan.
type RankSink interface {
	UpdateRanks(ctx context.Context, exchange domain.ExchangeID, ranks []domain.Rank)
}

// OrderSink receives the plan of a profitable cycle. It must not block the scan.
type OrderSink interface {
	PlaceOrder(ctx context.Context, exchange domain.ExchangeID, cycle *domain.Cycle, plan *domain.TradeTriangle)
}

// Trigger fires a scan for every value it sends.
type Trigger interface {
	Triggers(ctx context.Context) (<-chan struct{}, error)
}
