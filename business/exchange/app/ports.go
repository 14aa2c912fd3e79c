// Package app declares what the rest of the system needs from a venue.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/trading/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Venue is a connected exchange account.
type Venue interface {
	ID() arbdomain.ExchangeID
	Ping(ctx context.Context) error

	FetchBalance(ctx context.Context) (*arbdomain.BalanceSnapshot, error)
	FetchOrderBook(ctx context.Context, pair asset.Pair, depth int) (*arbdomain.OrderBook, error)
	Markets(ctx context.Context) (arbdomain.Markets, error)
	Tickers(ctx context.Context) ([]arbdomain.Ticker, error)

	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	FetchOrder(ctx context.Context, q domain.OrderQuery) (*domain.Order, error)
	FetchOrderStatus(ctx context.Context, q domain.OrderQuery) (domain.OrderStatus, error)
}

// TickerStream pushes best bid/ask updates and fires a trigger per batch.
type TickerStream interface {
	Connect(ctx context.Context) error
	Close() error
	Tickers(ctx context.Context) ([]arbdomain.Ticker, error)
	Triggers(ctx context.Context) (<-chan struct{}, error)
	LastUpdate() time.Time
}

// ReferencePricer values an asset in fiat. pair is "ASSET/USD".
type ReferencePricer interface {
	ReferencePrice(ctx context.Context, pair string) (decimal.Decimal, error)
}
