// Package app contains the order driver and executor of the trading context.
package app

import (
	"context"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/trading/domain"
)

// Exchange is the order-side surface of a venue.
type Exchange interface {
	FetchBalance(ctx context.Context) (*arbdomain.BalanceSnapshot, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	FetchOrder(ctx context.Context, q domain.OrderQuery) (*domain.Order, error)
	FetchOrderStatus(ctx context.Context, q domain.OrderQuery) (domain.OrderStatus, error)
}
