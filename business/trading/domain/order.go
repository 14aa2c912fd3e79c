// Package domain contains the order types of the trading context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// OrderType is the order kind sent to the venue. Only limit orders are placed.
type OrderType string

const OrderTypeLimit OrderType = "limit"

// OrderStatus is the venue-neutral order state.
type OrderStatus string

const (
	StatusOpen     OrderStatus = "open"
	StatusClosed   OrderStatus = "closed"
	StatusCanceled OrderStatus = "canceled"
	StatusRejected OrderStatus = "rejected"
	StatusExpired  OrderStatus = "expired"
	StatusUnknown  OrderStatus = "unknown"
)

// Terminal reports whether the order can no longer change.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusClosed, StatusCanceled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// OrderRequest asks for a limit order of Amount base units at Price.
type OrderRequest struct {
	ClientID string
	Pair     asset.Pair
	Side     arbdomain.Side
	Type     OrderType
	Amount   decimal.Decimal
	Price    decimal.Decimal
}

// WithAmount returns a copy of r with a different amount.
func (r OrderRequest) WithAmount(amount decimal.Decimal) OrderRequest {
	r.Amount = amount
	return r
}

// RequiredFunds is what the venue locks for the order: the quote cost for a
// buy, the base amount for a sell.
func (r OrderRequest) RequiredFunds() (asset.Symbol, decimal.Decimal) {
	if r.Side == arbdomain.SideBuy {
		return r.Pair.Quote, r.Amount.Mul(r.Price)
	}
	return r.Pair.Base, r.Amount
}

// Order is the venue's view of a submitted order.
type Order struct {
	ID        string
	ClientID  string
	Pair      asset.Pair
	Side      arbdomain.Side
	Type      OrderType
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Filled    decimal.Decimal
	Cost      decimal.Decimal
	Status    OrderStatus
	Timestamp time.Time
}

// Query identifies the order for later lookups.
func (o *Order) Query() OrderQuery {
	return OrderQuery{ID: o.ID, Pair: o.Pair, Side: o.Side}
}

// OrderQuery locates an order. Some venues (kucoin) need the side as well as the id.
type OrderQuery struct {
	ID   string
	Pair asset.Pair
	Side arbdomain.Side
}
