package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// TradeEdge is one simulated or executed leg.
type TradeEdge struct {
	Pair  asset.Pair
	Side  Side
	Price decimal.Decimal
	// Amount is the truncated input in From units.
	Amount decimal.Decimal
	// Quantity is the order size in base units.
	Quantity decimal.Decimal
	Output   decimal.Decimal
	Fee      decimal.Decimal
	FeeAsset asset.Symbol
	From     asset.Symbol
	To       asset.Symbol
	Elapsed  time.Duration
}

// TradeTriangle records a full simulated cycle.
type TradeTriangle struct {
	CycleID    string
	Exchange   ExchangeID
	Coin       asset.Symbol
	A, B, C    TradeEdge
	Before     decimal.Decimal
	After      decimal.Decimal
	Profit     decimal.Decimal
	Rate       string
	Profitable bool
	Timestamp  time.Time
}

// Legs returns pointers to A, B, C in execution order.
func (t *TradeTriangle) Legs() [3]*TradeEdge {
	return [3]*TradeEdge{&t.A, &t.B, &t.C}
}
