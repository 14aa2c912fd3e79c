package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// DefaultMakerFee applies when a market publishes no positive maker fee.
var DefaultMakerFee = decimal.RequireFromString("0.0002")

// minTradeHeadroom is applied on top of the exchange minimum.
var minTradeHeadroom = decimal.RequireFromString("1.1")

// Precision is the number of decimal places accepted for order amounts and prices.
type Precision struct {
	Amount int32
	Price  int32
}

// Limits are the exchange's minimum order constraints.
type Limits struct {
	MinAmount decimal.Decimal
	MinPrice  decimal.Decimal
	MinCost   decimal.Decimal
}

// MarketInfo is per-pair trading metadata.
type MarketInfo struct {
	Pair      asset.Pair
	Precision *Precision
	Limits    Limits
	MakerFee  decimal.NullDecimal
	Low       decimal.Decimal
}

// Markets indexes MarketInfo by pair.
type Markets map[asset.Pair]MarketInfo

// PrecisionFor returns the places used to truncate the input of an edge on this
// market: price precision for buys, amount precision for sells.
func (m MarketInfo) PrecisionFor(side Side) (int32, bool) {
	if m.Precision == nil {
		return 0, false
	}
	if side == SideBuy {
		return m.Precision.Price, true
	}
	return m.Precision.Amount, true
}

// FeeOr returns the published maker fee, or def when the market has none or
// publishes zero or less.
func (m MarketInfo) FeeOr(def decimal.Decimal) decimal.Decimal {
	if m.MakerFee.Valid && m.MakerFee.Decimal.IsPositive() {
		return m.MakerFee.Decimal
	}
	return def
}

// MinCost is the smallest order value in quote units: limits.cost.min, else
// limits.price.min, else limits.amount.min × 24h low rounded to amount precision.
func (m MarketInfo) MinCost() decimal.Decimal {
	if m.Limits.MinCost.IsPositive() {
		return m.Limits.MinCost
	}
	if m.Limits.MinPrice.IsPositive() {
		return m.Limits.MinPrice
	}
	places := int32(8)
	if m.Precision != nil {
		places = m.Precision.Amount
	}
	return m.Limits.MinAmount.Mul(m.Low).Round(places)
}

// MinTradeAmount expresses MinCost in the source asset of edge and adds 10% headroom.
// Zero means the market sets no minimum.
func MinTradeAmount(edge *Edge, m MarketInfo) decimal.Decimal {
	cost := m.MinCost()
	if !cost.IsPositive() {
		return decimal.Zero
	}
	if edge.Side == SideSell {
		cost = Convert(SideBuy, edge.Price, cost)
	}
	return cost.Mul(minTradeHeadroom)
}
