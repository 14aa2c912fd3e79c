package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Sizer picks the largest trade the whole cycle can absorb.
type Sizer struct{}

// Size returns the order quantity for edge a: the smallest of what each edge's
// top of book allows and the free balance, all in the base asset, divided by
// a's price when a is a buy. minTrade is in the base asset; zero disables it.
func (Sizer) Size(cycle *domain.Cycle, free, minTrade decimal.Decimal) (decimal.Decimal, error) {
	if !cycle.HasQuantities() {
		return decimal.Zero, apperror.New(apperror.CodeMissingQuantity, apperror.WithContext(cycle.ID))
	}
	a, b, c := cycle.A, cycle.B, cycle.C

	aAmount := a.SourceAmount(a.Quantity.Decimal)
	if a.Side == domain.SideBuy {
		aAmount = aAmount.Round(8)
	}
	bAmount := domain.Invert(a.Side, a.Price, b.SourceAmount(b.Quantity.Decimal))
	cAmount := domain.Convert(c.Side, c.Price, c.SourceAmount(c.Quantity.Decimal))

	least := decimal.Min(aAmount, bAmount, cAmount, free)
	if minTrade.IsPositive() && least.LessThan(minTrade) {
		return decimal.Zero, apperror.New(apperror.CodeBelowMinTradeAmount,
			apperror.WithContextf("%s: %s %s < %s", cycle.ID, least, a.From, minTrade))
	}

	return a.OrderQuantity(least), nil
}
