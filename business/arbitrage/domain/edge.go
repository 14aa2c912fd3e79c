package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Edge is one conversion step of a cycle.
type Edge struct {
	Pair  asset.Pair
	Side  Side
	Price decimal.Decimal
	// Quantity is the top-of-book size in base units. Invalid until refilled.
	Quantity decimal.NullDecimal
	From     asset.Symbol
	To       asset.Symbol
	// Notional is the reference-fiat value of Quantity at Price.
	Notional decimal.Decimal
}

// NewEdge derives From/To from the side: a buy goes quote to base, a sell base to quote.
func NewEdge(pair asset.Pair, side Side, price decimal.Decimal) (*Edge, error) {
	if !side.Valid() {
		return nil, apperror.New(apperror.CodeInvalidEdge, apperror.WithContextf("%s: side %q", pair, side))
	}
	if !price.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidEdge, apperror.WithContextf("%s: price %s", pair, price))
	}

	e := &Edge{Pair: pair, Side: side, Price: price}
	if side == SideBuy {
		e.From, e.To = pair.Quote, pair.Base
	} else {
		e.From, e.To = pair.Base, pair.Quote
	}
	return e, nil
}

// HasQuantity reports whether the top-of-book size is known.
func (e *Edge) HasQuantity() bool {
	return e.Quantity.Valid
}

// SetQuantity records the top-of-book size.
func (e *Edge) SetQuantity(q decimal.Decimal) {
	e.Quantity = decimal.NullDecimal{Decimal: q, Valid: true}
}

// QuoteAsset is the asset in which quantity × price is denominated.
func (e *Edge) QuoteAsset() asset.Symbol {
	return e.Pair.Quote
}

// SourceAmount is what an order of qty base units spends in From.
func (e *Edge) SourceAmount(qty decimal.Decimal) decimal.Decimal {
	if e.Side == SideBuy {
		return qty.Mul(e.Price)
	}
	return qty
}

// OrderQuantity converts an amount of From into base units for the order.
func (e *Edge) OrderQuantity(src decimal.Decimal) decimal.Decimal {
	if e.Side == SideBuy {
		return Convert(SideBuy, e.Price, src)
	}
	return src
}

// Clone returns an independent copy.
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}
