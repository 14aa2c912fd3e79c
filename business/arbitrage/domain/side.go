// Package domain contains the core types of triangular arbitrage: edges, cycles,
// ranks, balances, market metadata and simulated trades.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Side is the direction of an order on a BASE/QUOTE pair.
type Side string

const (
	// SideBuy spends quote and receives base.
	SideBuy Side = "buy"
	// SideSell spends base and receives quote.
	SideSell Side = "sell"
)

// divScale is the number of fractional digits kept when dividing amounts by prices.
const divScale int32 = 24

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("side %q", s))
}

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

func (s Side) String() string {
	return string(s)
}

// Convert moves amount across an edge: a sell multiplies by price, a buy divides.
// A zero price on a buy yields zero.
func Convert(side Side, price, amount decimal.Decimal) decimal.Decimal {
	if side == SideSell {
		return amount.Mul(price)
	}
	if price.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(price, divScale)
}

// Invert is the reverse of Convert: a sell divides by price, a buy multiplies.
func Invert(side Side, price, amount decimal.Decimal) decimal.Decimal {
	if side == SideBuy {
		return amount.Mul(price)
	}
	if price.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(price, divScale)
}
