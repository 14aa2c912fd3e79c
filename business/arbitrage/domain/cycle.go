package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

var hundred = decimal.NewFromInt(100)

// Cycle is a closed chain of three edges A→B→C→A.
type Cycle struct {
	ID          string
	A, B, C     *Edge
	Rate        decimal.Decimal
	MinNotional decimal.Decimal
	Timestamp   time.Time
}

// NewCycle validates that the edges chain head to tail and computes the rate.
func NewCycle(a, b, c *Edge, ts time.Time) (*Cycle, error) {
	if a == nil || b == nil || c == nil {
		return nil, apperror.New(apperror.CodeInvalidCycle, apperror.WithContext("nil edge"))
	}
	if a.To != b.From || b.To != c.From || c.To != a.From {
		return nil, apperror.New(apperror.CodeInvalidCycle,
			apperror.WithContextf("%s>%s, %s>%s, %s>%s", a.From, a.To, b.From, b.To, c.From, c.To))
	}
	if a.Pair == b.Pair || b.Pair == c.Pair || a.Pair == c.Pair {
		return nil, apperror.New(apperror.CodeInvalidCycle, apperror.WithContext("pairs must be distinct"))
	}

	return &Cycle{
		ID:        CycleID(a, b, c),
		A:         a,
		B:         b,
		C:         c,
		Rate:      CalculateRate(a, b, c),
		Timestamp: ts,
	}, nil
}

// CycleID joins the pairs in traversal order; direction and start asset follow from it.
func CycleID(a, b, c *Edge) string {
	return a.Pair.String() + ">" + b.Pair.String() + ">" + c.Pair.String()
}

// CalculateRate converts one unit of A's source asset through the three edges and
// returns the gain in percent, rounded to 8 places.
func CalculateRate(a, b, c *Edge) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for _, e := range [3]*Edge{a, b, c} {
		result = Convert(e.Side, e.Price, result)
	}
	return result.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(8)
}

// Edges returns A, B, C.
func (c *Cycle) Edges() [3]*Edge {
	return [3]*Edge{c.A, c.B, c.C}
}

// HasQuantities reports whether all three top-of-book sizes are known.
func (c *Cycle) HasQuantities() bool {
	return c.A.HasQuantity() && c.B.HasQuantity() && c.C.HasQuantity()
}

// BaseAsset is the asset the cycle starts and ends in.
func (c *Cycle) BaseAsset() asset.Symbol {
	return c.A.From
}

// Path renders the asset route, e.g. "BTC>ETH>USDT>BTC".
func (c *Cycle) Path() string {
	return strings.Join([]string{
		c.A.From.String(), c.B.From.String(), c.C.From.String(), c.A.From.String(),
	}, ">")
}

// Clone deep-copies the cycle so callers can mutate quantities independently.
func (c *Cycle) Clone() *Cycle {
	cp := *c
	cp.A, cp.B, cp.C = c.A.Clone(), c.B.Clone(), c.C.Clone()
	return &cp
}
