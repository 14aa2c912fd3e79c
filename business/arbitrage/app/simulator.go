package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Simulator replays a sized cycle against market precision and maker fees.
type Simulator struct {
	defaultFee decimal.Decimal
	now        func() time.Time
}

// NewSimulator uses defaultFee for markets that publish no maker fee.
func NewSimulator(defaultFee decimal.Decimal) *Simulator {
	if !defaultFee.IsPositive() {
		defaultFee = domain.DefaultMakerFee
	}
	return &Simulator{defaultFee: defaultFee, now: time.Now}
}

// Simulate walks amount (edge a's order quantity) through the cycle. An
// unprofitable result is returned with Profitable false and no error; missing
// precision and amounts truncated to zero are errors.
func (s *Simulator) Simulate(cycle *domain.Cycle, markets domain.Markets, amount decimal.Decimal) (*domain.TradeTriangle, error) {
	tri := &domain.TradeTriangle{
		CycleID: cycle.ID,
		Coin:    cycle.BaseAsset(),
	}

	input := cycle.A.SourceAmount(amount)
	legs := tri.Legs()
	for i, e := range cycle.Edges() {
		leg, err := s.simulateEdge(e, markets, input)
		if err != nil {
			return nil, err
		}
		*legs[i] = leg
		input = leg.Output
	}

	tri.Before = tri.A.Amount
	tri.After = tri.C.Output.Round(8)
	tri.Profit = tri.After.Sub(tri.Before)
	if !tri.Profit.IsPositive() {
		return tri, nil
	}

	tri.Profitable = true
	tri.Rate = tri.Profit.DivRound(tri.Before, 24).Mul(decimal.NewFromInt(100)).StringFixed(3) + "%"
	tri.Timestamp = s.now()
	return tri, nil
}

func (s *Simulator) simulateEdge(e *domain.Edge, markets domain.Markets, input decimal.Decimal) (domain.TradeEdge, error) {
	m, ok := markets[e.Pair]
	if !ok {
		return domain.TradeEdge{}, apperror.New(apperror.CodeMissingPrecision, apperror.WithContextf("%s: no market", e.Pair))
	}
	places, ok := m.PrecisionFor(e.Side)
	if !ok {
		return domain.TradeEdge{}, apperror.New(apperror.CodeMissingPrecision, apperror.WithContext(e.Pair.String()))
	}

	amount := input.Truncate(places)
	if !amount.IsPositive() {
		return domain.TradeEdge{}, apperror.New(apperror.CodeZeroTradeAmount,
			apperror.WithContextf("%s: %s truncated to %d places", e.Pair, input, places))
	}

	output := domain.Convert(e.Side, e.Price, amount)
	return domain.TradeEdge{
		Pair:     e.Pair,
		Side:     e.Side,
		Price:    e.Price,
		Amount:   amount,
		Quantity: e.OrderQuantity(amount).Truncate(m.Precision.Amount),
		Output:   output,
		Fee:      output.Mul(m.FeeOr(s.defaultFee)).Round(8),
		FeeAsset: e.To,
		From:     e.From,
		To:       e.To,
	}, nil
}
