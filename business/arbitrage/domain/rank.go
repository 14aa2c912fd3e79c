package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Rank is a cycle that passed every ranking filter.
//
// Ranks keep the order of their input cycles. Callers that treat the first
// rank as the best must pass cycles sorted by rate, descending.
type Rank struct {
	Cycle       *Cycle
	StepA       asset.Symbol
	StepB       asset.Symbol
	StepC       asset.Symbol
	Rate        decimal.Decimal
	Fees        []decimal.Decimal
	ProfitRates []decimal.Decimal
	Timestamp   time.Time
}

// BestProfitRate is the highest fee-adjusted profit rate across tiers.
func (r Rank) BestProfitRate() decimal.Decimal {
	return maxDecimal(r.ProfitRates)
}

func maxDecimal(ds []decimal.Decimal) decimal.Decimal {
	if len(ds) == 0 {
		return decimal.Zero
	}
	return decimal.Max(ds[0], ds[1:]...)
}

// ProfitRates applies each fee tier to rate and returns the fees and net rates.
func ProfitRates(rate decimal.Decimal, tiers []decimal.Decimal) (fees, profits []decimal.Decimal) {
	fees = make([]decimal.Decimal, len(tiers))
	profits = make([]decimal.Decimal, len(tiers))
	for i, tier := range tiers {
		fees[i] = rate.Mul(tier)
		profits[i] = rate.Sub(fees[i])
	}
	return fees, profits
}

// BestOf returns the maximum of profits, zero when empty.
func BestOf(profits []decimal.Decimal) decimal.Decimal {
	return maxDecimal(profits)
}
