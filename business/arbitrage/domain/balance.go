package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Balance is the holding of one asset.
type Balance struct {
	Free  decimal.Decimal
	Total decimal.Decimal
}

// BalanceSnapshot is an immutable view of account balances taken once per scan.
type BalanceSnapshot struct {
	balances  map[asset.Symbol]Balance
	fetchedAt time.Time
}

// NewBalanceSnapshot copies balances so later changes to the map are not observed.
func NewBalanceSnapshot(balances map[asset.Symbol]Balance, fetchedAt time.Time) *BalanceSnapshot {
	cp := make(map[asset.Symbol]Balance, len(balances))
	for k, v := range balances {
		cp[k] = v
	}
	return &BalanceSnapshot{balances: cp, fetchedAt: fetchedAt}
}

// Get returns the balance of s and whether the account reports it.
func (b *BalanceSnapshot) Get(s asset.Symbol) (Balance, bool) {
	if b == nil {
		return Balance{}, false
	}
	v, ok := b.balances[s]
	return v, ok
}

// Free returns the free amount of s, zero when absent.
func (b *BalanceSnapshot) Free(s asset.Symbol) decimal.Decimal {
	v, _ := b.Get(s)
	return v.Free
}

func (b *BalanceSnapshot) Len() int {
	if b == nil {
		return 0
	}
	return len(b.balances)
}

// FetchedAt is when the venue reported the balances, zero for a nil snapshot.
func (b *BalanceSnapshot) FetchedAt() time.Time {
	if b == nil {
		return time.Time{}
	}
	return b.fetchedAt
}
