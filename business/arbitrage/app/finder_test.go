package app

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

func ticker(pair, bid, bidSize, ask, askSize string) domain.Ticker {
	return domain.Ticker{
		Pair:    asset.MustParsePair(pair),
		Bid:     d(bid),
		BidSize: d(bidSize),
		Ask:     d(ask),
		AskSize: d(askSize),
	}
}

func defaultTickers() *fakeTickers {
	return &fakeTickers{tickers: []domain.Ticker{
		ticker("BTC/USDT", "29990", "1", "30000", "0.5"),
		ticker("ETH/BTC", "0.069", "20", "0.07", "10"),
		ticker("ETH/USDT", "2110", "5", "2115", "0"),
		ticker("DOGE/USDT", "0", "0", "0.1", "100"), // one-sided, ignored
	}}
}

func TestFinder_Candidates(t *testing.T) {
	f := NewFinder(defaultTickers(), 0)
	f.now = func() time.Time { return time.Unix(1700000000, 0) }

	cycles, err := f.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	// Three rotations in each direction.
	if len(cycles) != 6 {
		t.Fatalf("len(cycles) = %d, want 6", len(cycles))
	}
	for i := 1; i < len(cycles); i++ {
		if cycles[i].Rate.GreaterThan(cycles[i-1].Rate) {
			t.Errorf("cycles not sorted at %d: %s > %s", i, cycles[i].Rate, cycles[i-1].Rate)
		}
	}

	best := cycles[0]
	if best.ID != "BTC/USDT>ETH/BTC>ETH/USDT" {
		t.Errorf("best = %s", best.ID)
	}
	if !best.Rate.Equal(d("0.47619048")) {
		t.Errorf("best rate = %s", best.Rate)
	}
	if best.A.Side != domain.SideBuy || !best.A.Price.Equal(d("30000")) {
		t.Errorf("edge a = %s @ %s, want buy @ ask", best.A.Side, best.A.Price)
	}
	if best.C.Side != domain.SideSell || !best.C.Price.Equal(d("2110")) {
		t.Errorf("edge c = %s @ %s, want sell @ bid", best.C.Side, best.C.Price)
	}
	if !best.A.Quantity.Valid || !best.A.Quantity.Decimal.Equal(d("0.5")) {
		t.Errorf("edge a quantity = %v, want ask size 0.5", best.A.Quantity)
	}
}

func TestFinder_ZeroSizeLeavesQuantityUnset(t *testing.T) {
	cycles, err := NewFinder(defaultTickers(), 0).Candidates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cycles {
		for _, e := range c.Edges() {
			if e.Pair == asset.MustParsePair("ETH/USDT") && e.Side == domain.SideBuy && e.HasQuantity() {
				t.Errorf("%s: quantity set from a zero ask size", c.ID)
			}
		}
	}
}

func TestFinder_Cap(t *testing.T) {
	cycles, err := NewFinder(defaultTickers(), 2).Candidates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 2 {
		t.Errorf("len(cycles) = %d, want 2", len(cycles))
	}
}

func TestFinder_TickerError(t *testing.T) {
	_, err := NewFinder(&fakeTickers{err: errBoom}, 0).Candidates(context.Background())
	if apperror.GetCode(err) != apperror.CodeTickersFetchFailed {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeTickersFetchFailed)
	}
}
