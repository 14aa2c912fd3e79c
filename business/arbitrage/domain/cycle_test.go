package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

func mustEdge(t *testing.T, pair string, side Side, price string) *Edge {
	t.Helper()
	e, err := NewEdge(asset.MustParsePair(pair), side, decimal.RequireFromString(price))
	if err != nil {
		t.Fatalf("NewEdge(%s) error: %v", pair, err)
	}
	return e
}

func TestNewEdge_Direction(t *testing.T) {
	buy := mustEdge(t, "ETH/BTC", SideBuy, "0.05")
	if buy.From != "BTC" || buy.To != "ETH" {
		t.Errorf("buy edge = %s>%s, want BTC>ETH", buy.From, buy.To)
	}
	sell := mustEdge(t, "ETH/BTC", SideSell, "0.05")
	if sell.From != "ETH" || sell.To != "BTC" {
		t.Errorf("sell edge = %s>%s, want ETH>BTC", sell.From, sell.To)
	}
	if buy.HasQuantity() {
		t.Error("new edge should have no quantity")
	}
}

func TestNewEdge_Invalid(t *testing.T) {
	pair := asset.MustParsePair("ETH/BTC")
	tests := []struct {
		name  string
		side  Side
		price string
	}{
		{name: "unknown_side", side: "hold", price: "1"},
		{name: "zero_price", side: SideBuy, price: "0"},
		{name: "negative_price", side: SideSell, price: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEdge(pair, tt.side, decimal.RequireFromString(tt.price))
			if apperror.GetCode(err) != apperror.CodeInvalidEdge {
				t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidEdge)
			}
		})
	}
}

func TestCalculateRate(t *testing.T) {
	tests := []struct {
		name string
		a, b *Edge
		c    *Edge
		want string
	}{
		{
			name: "all_sells_multiply",
			a:    mustEdge(t, "A/B", SideSell, "2"),
			b:    mustEdge(t, "B/C", SideSell, "3"),
			c:    mustEdge(t, "C/A", SideSell, "0.2"),
			want: "20", // (2*3*0.2 - 1) * 100
		},
		{
			name: "buy_leg_divides",
			a:    mustEdge(t, "A/B", SideSell, "2"),
			b:    mustEdge(t, "B/C", SideSell, "3"),
			c:    mustEdge(t, "A/C", SideBuy, "5"),
			want: "20", // 2*3/5
		},
		{
			name: "losing_cycle",
			a:    mustEdge(t, "A/B", SideSell, "1"),
			b:    mustEdge(t, "B/C", SideSell, "1"),
			c:    mustEdge(t, "C/A", SideSell, "0.99"),
			want: "-1",
		},
		{
			name: "usdt_btc_eth",
			a:    mustEdge(t, "BTC/USDT", SideBuy, "30000"),
			b:    mustEdge(t, "ETH/BTC", SideBuy, "0.07"),
			c:    mustEdge(t, "ETH/USDT", SideSell, "2110"),
			want: "0.47619048", // 2110 / 2100 - 1, 8 places
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRate(tt.a, tt.b, tt.c)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("CalculateRate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewCycle(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	a := mustEdge(t, "BTC/USDT", SideBuy, "30000")
	b := mustEdge(t, "ETH/BTC", SideBuy, "0.07")
	c := mustEdge(t, "ETH/USDT", SideSell, "2110")

	cycle, err := NewCycle(a, b, c, ts)
	if err != nil {
		t.Fatalf("NewCycle() error: %v", err)
	}
	if cycle.ID != "BTC/USDT>ETH/BTC>ETH/USDT" {
		t.Errorf("ID = %q", cycle.ID)
	}
	if cycle.BaseAsset() != "USDT" {
		t.Errorf("BaseAsset() = %s, want USDT", cycle.BaseAsset())
	}
	if cycle.Path() != "USDT>BTC>ETH>USDT" {
		t.Errorf("Path() = %s", cycle.Path())
	}
	if !cycle.Rate.Equal(decimal.RequireFromString("0.47619048")) {
		t.Errorf("Rate = %s", cycle.Rate)
	}
}

func TestNewCycle_Broken(t *testing.T) {
	a := mustEdge(t, "BTC/USDT", SideBuy, "30000")
	b := mustEdge(t, "ETH/BTC", SideSell, "0.07") // ETH>BTC does not follow USDT>BTC
	c := mustEdge(t, "ETH/USDT", SideSell, "2100")

	if _, err := NewCycle(a, b, c, time.Now()); apperror.GetCode(err) != apperror.CodeInvalidCycle {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidCycle)
	}
	if _, err := NewCycle(a, nil, c, time.Now()); apperror.GetCode(err) != apperror.CodeInvalidCycle {
		t.Errorf("nil edge: error code = %s", apperror.GetCode(err))
	}
}

func TestCycle_Clone(t *testing.T) {
	cycle, err := NewCycle(
		mustEdge(t, "A/B", SideSell, "2"),
		mustEdge(t, "B/C", SideSell, "3"),
		mustEdge(t, "C/A", SideSell, "0.2"),
		time.Now(),
	)
	if err != nil {
		t.Fatal(err)
	}
	cp := cycle.Clone()
	cp.A.SetQuantity(decimal.NewFromInt(1))
	if cycle.A.HasQuantity() {
		t.Error("mutating the clone changed the original")
	}
}
