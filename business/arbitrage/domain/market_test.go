package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarketInfo_MinCost(t *testing.T) {
	tests := []struct {
		name   string
		market MarketInfo
		want   string
	}{
		{
			name:   "cost_limit",
			market: MarketInfo{Limits: Limits{MinCost: decimal.RequireFromString("10"), MinPrice: decimal.RequireFromString("0.01")}},
			want:   "10",
		},
		{
			name:   "price_limit_fallback",
			market: MarketInfo{Limits: Limits{MinPrice: decimal.RequireFromString("0.01")}},
			want:   "0.01",
		},
		{
			name: "amount_times_low",
			market: MarketInfo{
				Precision: &Precision{Amount: 3, Price: 6},
				Limits:    Limits{MinAmount: decimal.RequireFromString("0.01")},
				Low:       decimal.RequireFromString("123.4567"),
			},
			want: "1.235",
		},
		{
			name:   "no_limits",
			market: MarketInfo{},
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.market.MinCost(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MinCost() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMinTradeAmount(t *testing.T) {
	market := MarketInfo{Limits: Limits{MinCost: decimal.RequireFromString("10")}}

	buy := mustEdge(t, "BTC/USDT", SideBuy, "20000")
	if got := MinTradeAmount(buy, market); !got.Equal(decimal.RequireFromString("11")) {
		t.Errorf("buy: MinTradeAmount() = %s, want 11", got)
	}

	sell := mustEdge(t, "BTC/USDT", SideSell, "20000")
	if got := MinTradeAmount(sell, market); !got.Equal(decimal.RequireFromString("0.00055")) {
		t.Errorf("sell: MinTradeAmount() = %s, want 0.00055", got)
	}

	if got := MinTradeAmount(sell, MarketInfo{}); !got.IsZero() {
		t.Errorf("no limits: MinTradeAmount() = %s, want 0", got)
	}
}

func TestMarketInfo_PrecisionAndFee(t *testing.T) {
	m := MarketInfo{Precision: &Precision{Amount: 4, Price: 2}}
	if p, ok := m.PrecisionFor(SideBuy); !ok || p != 2 {
		t.Errorf("buy precision = %d, %v", p, ok)
	}
	if p, ok := m.PrecisionFor(SideSell); !ok || p != 4 {
		t.Errorf("sell precision = %d, %v", p, ok)
	}
	if _, ok := (MarketInfo{}).PrecisionFor(SideBuy); ok {
		t.Error("missing precision should report false")
	}
	if !m.FeeOr(DefaultMakerFee).Equal(DefaultMakerFee) {
		t.Errorf("FeeOr() = %s, want default", m.FeeOr(DefaultMakerFee))
	}
	m.MakerFee = decimal.NewNullDecimal(decimal.RequireFromString("0.001"))
	if !m.FeeOr(DefaultMakerFee).Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("FeeOr() = %s, want 0.001", m.FeeOr(DefaultMakerFee))
	}
}

func TestMarketInfo_FeeOrNonPositive(t *testing.T) {
	tests := []struct {
		name string
		fee  string
	}{
		{name: "zero_fee", fee: "0"},
		{name: "rebate", fee: "-0.0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MarketInfo{MakerFee: decimal.NewNullDecimal(decimal.RequireFromString(tt.fee))}
			if got := m.FeeOr(DefaultMakerFee); !got.Equal(DefaultMakerFee) {
				t.Errorf("FeeOr() = %s, want %s", got, DefaultMakerFee)
			}
		})
	}
}
