package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

func TestSimulator_Profitable(t *testing.T) {
	sim := NewSimulator(decimal.Zero)
	cycle := usdtCycle(t, "2110")

	tri, err := sim.Simulate(cycle, defaultMarkets(), d("0.01"))
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}

	// 300 USDT -> 0.01 BTC -> 0.142857.. ETH truncated to 0.1428 -> 301.308 USDT.
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"before", tri.Before, "300"},
		{"after", tri.After, "301.308"},
		{"profit", tri.Profit, "1.308"},
		{"a_amount", tri.A.Amount, "300"},
		{"a_output", tri.A.Output, "0.01"},
		{"a_quantity", tri.A.Quantity, "0.01"},
		{"a_fee", tri.A.Fee, "0.000002"},
		{"b_amount", tri.B.Amount, "0.01"},
		{"b_quantity", tri.B.Quantity, "0.1428"},
		{"c_amount", tri.C.Amount, "0.1428"},
		{"c_quantity", tri.C.Quantity, "0.1428"},
		{"c_fee", tri.C.Fee, "0.0602616"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}

	if !tri.Profitable || tri.Rate != "0.436%" {
		t.Errorf("Profitable = %v, Rate = %q", tri.Profitable, tri.Rate)
	}
	if tri.A.FeeAsset != "BTC" || tri.C.FeeAsset != "USDT" {
		t.Errorf("fee assets = %s, %s", tri.A.FeeAsset, tri.C.FeeAsset)
	}
	if tri.Coin != "USDT" || tri.CycleID != cycle.ID {
		t.Errorf("Coin = %s, CycleID = %s", tri.Coin, tri.CycleID)
	}
	if tri.Timestamp.IsZero() {
		t.Error("profitable simulation should be timestamped")
	}
}

func TestSimulator_Idempotent(t *testing.T) {
	sim := NewSimulator(decimal.Zero)
	cycle := usdtCycle(t, "2110")
	markets := defaultMarkets()

	first, err := sim.Simulate(cycle, markets, d("0.0123"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := sim.Simulate(cycle, markets, d("0.0123"))
	if err != nil {
		t.Fatal(err)
	}
	if !first.Before.Equal(second.Before) || !first.After.Equal(second.After) ||
		!first.Profit.Equal(second.Profit) || first.Rate != second.Rate {
		t.Errorf("runs differ: %+v vs %+v", first, second)
	}
}

func TestSimulator_UsesPublishedFee(t *testing.T) {
	markets := defaultMarkets()
	m := markets[asset.MustParsePair("ETH/USDT")]
	m.MakerFee = decimal.NewNullDecimal(d("0.001"))
	markets[m.Pair] = m

	tri, err := NewSimulator(d("0.0002")).Simulate(usdtCycle(t, "2110"), markets, d("0.01"))
	if err != nil {
		t.Fatal(err)
	}
	if !tri.C.Fee.Equal(d("0.301308")) {
		t.Errorf("c fee = %s, want 0.301308", tri.C.Fee)
	}
}

func TestSimulator_Unprofitable(t *testing.T) {
	tri, err := NewSimulator(decimal.Zero).Simulate(usdtCycle(t, "2090"), defaultMarkets(), d("0.01"))
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	if tri.Profitable {
		t.Error("Profitable = true, want false")
	}
	if !tri.Profit.Equal(d("-1.548")) {
		t.Errorf("Profit = %s, want -1.548", tri.Profit)
	}
	if tri.Rate != "" {
		t.Errorf("Rate = %q, want empty", tri.Rate)
	}
}

func TestSimulator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		markets  func() domain.Markets
		amount   string
		wantCode apperror.Code
	}{
		{
			name: "market_missing",
			markets: func() domain.Markets {
				m := defaultMarkets()
				delete(m, asset.MustParsePair("ETH/BTC"))
				return m
			},
			amount:   "0.01",
			wantCode: apperror.CodeMissingPrecision,
		},
		{
			name: "precision_missing",
			markets: func() domain.Markets {
				m := defaultMarkets()
				info := m[asset.MustParsePair("ETH/USDT")]
				info.Precision = nil
				m[info.Pair] = info
				return m
			},
			amount:   "0.01",
			wantCode: apperror.CodeMissingPrecision,
		},
		{
			name:     "truncated_to_zero",
			markets:  defaultMarkets,
			amount:   "0.00000001",
			wantCode: apperror.CodeZeroTradeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulator(decimal.Zero).Simulate(usdtCycle(t, "2110"), tt.markets(), d(tt.amount))
			if apperror.GetCode(err) != tt.wantCode {
				t.Errorf("error code = %s, want %s", apperror.GetCode(err), tt.wantCode)
			}
		})
	}
}
