package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertInvert(t *testing.T) {
	tests := []struct {
		name        string
		side        Side
		price       string
		amount      string
		wantConvert string
		wantInvert  string
	}{
		{name: "sell", side: SideSell, price: "0.05", amount: "2", wantConvert: "0.1", wantInvert: "40"},
		{name: "buy", side: SideBuy, price: "0.05", amount: "2", wantConvert: "40", wantInvert: "0.1"},
		{name: "buy_zero_price", side: SideBuy, price: "0", amount: "2", wantConvert: "0", wantInvert: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := decimal.RequireFromString(tt.price)
			amount := decimal.RequireFromString(tt.amount)
			if got := Convert(tt.side, price, amount); !got.Equal(decimal.RequireFromString(tt.wantConvert)) {
				t.Errorf("Convert() = %s, want %s", got, tt.wantConvert)
			}
			if got := Invert(tt.side, price, amount); !got.Equal(decimal.RequireFromString(tt.wantInvert)) {
				t.Errorf("Invert() = %s, want %s", got, tt.wantInvert)
			}
		})
	}
}

func TestConvert_KeepsPrecision(t *testing.T) {
	got := Convert(SideBuy, decimal.NewFromInt(3), decimal.NewFromInt(1))
	if got.Exponent() != -24 {
		t.Errorf("exponent = %d, want -24", got.Exponent())
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide(" BUY "); err != nil || s != SideBuy {
		t.Errorf("ParseSide(BUY) = %q, %v", s, err)
	}
	if _, err := ParseSide("short"); err == nil {
		t.Error("ParseSide(short) should fail")
	}
}
