package infra

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

func testRank(t *testing.T) domain.Rank {
	t.Helper()
	edge := func(pair string, side domain.Side, price string) *domain.Edge {
		e, err := domain.NewEdge(asset.MustParsePair(pair), side, decimal.RequireFromString(price))
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	c, err := domain.NewCycle(
		edge("BTC/USDT", domain.SideBuy, "30000"),
		edge("ETH/BTC", domain.SideBuy, "0.07"),
		edge("ETH/USDT", domain.SideSell, "2110"),
		time.Now(),
	)
	if err != nil {
		t.Fatal(err)
	}
	c.MinNotional = decimal.RequireFromString("10550")
	return domain.Rank{
		Cycle:       c,
		StepA:       c.A.From,
		StepB:       c.B.From,
		StepC:       c.C.From,
		Rate:        c.Rate,
		ProfitRates: []decimal.Decimal{decimal.RequireFromString("0.45")},
	}
}

func TestConsoleSink_UpdateRanks(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, 5)
	sink.now = func() time.Time { return time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC) }

	sink.UpdateRanks(context.Background(), domain.Binance, []domain.Rank{testRank(t)})

	out := buf.String()
	for _, want := range []string{"12:30:00", "binance", "USDT>BTC>ETH", "0.4762", "10550.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleSink_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleSink(&buf, 0).UpdateRanks(context.Background(), domain.Binance, nil)
	if !strings.Contains(buf.String(), "no ranked cycles") {
		t.Errorf("output = %q", buf.String())
	}
}
