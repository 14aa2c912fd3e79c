package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var errBoom = errors.New("boom")

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeBooks serves fixed books and counts fetches.
type fakeBooks struct {
	mu    sync.Mutex
	books map[asset.Pair]*domain.OrderBook
	err   error
	calls int
}

func (f *fakeBooks) FetchOrderBook(_ context.Context, pair asset.Pair, _ int) (*domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ob, ok := f.books[pair]
	if !ok {
		return &domain.OrderBook{Pair: pair}, nil
	}
	return ob, nil
}

func book(pair string, bid, bidSize, ask, askSize string) *domain.OrderBook {
	ob := &domain.OrderBook{Pair: asset.MustParsePair(pair)}
	if bid != "" {
		ob.Bids = []domain.Level{{Price: d(bid), Size: d(bidSize)}}
	}
	if ask != "" {
		ob.Asks = []domain.Level{{Price: d(ask), Size: d(askSize)}}
	}
	return ob
}

func defaultBooks() *fakeBooks {
	return &fakeBooks{books: map[asset.Pair]*domain.OrderBook{
		asset.MustParsePair("BTC/USDT"): book("BTC/USDT", "29990", "1", "30000", "0.5"),
		asset.MustParsePair("ETH/BTC"):  book("ETH/BTC", "0.069", "20", "0.07", "10"),
		asset.MustParsePair("ETH/USDT"): book("ETH/USDT", "2110", "5", "2115", "7"),
	}}
}

// fakePricer returns fixed reference prices keyed by "ASSET/USD".
type fakePricer struct {
	prices map[string]decimal.Decimal
}

func (f *fakePricer) ReferencePrice(_ context.Context, pair string) (decimal.Decimal, error) {
	p, ok := f.prices[pair]
	if !ok {
		return decimal.Zero, errBoom
	}
	return p, nil
}

func defaultPricer() *fakePricer {
	return &fakePricer{prices: map[string]decimal.Decimal{
		"USDT/USD": d("1"),
		"BTC/USD":  d("30000"),
		"ETH/USD":  d("2100"),
	}}
}

type fakeMarkets struct {
	markets domain.Markets
	err     error
}

func (f *fakeMarkets) Markets(context.Context) (domain.Markets, error) {
	return f.markets, f.err
}

func defaultMarkets() domain.Markets {
	return domain.Markets{
		asset.MustParsePair("BTC/USDT"): {
			Pair:      asset.MustParsePair("BTC/USDT"),
			Precision: &domain.Precision{Amount: 5, Price: 2},
			Limits:    domain.Limits{MinCost: d("10")},
		},
		asset.MustParsePair("ETH/BTC"): {
			Pair:      asset.MustParsePair("ETH/BTC"),
			Precision: &domain.Precision{Amount: 4, Price: 6},
		},
		asset.MustParsePair("ETH/USDT"): {
			Pair:      asset.MustParsePair("ETH/USDT"),
			Precision: &domain.Precision{Amount: 4, Price: 2},
		},
	}
}

type fakeBalances struct {
	snapshot *domain.BalanceSnapshot
	err      error
}

func (f *fakeBalances) FetchBalance(context.Context) (*domain.BalanceSnapshot, error) {
	return f.snapshot, f.err
}

type fakeCandidates struct {
	build func() []*domain.Cycle
	err   error
}

func (f *fakeCandidates) Candidates(context.Context) ([]*domain.Cycle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.build(), nil
}

type fakeTickers struct {
	tickers []domain.Ticker
	err     error
}

func (f *fakeTickers) Tickers(context.Context) ([]domain.Ticker, error) {
	return f.tickers, f.err
}

type recordingRankSink struct {
	mu    sync.Mutex
	calls [][]domain.Rank
}

func (r *recordingRankSink) UpdateRanks(_ context.Context, _ domain.ExchangeID, ranks []domain.Rank) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ranks)
}

type recordingOrderSink struct {
	mu    sync.Mutex
	plans []*domain.TradeTriangle
}

func (r *recordingOrderSink) PlaceOrder(_ context.Context, _ domain.ExchangeID, _ *domain.Cycle, plan *domain.TradeTriangle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, plan)
}

func (r *recordingOrderSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans)
}

func edge(t *testing.T, pair string, side domain.Side, price string) *domain.Edge {
	t.Helper()
	e, err := domain.NewEdge(asset.MustParsePair(pair), side, d(price))
	if err != nil {
		t.Fatalf("NewEdge(%s): %v", pair, err)
	}
	return e
}

// usdtCycle is USDT>BTC>ETH>USDT with a rate of 0.47619048%. The last price
// can be overridden to make the cycle flat or losing.
func usdtCycle(t *testing.T, ethUSDT string) *domain.Cycle {
	t.Helper()
	c, err := domain.NewCycle(
		edge(t, "BTC/USDT", domain.SideBuy, "30000"),
		edge(t, "ETH/BTC", domain.SideBuy, "0.07"),
		edge(t, "ETH/USDT", domain.SideSell, ethUSDT),
		time.Unix(1700000000, 0),
	)
	if err != nil {
		t.Fatalf("NewCycle: %v", err)
	}
	return c
}

// btcCycle is the BTC-based rotation of usdtCycle.
func btcCycle(t *testing.T) *domain.Cycle {
	t.Helper()
	c, err := domain.NewCycle(
		edge(t, "ETH/BTC", domain.SideBuy, "0.07"),
		edge(t, "ETH/USDT", domain.SideSell, "2110"),
		edge(t, "BTC/USDT", domain.SideBuy, "30000"),
		time.Unix(1700000000, 0),
	)
	if err != nil {
		t.Fatalf("NewCycle: %v", err)
	}
	return c
}

func withQuantities(c *domain.Cycle, qa, qb, qc string) *domain.Cycle {
	c.A.SetQuantity(d(qa))
	c.B.SetQuantity(d(qb))
	c.C.SetQuantity(d(qc))
	return c
}

func snapshot(kv ...string) *domain.BalanceSnapshot {
	m := make(map[asset.Symbol]domain.Balance)
	for i := 0; i+1 < len(kv); i += 2 {
		m[asset.Symbol(kv[i])] = domain.Balance{Free: d(kv[i+1]), Total: d(kv[i+1])}
	}
	return domain.NewBalanceSnapshot(m, time.Unix(1700000000, 0))
}
