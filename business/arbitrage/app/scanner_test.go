package app

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

type chanTrigger struct {
	ch chan struct{}
}

func (c *chanTrigger) Triggers(context.Context) (<-chan struct{}, error) {
	return c.ch, nil
}

type scannerFixture struct {
	scanner  *Scanner
	ranks    *recordingRankSink
	orders   *recordingOrderSink
	balances *fakeBalances
	cands    *fakeCandidates
}

func newScannerFixture(t *testing.T, cfg ScannerConfig) *scannerFixture {
	t.Helper()
	ranker, err := NewRanker(RankerConfig{MinRateProfit: d("0.1"), MinNotional: d("10"), Profiles: binanceProfiles()},
		NewRefiller(defaultBooks()), defaultPricer(), &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	planner, err := NewPlanner(domain.Binance, &fakeMarkets{markets: defaultMarkets()}, NewSimulator(d("0.0002")), &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}

	f := &scannerFixture{
		ranks:    &recordingRankSink{},
		orders:   &recordingOrderSink{},
		balances: &fakeBalances{snapshot: snapshot("USDT", "1000")},
		cands: &fakeCandidates{build: func() []*domain.Cycle {
			return []*domain.Cycle{usdtCycle(t, "2110")}
		}},
	}
	cfg.Exchange = domain.Binance
	f.scanner, err = NewScanner(cfg, ScannerDeps{
		Balances:   f.balances,
		Candidates: f.cands,
		Ranker:     ranker,
		Planner:    planner,
		Trigger:    &chanTrigger{ch: make(chan struct{})},
		Ranks:      f.ranks,
		Orders:     f.orders,
	}, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestScanner_Scan(t *testing.T) {
	f := newScannerFixture(t, ScannerConfig{PublishRanks: true, ReportTop: 5})

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(f.ranks.calls) != 1 || len(f.ranks.calls[0]) != 1 {
		t.Fatalf("rank sink calls = %v", f.ranks.calls)
	}
	if f.orders.count() != 1 {
		t.Fatalf("orders placed = %d, want 1", f.orders.count())
	}
	if plan := f.orders.plans[0]; !plan.Profitable || plan.Exchange != domain.Binance {
		t.Errorf("plan = %+v", plan)
	}
	if f.scanner.Heartbeat().Last().IsZero() {
		t.Error("heartbeat not stamped after a clean scan")
	}
}

func TestScanner_NoPublishWhenDisabled(t *testing.T) {
	f := newScannerFixture(t, ScannerConfig{PublishRanks: false})
	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.ranks.calls) != 0 {
		t.Errorf("rank sink called %d times", len(f.ranks.calls))
	}
}

func TestScanner_UnprofitablePlanPlacesNothing(t *testing.T) {
	f := newScannerFixture(t, ScannerConfig{PublishRanks: true})
	// Only 15 USDT free: the sized trade loses to truncation on ETH/USDT.
	f.balances.snapshot = snapshot("USDT", "15")

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.orders.count() != 0 {
		t.Errorf("orders placed = %d, want 0", f.orders.count())
	}
}

func TestScanner_Errors(t *testing.T) {
	t.Run("balance_fetch_failed", func(t *testing.T) {
		f := newScannerFixture(t, ScannerConfig{})
		f.balances.err = errBoom
		err := f.scanner.Scan(context.Background())
		if apperror.GetCode(err) != apperror.CodeBalanceFetchFailed {
			t.Errorf("error code = %s", apperror.GetCode(err))
		}
		if !f.scanner.Heartbeat().Last().IsZero() {
			t.Error("heartbeat stamped on a failed scan")
		}
	})

	t.Run("panic_recovered", func(t *testing.T) {
		f := newScannerFixture(t, ScannerConfig{})
		f.cands.build = func() []*domain.Cycle { panic("bad candidate") }
		err := f.scanner.Scan(context.Background())
		if apperror.GetCode(err) != apperror.CodeScanFailed {
			t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeScanFailed)
		}
		// The guard must be released after a panic.
		f.cands.build = func() []*domain.Cycle { return nil }
		if err := f.scanner.Scan(context.Background()); err != nil {
			t.Errorf("scan after panic: %v", err)
		}
	})
}

func TestScanner_OverlapGuard(t *testing.T) {
	f := newScannerFixture(t, ScannerConfig{})
	f.scanner.running.Store(true)

	err := f.scanner.Scan(context.Background())
	if apperror.GetCode(err) != apperror.CodeScanInProgress {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeScanInProgress)
	}

	f.scanner.cfg.AllowOverlap = true
	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Errorf("overlapping scan with AllowOverlap: %v", err)
	}
}

func TestScanner_StartStop(t *testing.T) {
	f := newScannerFixture(t, ScannerConfig{})
	trigger := f.scanner.deps.Trigger.(*chanTrigger)

	if err := f.scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	trigger.ch <- struct{}{}

	deadline := time.After(2 * time.Second)
	for f.orders.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("no order placed after trigger")
		case <-time.After(10 * time.Millisecond):
		}
	}
	f.scanner.Stop()
}

func TestIntervalTrigger_FiresImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := IntervalTrigger{Interval: time.Hour}.Triggers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no immediate trigger")
	}
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("unexpected trigger after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
