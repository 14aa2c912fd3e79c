package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/trading/domain"
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

// fakeExchange replays balance and status sequences; the last entry repeats.
type fakeExchange struct {
	mu sync.Mutex

	balances   []map[asset.Symbol]string
	balanceErr error
	fetches    int

	createStatus domain.OrderStatus
	submitErr    error
	submitted    []domain.OrderRequest

	statuses  []domain.OrderStatus
	statusErr error
	queries   int

	order    *domain.Order
	orderErr error
}

var _ Exchange = (*fakeExchange)(nil)

func (f *fakeExchange) FetchBalance(context.Context) (*arbdomain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	i := min(f.fetches-1, len(f.balances)-1)
	m := make(map[asset.Symbol]arbdomain.Balance)
	if i >= 0 {
		for k, v := range f.balances[i] {
			m[k] = arbdomain.Balance{Free: d(v), Total: d(v)}
		}
	}
	return arbdomain.NewBalanceSnapshot(m, time.Now()), nil
}

func (f *fakeExchange) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	status := f.createStatus
	if status == "" {
		status = domain.StatusOpen
	}
	return &domain.Order{
		ID:       fmt.Sprintf("order-%d", len(f.submitted)),
		ClientID: req.ClientID,
		Pair:     req.Pair,
		Side:     req.Side,
		Type:     req.Type,
		Price:    req.Price,
		Amount:   req.Amount,
		Status:   status,
	}, nil
}

func (f *fakeExchange) FetchOrder(context.Context, domain.OrderQuery) (*domain.Order, error) {
	return f.order, f.orderErr
}

func (f *fakeExchange) FetchOrderStatus(context.Context, domain.OrderQuery) (domain.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statuses) == 0 {
		return domain.StatusClosed, nil
	}
	return f.statuses[min(f.queries-1, len(f.statuses)-1)], nil
}

func (f *fakeExchange) submittedOrders() []domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderRequest(nil), f.submitted...)
}

// sleepRecorder replaces time.Sleep and records the requested delays.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestDriver(t *testing.T, cfg DriverConfig, ex Exchange) (*Driver, *sleepRecorder) {
	t.Helper()
	drv, err := NewDriver(cfg, ex, &mockLogger{})
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	rec := &sleepRecorder{}
	drv.sleep = rec.sleep
	return drv, rec
}

func buyBTC() domain.OrderRequest {
	return domain.OrderRequest{
		ClientID: "client-1",
		Pair:     asset.MustParsePair("BTC/USDT"),
		Side:     arbdomain.SideBuy,
		Type:     domain.OrderTypeLimit,
		Amount:   d("0.002"),
		Price:    d("25000"),
	}
}

func sellBTC() domain.OrderRequest {
	req := buyBTC()
	req.Side = arbdomain.SideSell
	return req
}
