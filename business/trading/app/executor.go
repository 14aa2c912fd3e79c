package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/trading/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// ExecutorConfig sizes the plan queue and the fill polling.
type ExecutorConfig struct {
	Exchange     arbdomain.ExchangeID
	QueueSize    int
	PollInterval time.Duration
	// MaxPolls caps status checks per leg before the chain is abandoned.
	MaxPolls int
}

type job struct {
	cycle *arbdomain.Cycle
	plan  *arbdomain.TradeTriangle
}

// Executor places the three legs of a plan in order from a single worker.
// PlaceOrder never blocks: plans that do not fit in the queue are dropped.
type Executor struct {
	cfg    ExecutorConfig
	driver *Driver
	logger logger.LoggerInterface
	sleep  func(ctx context.Context, d time.Duration) error

	queue  chan job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tracer  trace.Tracer
	metrics *tradingMetrics
}

// NewExecutor creates an Executor. Call Start to begin draining the queue.
func NewExecutor(cfg ExecutorConfig, driver *Driver, log logger.LoggerInterface) (*Executor, error) {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxPolls < 1 {
		cfg.MaxPolls = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	m, err := newTradingMetrics()
	if err != nil {
		return nil, err
	}
	return &Executor{
		cfg:     cfg,
		driver:  driver,
		logger:  log,
		sleep:   sleepContext,
		queue:   make(chan job, cfg.QueueSize),
		tracer:  otel.Tracer(tracerName),
		metrics: m,
	}, nil
}

// PlaceOrder enqueues a profitable plan.
func (e *Executor) PlaceOrder(ctx context.Context, exchange arbdomain.ExchangeID, cycle *arbdomain.Cycle, plan *arbdomain.TradeTriangle) {
	if exchange != e.cfg.Exchange {
		e.drop(ctx, cycle, apperror.New(apperror.CodeExchangeUnsupported,
			apperror.WithContextf("executor trades on %s, got %s", e.cfg.Exchange, exchange)))
		return
	}
	if plan == nil || !plan.Profitable {
		return
	}

	select {
	case e.queue <- job{cycle: cycle, plan: plan}:
		e.logger.Debug(ctx, "plan queued", "cycle", cycle.ID, "profit", plan.Profit.String())
	default:
		e.drop(ctx, cycle, apperror.New(apperror.CodeOrderQueueFull, apperror.WithContext(cycle.ID)))
	}
}

func (e *Executor) drop(ctx context.Context, cycle *arbdomain.Cycle, err error) {
	e.metrics.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(apperror.GetCode(err)))))
	e.logger.Warn(ctx, "plan dropped", "cycle", cycle.ID, "error", err)
}

// Start runs the worker until Stop or ctx ends.
func (e *Executor) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-e.queue:
				result := "completed"
				if err := e.Execute(ctx, j.cycle, j.plan); err != nil {
					result = string(apperror.GetCode(err))
					e.logger.Error(ctx, "plan execution failed", "cycle", j.cycle.ID, "error", err)
				}
				e.metrics.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
			}
		}
	}()
}

// Stop cancels the worker and waits for the leg in flight.
func (e *Executor) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// Execute places legs a, b and c. A leg must fill before the next one is sent
// because its output funds the next leg.
func (e *Executor) Execute(ctx context.Context, cycle *arbdomain.Cycle, plan *arbdomain.TradeTriangle) error {
	ctx, span := e.tracer.Start(ctx, "trading.execute",
		trace.WithAttributes(attribute.String("cycle", cycle.ID), attribute.String("coin", plan.Coin.String())),
	)
	defer span.End()

	for i, leg := range plan.Legs() {
		req := domain.OrderRequest{
			ClientID: uuid.NewString(),
			Pair:     leg.Pair,
			Side:     leg.Side,
			Type:     domain.OrderTypeLimit,
			Amount:   leg.Quantity,
			Price:    leg.Price,
		}
		res, err := e.driver.CreateOrder(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "leg failed")
			return err
		}

		status := e.await(ctx, res.Order)
		if status != domain.StatusClosed {
			err := apperror.New(apperror.CodeOrderQueryFailed,
				apperror.WithContextf("leg %d %s order %s is %s", i+1, leg.Pair, res.Order.ID, status))
			span.RecordError(err)
			span.SetStatus(codes.Error, "leg not filled")
			return err
		}
	}

	e.logger.Info(ctx, "plan executed", "cycle", cycle.ID, "before", plan.Before.String(), "after", plan.After.String())
	return nil
}

func (e *Executor) await(ctx context.Context, order *domain.Order) domain.OrderStatus {
	if order.Status.Terminal() {
		return order.Status
	}
	status := domain.StatusUnknown
	for i := 0; i < e.cfg.MaxPolls; i++ {
		if err := e.sleep(ctx, e.cfg.PollInterval); err != nil {
			return status
		}
		status = e.driver.QueryOrderStatus(ctx, order.Query())
		if status.Terminal() {
			return status
		}
	}
	return status
}
