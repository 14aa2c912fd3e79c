package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
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

const amountScale int32 = 8

// DriverConfig bounds the balance wait of a single order.
type DriverConfig struct {
	Exchange arbdomain.ExchangeID
	// MaxAttempts is the number of balance checks before submitting a reduced amount.
	MaxAttempts int
	RetryDelay  time.Duration
	// Haircut is the fraction shaved off every requested amount.
	Haircut decimal.Decimal
}

// DefaultDriverConfig checks five times, one second apart.
func DefaultDriverConfig(exchange arbdomain.ExchangeID) DriverConfig {
	return DriverConfig{
		Exchange:    exchange,
		MaxAttempts: 5,
		RetryDelay:  time.Second,
	}
}

// Outcome tells whether the order went out as requested or cut down to the balance.
type Outcome string

const (
	OutcomeFull    Outcome = "full"
	OutcomeReduced Outcome = "reduced"
)

// Result is a submitted order and how it was sized.
type Result struct {
	Order    *domain.Order
	Outcome  Outcome
	Amount   decimal.Decimal
	Attempts int
}

// Driver submits orders once the account can fund them. Funds that arrive late
// (the previous leg still settling) are waited for a bounded number of times.
type Driver struct {
	cfg      DriverConfig
	exchange Exchange
	logger   logger.LoggerInterface
	sleep    func(ctx context.Context, d time.Duration) error

	tracer  trace.Tracer
	metrics *tradingMetrics
}

// NewDriver creates a Driver.
func NewDriver(cfg DriverConfig, exchange Exchange, log logger.LoggerInterface) (*Driver, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	m, err := newTradingMetrics()
	if err != nil {
		return nil, err
	}
	return &Driver{
		cfg:      cfg,
		exchange: exchange,
		logger:   log,
		sleep:    sleepContext,
		tracer:   otel.Tracer(tracerName),
		metrics:  m,
	}, nil
}

// CreateOrder applies the haircut, then checks the balance up to MaxAttempts
// times. Enough funds submit the amount unchanged; a shortfall on the last
// check submits what the free balance covers.
func (d *Driver) CreateOrder(ctx context.Context, req domain.OrderRequest) (*Result, error) {
	ctx, span := d.tracer.Start(ctx, "trading.create_order",
		trace.WithAttributes(
			attribute.String("pair", req.Pair.String()),
			attribute.String("side", req.Side.String()),
			attribute.String("client_id", req.ClientID),
		),
	)
	defer span.End()

	res, err := d.createOrder(ctx, d.applyHaircut(req))
	outcome := "failed"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
	} else {
		outcome = string(res.Outcome)
		span.SetAttributes(attribute.String("outcome", outcome), attribute.Int("attempts", res.Attempts))
	}
	d.metrics.orders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("exchange", d.cfg.Exchange.String()),
		attribute.String("outcome", outcome),
	))
	return res, err
}

func (d *Driver) createOrder(ctx context.Context, req domain.OrderRequest) (*Result, error) {
	for attempt := 1; ; attempt++ {
		snapshot, err := d.exchange.FetchBalance(ctx)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeBalanceFetchFailed, d.cfg.Exchange.String())
		}

		sym, required := req.RequiredFunds()
		free := snapshot.Free(sym)
		if free.GreaterThanOrEqual(required) {
			return d.submit(ctx, req, OutcomeFull, attempt)
		}

		if attempt >= d.cfg.MaxAttempts {
			reduced := reducedAmount(req, free)
			if !reduced.IsPositive() {
				return nil, apperror.New(apperror.CodeInsufficientBalance,
					apperror.WithContextf("%s %s: free %s %s", req.Side, req.Pair, free, sym))
			}
			d.logger.Warn(ctx, "balance still short, submitting reduced amount",
				"pair", req.Pair.String(), "side", req.Side.String(),
				"requested", req.Amount.String(), "reduced", reduced.String(), "attempts", attempt)
			return d.submit(ctx, req.WithAmount(reduced), OutcomeReduced, attempt)
		}

		d.metrics.retries.Add(ctx, 1)
		d.logger.Info(ctx, "insufficient balance, waiting",
			"pair", req.Pair.String(), "asset", sym.String(),
			"free", free.String(), "required", required.String(),
			"attempt", attempt, "delay", d.cfg.RetryDelay.String())
		if err := d.sleep(ctx, d.cfg.RetryDelay); err != nil {
			return nil, err
		}
	}
}

func (d *Driver) submit(ctx context.Context, req domain.OrderRequest, outcome Outcome, attempts int) (*Result, error) {
	order, err := d.exchange.CreateOrder(ctx, req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeOrderSubmitFailed, req.Pair.String())
	}
	d.logger.Info(ctx, "order submitted",
		"id", order.ID, "client_id", req.ClientID, "pair", req.Pair.String(), "side", req.Side.String(),
		"amount", req.Amount.String(), "price", req.Price.String(), "outcome", string(outcome))
	return &Result{Order: order, Outcome: outcome, Amount: req.Amount, Attempts: attempts}, nil
}

func (d *Driver) applyHaircut(req domain.OrderRequest) domain.OrderRequest {
	if !d.cfg.Haircut.IsPositive() {
		return req
	}
	cut := req.Amount.Mul(decimal.NewFromInt(1).Sub(d.cfg.Haircut)).Truncate(amountScale)
	return req.WithAmount(cut)
}

// reducedAmount is the largest amount free can fund: free ÷ price for a buy,
// free itself for a sell.
func reducedAmount(req domain.OrderRequest, free decimal.Decimal) decimal.Decimal {
	if req.Side == arbdomain.SideBuy {
		if !req.Price.IsPositive() {
			return decimal.Zero
		}
		return free.DivRound(req.Price, 24).Truncate(amountScale)
	}
	return free.Truncate(amountScale)
}

// QueryOrder returns the venue's view of the order, or nil when the lookup fails.
func (d *Driver) QueryOrder(ctx context.Context, q domain.OrderQuery) *domain.Order {
	if err := d.checkQuery(q); err != nil {
		d.logger.Error(ctx, "order query rejected", "id", q.ID, "error", err)
		return nil
	}
	order, err := d.exchange.FetchOrder(ctx, q)
	if err != nil {
		d.logger.Error(ctx, "order query failed", "id", q.ID, "pair", q.Pair.String(), "error", err)
		return nil
	}
	return order
}

// QueryOrderStatus returns the order status, or StatusUnknown when the lookup fails.
func (d *Driver) QueryOrderStatus(ctx context.Context, q domain.OrderQuery) domain.OrderStatus {
	if err := d.checkQuery(q); err != nil {
		d.logger.Error(ctx, "order status query rejected", "id", q.ID, "error", err)
		return domain.StatusUnknown
	}
	status, err := d.exchange.FetchOrderStatus(ctx, q)
	if err != nil {
		d.logger.Error(ctx, "order status query failed", "id", q.ID, "pair", q.Pair.String(), "error", err)
		return domain.StatusUnknown
	}
	return status
}

// checkQuery rejects side-less lookups on venues that key orders by side.
func (d *Driver) checkQuery(q domain.OrderQuery) error {
	if q.ID == "" {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("order id is required"))
	}
	if d.cfg.Exchange.QueryNeedsSide() && !q.Side.Valid() {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContextf("%s order queries need the side", d.cfg.Exchange))
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
