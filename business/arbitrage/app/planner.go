package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// Planner checks that a ranked cycle can be traded, sizes it and simulates it.
type Planner struct {
	exchange  domain.ExchangeID
	markets   MarketSource
	sizer     Sizer
	simulator *Simulator
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *arbitrageMetrics
}

// NewPlanner creates a Planner.
func NewPlanner(exchange domain.ExchangeID, markets MarketSource, simulator *Simulator, log logger.LoggerInterface) (*Planner, error) {
	m, err := newArbitrageMetrics()
	if err != nil {
		return nil, err
	}
	return &Planner{
		exchange:  exchange,
		markets:   markets,
		simulator: simulator,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		metrics:   m,
	}, nil
}

// Plan requires a non-zero free balance of the base asset and market metadata
// for edge a, then sizes and simulates the cycle against snapshot.
func (p *Planner) Plan(ctx context.Context, cycle *domain.Cycle, snapshot *domain.BalanceSnapshot) (*domain.TradeTriangle, error) {
	ctx, span := p.tracer.Start(ctx, "arbitrage.plan",
		trace.WithAttributes(attribute.String("cycle", cycle.ID)),
	)
	defer span.End()

	tri, err := p.plan(ctx, cycle, snapshot)
	outcome := "unprofitable"
	switch {
	case err != nil:
		outcome = string(apperror.GetCode(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	case tri.Profitable:
		outcome = "profitable"
		span.SetAttributes(attribute.String("profit", tri.Profit.String()), attribute.String("rate", tri.Rate))
	}
	p.metrics.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	return tri, err
}

func (p *Planner) plan(ctx context.Context, cycle *domain.Cycle, snapshot *domain.BalanceSnapshot) (*domain.TradeTriangle, error) {
	base := cycle.BaseAsset()
	bal, ok := snapshot.Get(base)
	if !ok || !bal.Free.IsPositive() {
		return nil, apperror.New(apperror.CodeMissingBalance, apperror.WithContext(base.String()))
	}

	markets, err := p.markets.Markets(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMarketsFetchFailed, p.exchange.String())
	}
	market, ok := markets[cycle.A.Pair]
	if !ok {
		return nil, apperror.New(apperror.CodeMissingMarket, apperror.WithContext(cycle.A.Pair.String()))
	}

	minTrade := domain.MinTradeAmount(cycle.A, market)
	p.logger.Debug(ctx, "minimum trade amount", "cycle", cycle.ID, "min", minTrade.String(), "asset", base.String())
	if cycle.A.Side == domain.SideSell && minTrade.IsPositive() && bal.Free.LessThanOrEqual(minTrade) {
		return nil, apperror.New(apperror.CodeBelowMinTradeAmount,
			apperror.WithContextf("free %s %s <= %s", bal.Free, base, minTrade))
	}

	amount, err := p.sizer.Size(cycle, bal.Free, minTrade)
	if err != nil {
		return nil, err
	}
	p.logger.Debug(ctx, "trade sized", "cycle", cycle.ID, "amount", amount.String())

	tri, err := p.simulator.Simulate(cycle, markets, amount)
	if err != nil {
		return nil, err
	}
	tri.Exchange = p.exchange
	return tri, nil
}
