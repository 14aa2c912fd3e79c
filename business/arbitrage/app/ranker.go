package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// RankerConfig holds the ranking thresholds.
type RankerConfig struct {
	// MinRateProfit is the minimum fee-adjusted rate, in percent.
	MinRateProfit decimal.Decimal
	// MinNotional is the minimum per-edge value in the reference currency.
	MinNotional decimal.Decimal
	Profiles    domain.Profiles
	// Currency is the reference fiat unit, "USD" by default.
	Currency string
}

// Ranker filters candidate cycles and scores the survivors.
type Ranker struct {
	cfg      RankerConfig
	refiller *Refiller
	pricer   ReferencePricer
	logger   logger.LoggerInterface
	now      func() time.Time

	tracer  trace.Tracer
	metrics *arbitrageMetrics
}

// NewRanker creates a Ranker.
func NewRanker(cfg RankerConfig, refiller *Refiller, pricer ReferencePricer, log logger.LoggerInterface) (*Ranker, error) {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	m, err := newArbitrageMetrics()
	if err != nil {
		return nil, err
	}
	return &Ranker{
		cfg:      cfg,
		refiller: refiller,
		pricer:   pricer,
		logger:   log,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
		metrics:  m,
	}, nil
}

// Rank evaluates cycles in the order received and returns a Rank for each one
// that passes every filter. Cycles are enriched in place with quantities and
// notional values. The output keeps the input order, so callers that use the
// first rank as the best must sort cycles by rate, descending.
func (r *Ranker) Rank(ctx context.Context, exchange domain.ExchangeID, snapshot *domain.BalanceSnapshot, cycles []*domain.Cycle) []domain.Rank {
	ctx, span := r.tracer.Start(ctx, "arbitrage.rank",
		trace.WithAttributes(
			attribute.String("exchange", exchange.String()),
			attribute.Int("candidates", len(cycles)),
		),
	)
	defer span.End()

	profile := r.cfg.Profiles.For(exchange)
	ranks := make([]domain.Rank, 0, len(cycles))

	for _, cycle := range cycles {
		rank, reason := r.evaluate(ctx, cycle, snapshot, profile)
		if reason != "" {
			r.metrics.skips.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
			r.logger.Debug(ctx, "cycle skipped", "cycle", cycle.ID, "rate", cycle.Rate.String(), "reason", reason)
			continue
		}
		ranks = append(ranks, rank)
	}

	r.metrics.ranks.Add(ctx, int64(len(ranks)))
	span.SetAttributes(attribute.Int("ranks", len(ranks)))
	return ranks
}

func (r *Ranker) evaluate(ctx context.Context, cycle *domain.Cycle, snapshot *domain.BalanceSnapshot, profile domain.Profile) (domain.Rank, string) {
	if !cycle.Rate.IsPositive() {
		return domain.Rank{}, skipNonPositiveRate
	}

	fees, profits := domain.ProfitRates(cycle.Rate, profile.Tiers())

	held := cycle.A.From
	if cycle.A.Side == domain.SideSell {
		held = cycle.A.To
	}
	if _, ok := snapshot.Get(held); !ok {
		return domain.Rank{}, skipNoBalance
	}

	if domain.BestOf(profits).LessThan(r.cfg.MinRateProfit) {
		return domain.Rank{}, skipBelowMinRate
	}

	for _, e := range cycle.Edges() {
		if profile.IsBlacklisted(e.From) {
			return domain.Rank{}, skipBlacklisted
		}
	}

	ok, err := r.refiller.Refill(ctx, cycle)
	if err != nil {
		r.logger.Info(ctx, "refill failed", "cycle", cycle.ID, "error", err)
		return domain.Rank{}, skipRefillFailed
	}
	if !ok {
		return domain.Rank{}, skipNotEvaluable
	}

	minNotional := decimal.Zero
	for i, e := range cycle.Edges() {
		e.Notional = r.referencePrice(ctx, e.QuoteAsset()).Mul(e.Quantity.Decimal).Mul(e.Price)
		if i == 0 || e.Notional.LessThan(minNotional) {
			minNotional = e.Notional
		}
	}
	cycle.MinNotional = minNotional
	if !minNotional.IsPositive() || minNotional.LessThan(r.cfg.MinNotional) {
		return domain.Rank{}, skipBelowNotional
	}

	return domain.Rank{
		Cycle:       cycle,
		StepA:       cycle.A.From,
		StepB:       cycle.B.From,
		StepC:       cycle.C.From,
		Rate:        cycle.Rate,
		Fees:        fees,
		ProfitRates: profits,
		Timestamp:   r.now(),
	}, ""
}

// referencePrice returns zero when the lookup fails.
func (r *Ranker) referencePrice(ctx context.Context, s asset.Symbol) decimal.Decimal {
	price, err := r.pricer.ReferencePrice(ctx, s.String()+"/"+r.cfg.Currency)
	if err != nil {
		r.logger.Debug(ctx, "reference price unavailable", "asset", s.String(), "error", err)
		return decimal.Zero
	}
	return price
}
