package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	tracerName = "github.com/fd1az/triangular-arbitrage/business/arbitrage/app"
	meterName  = "github.com/fd1az/triangular-arbitrage/business/arbitrage/app"
)

// Skip reasons recorded on arbitrage_cycles_skipped_total.
const (
	skipNonPositiveRate = "non_positive_rate"
	skipNoBalance       = "no_balance"
	skipBelowMinRate    = "below_min_rate"
	skipBlacklisted     = "blacklisted"
	skipNotEvaluable    = "not_evaluable"
	skipRefillFailed    = "refill_failed"
	skipBelowNotional   = "below_min_notional"
)

type arbitrageMetrics struct {
	scans      metric.Int64Counter
	scanErrors metric.Int64Counter
	overlaps   metric.Int64Counter
	candidates metric.Int64Counter
	ranks      metric.Int64Counter
	skips      metric.Int64Counter
	plans      metric.Int64Counter
	scanTime   metric.Float64Histogram
}

func newArbitrageMetrics() (*arbitrageMetrics, error) {
	meter := otel.Meter(meterName)
	m := &arbitrageMetrics{}
	var err error

	if m.scans, err = meter.Int64Counter("arbitrage_scans_total",
		metric.WithDescription("Completed scans"),
		metric.WithUnit("{scan}"),
	); err != nil {
		return nil, err
	}
	if m.scanErrors, err = meter.Int64Counter("arbitrage_scan_errors_total",
		metric.WithDescription("Scans that ended with an error or panic"),
		metric.WithUnit("{scan}"),
	); err != nil {
		return nil, err
	}
	if m.overlaps, err = meter.Int64Counter("arbitrage_scan_overlaps_total",
		metric.WithDescription("Triggers skipped because a scan was running"),
		metric.WithUnit("{trigger}"),
	); err != nil {
		return nil, err
	}
	if m.candidates, err = meter.Int64Counter("arbitrage_candidates_total",
		metric.WithDescription("Candidate cycles evaluated"),
		metric.WithUnit("{cycle}"),
	); err != nil {
		return nil, err
	}
	if m.ranks, err = meter.Int64Counter("arbitrage_ranks_total",
		metric.WithDescription("Cycles that passed every ranking filter"),
		metric.WithUnit("{cycle}"),
	); err != nil {
		return nil, err
	}
	if m.skips, err = meter.Int64Counter("arbitrage_cycles_skipped_total",
		metric.WithDescription("Cycles dropped by the ranker, by reason"),
		metric.WithUnit("{cycle}"),
	); err != nil {
		return nil, err
	}
	if m.plans, err = meter.Int64Counter("arbitrage_plans_total",
		metric.WithDescription("Plans produced, by outcome"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return nil, err
	}
	if m.scanTime, err = meter.Float64Histogram("arbitrage_scan_duration_seconds",
		metric.WithDescription("Wall time of one scan"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return m, nil
}
