package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	tracerName = "github.com/fd1az/triangular-arbitrage/business/trading/app"
	meterName  = "github.com/fd1az/triangular-arbitrage/business/trading/app"
)

type tradingMetrics struct {
	orders  metric.Int64Counter
	retries metric.Int64Counter
	dropped metric.Int64Counter
	plans   metric.Int64Counter
}

func newTradingMetrics() (*tradingMetrics, error) {
	meter := otel.Meter(meterName)
	m := &tradingMetrics{}
	var err error

	if m.orders, err = meter.Int64Counter("trading_orders_total",
		metric.WithDescription("Orders submitted, by outcome"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, err
	}
	if m.retries, err = meter.Int64Counter("trading_balance_retries_total",
		metric.WithDescription("Balance checks that came up short and waited"),
		metric.WithUnit("{retry}"),
	); err != nil {
		return nil, err
	}
	if m.dropped, err = meter.Int64Counter("trading_plans_dropped_total",
		metric.WithDescription("Plans dropped before execution, by reason"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return nil, err
	}
	if m.plans, err = meter.Int64Counter("trading_plans_executed_total",
		metric.WithDescription("Plans taken off the queue, by result"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}
