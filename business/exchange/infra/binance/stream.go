package binance

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/wsconn"
)

// TickerSource is consulted when the stream has no fresh data.
type TickerSource interface {
	Tickers(ctx context.Context) ([]arbdomain.Ticker, error)
}

// StreamConfig configures the all-market ticker stream.
type StreamConfig struct {
	// BaseURL is the stream host, e.g. wss://stream.binance.com:9443.
	BaseURL string
	// StaleAfter is how old the last batch may be before Tickers uses the fallback.
	StaleAfter time.Duration
}

type streamMetrics struct {
	batches     metric.Int64Counter
	parseErrors metric.Int64Counter
	fallbacks   metric.Int64Counter
}

// Stream keeps the latest best bid/ask of every registered symbol from
// !ticker@arr and fires a scan trigger per batch.
type Stream struct {
	config   StreamConfig
	logger   logger.LoggerInterface
	conn     *wsconn.Client
	symbols  *asset.Registry
	fallback TickerSource

	mu      sync.RWMutex
	tickers map[asset.Pair]arbdomain.Ticker
	last    time.Time

	triggers chan struct{}
	metrics  *streamMetrics
	now      func() time.Time
}

// NewStream creates a disconnected stream. Events for symbols missing from
// symbols are ignored, so markets must be loaded first. fallback may be nil.
func NewStream(cfg StreamConfig, symbols *asset.Registry, fallback TickerSource, log logger.LoggerInterface) (*Stream, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseStreamURL
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Second
	}

	conn, err := wsconn.New(wsconn.DefaultConfig(streamURL(cfg.BaseURL), "binance-tickers"))
	if err != nil {
		return nil, err
	}

	s := &Stream{
		config:   cfg,
		logger:   log,
		conn:     conn,
		symbols:  symbols,
		fallback: fallback,
		tickers:  make(map[asset.Pair]arbdomain.Ticker),
		triggers: make(chan struct{}, 1),
		now:      time.Now,
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	conn.OnMessage(s.handleMessage)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "binance ticker stream state", "state", string(state), "error", err)
			return
		}
		log.Info(context.Background(), "binance ticker stream state", "state", string(state))
	})
	return s, nil
}

func (s *Stream) initMetrics() error {
	meter := otel.Meter(meterName)
	s.metrics = &streamMetrics{}
	var err error

	if s.metrics.batches, err = meter.Int64Counter("binance_ticker_batches_total",
		metric.WithDescription("Ticker arrays received from the stream"),
	); err != nil {
		return err
	}
	if s.metrics.parseErrors, err = meter.Int64Counter("binance_ticker_parse_errors_total",
		metric.WithDescription("Stream frames that could not be decoded"),
	); err != nil {
		return err
	}
	if s.metrics.fallbacks, err = meter.Int64Counter("binance_ticker_fallbacks_total",
		metric.WithDescription("Ticker reads served by REST because the stream was stale"),
	); err != nil {
		return err
	}
	return nil
}

// Connect dials with backoff; reconnection afterwards is automatic.
func (s *Stream) Connect(ctx context.Context) error {
	return s.conn.ConnectWithRetry(ctx)
}

// Close stops the stream.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// LastUpdate returns when the last batch was applied, zero if none.
func (s *Stream) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Triggers returns a channel that receives once per applied batch. Batches
// arriving while a value is pending are coalesced.
func (s *Stream) Triggers(context.Context) (<-chan struct{}, error) {
	return s.triggers, nil
}

// Tickers returns the cached tickers sorted by pair, or the fallback's when
// the stream is stale.
func (s *Stream) Tickers(ctx context.Context) ([]arbdomain.Ticker, error) {
	s.mu.RLock()
	fresh := !s.last.IsZero() && s.now().Sub(s.last) <= s.config.StaleAfter
	out := make([]arbdomain.Ticker, 0, len(s.tickers))
	if fresh {
		for _, t := range s.tickers {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	if !fresh {
		if s.fallback == nil {
			return nil, apperror.New(apperror.CodeTickersFetchFailed, apperror.WithContext("ticker stream has no fresh data"))
		}
		s.metrics.fallbacks.Add(ctx, 1)
		return s.fallback.Tickers(ctx)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Pair.String() < out[j].Pair.String()
	})
	return out, nil
}

func (s *Stream) handleMessage(ctx context.Context, msg []byte) {
	var events []TickerEvent
	if err := json.Unmarshal(msg, &events); err != nil {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "ignoring non-ticker frame", "error", err)
		return
	}
	if s.apply(events) > 0 {
		s.metrics.batches.Add(ctx, 1)
		select {
		case s.triggers <- struct{}{}:
		default:
		}
	}
}

func (s *Stream) apply(events []TickerEvent) int {
	now := s.now()
	applied := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range events {
		ev := &events[i]
		if ev.EventType != EventType24hrTicker {
			continue
		}
		pair, ok := s.symbols.Pair(ev.Symbol)
		if !ok {
			continue
		}
		bid, bidQty, ask, askQty, err := ev.Quote()
		if err != nil {
			continue
		}
		s.tickers[pair] = arbdomain.Ticker{
			Pair:      pair,
			Bid:       bid,
			BidSize:   bidQty,
			Ask:       ask,
			AskSize:   askQty,
			Timestamp: ev.Timestamp(),
		}
		applied++
	}
	if applied > 0 {
		s.last = now
	}
	return applied
}
