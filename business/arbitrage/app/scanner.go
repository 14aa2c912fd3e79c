package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/health"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// ScannerConfig controls the scan loop.
type ScannerConfig struct {
	Exchange     domain.ExchangeID
	PublishRanks bool
	// AllowOverlap lets a trigger start a scan while another is running.
	AllowOverlap bool
	// ReportTop is how many candidates and ranks are logged per scan.
	ReportTop int
}

// ScannerDeps are the collaborators of a Scanner. Ranks and Orders may be nil.
type ScannerDeps struct {
	Balances   BalanceSource
	Candidates CandidateSource
	Ranker     *Ranker
	Planner    *Planner
	Trigger    Trigger
	Ranks      RankSink
	Orders     OrderSink
	Heartbeat  *health.Heartbeat
}

// Scanner runs one scan per trigger: snapshot balances, rank candidates, plan
// the best rank and hand a profitable plan to the order sink.
type Scanner struct {
	cfg    ScannerConfig
	deps   ScannerDeps
	logger logger.LoggerInterface
	now    func() time.Time

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	tracer  trace.Tracer
	metrics *arbitrageMetrics
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig, deps ScannerDeps, log logger.LoggerInterface) (*Scanner, error) {
	if deps.Heartbeat == nil {
		deps.Heartbeat = &health.Heartbeat{}
	}
	m, err := newArbitrageMetrics()
	if err != nil {
		return nil, err
	}
	return &Scanner{
		cfg:     cfg,
		deps:    deps,
		logger:  log,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
		metrics: m,
	}, nil
}

// Heartbeat is stamped after every scan that completes without error.
func (s *Scanner) Heartbeat() *health.Heartbeat {
	return s.deps.Heartbeat
}

// Start subscribes to the trigger and scans in the background until Stop.
func (s *Scanner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	triggers, err := s.deps.Trigger.Triggers(ctx)
	if err != nil {
		cancel()
		return err
	}
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx, triggers)

	s.logger.Info(ctx, "scanner started", "exchange", s.cfg.Exchange.String(), "allow_overlap", s.cfg.AllowOverlap)
	return nil
}

// Stop cancels the loop and waits for running scans.
func (s *Scanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scanner) run(ctx context.Context, triggers <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-triggers:
			if !ok {
				s.logger.Warn(ctx, "scan trigger closed")
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.runScan(ctx)
			}()
		}
	}
}

func (s *Scanner) runScan(ctx context.Context) {
	err := s.Scan(ctx)
	switch {
	case err == nil:
	case apperror.HasCode(err, apperror.CodeScanInProgress):
		s.metrics.overlaps.Add(ctx, 1)
		s.logger.Debug(ctx, "scan skipped, previous scan still running")
	case ctx.Err() != nil:
	default:
		s.metrics.scanErrors.Add(ctx, 1)
		s.logger.Error(ctx, "scan failed", "error", err)
	}
}

// Scan performs one pass. Panics are recovered and returned as SCAN_FAILED.
func (s *Scanner) Scan(ctx context.Context) (err error) {
	if !s.cfg.AllowOverlap {
		if !s.running.CompareAndSwap(false, true) {
			return apperror.New(apperror.CodeScanInProgress)
		}
		defer s.running.Store(false)
	}

	scanID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan",
		trace.WithAttributes(
			attribute.String("exchange", s.cfg.Exchange.String()),
			attribute.String("scan_id", scanID),
		),
	)
	defer span.End()

	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			err = apperror.New(apperror.CodeScanFailed, apperror.WithContextf("panic: %v", r))
		}
		s.metrics.scanTime.Record(ctx, s.now().Sub(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return
		}
		s.metrics.scans.Add(ctx, 1)
		s.deps.Heartbeat.Beat(s.now())
	}()

	return s.scan(ctx, scanID)
}

func (s *Scanner) scan(ctx context.Context, scanID string) error {
	snapshot, err := s.deps.Balances.FetchBalance(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeBalanceFetchFailed, s.cfg.Exchange.String())
	}
	s.logger.Debug(ctx, "balances fetched",
		"scan_id", scanID, "assets", snapshot.Len(), "fetched_at", snapshot.FetchedAt())

	cycles, err := s.deps.Candidates.Candidates(ctx)
	if err != nil {
		return err
	}
	s.metrics.candidates.Add(ctx, int64(len(cycles)))
	s.reportCandidates(ctx, scanID, cycles)

	ranks := s.deps.Ranker.Rank(ctx, s.cfg.Exchange, snapshot, cycles)
	s.reportRanks(ctx, scanID, ranks)

	if s.cfg.PublishRanks && s.deps.Ranks != nil {
		s.deps.Ranks.UpdateRanks(ctx, s.cfg.Exchange, ranks)
	}
	if len(ranks) == 0 {
		return nil
	}

	best := ranks[0].Cycle
	plan, err := s.deps.Planner.Plan(ctx, best, snapshot)
	if err != nil {
		s.logger.Info(ctx, "best cycle not tradable", "scan_id", scanID, "cycle", best.ID, "error", err)
		return nil
	}
	if !plan.Profitable {
		s.logger.Info(ctx, "best cycle unprofitable after precision and fees",
			"scan_id", scanID, "cycle", best.ID, "before", plan.Before.String(), "after", plan.After.String())
		return nil
	}

	s.logger.Info(ctx, "profitable plan",
		"scan_id", scanID,
		"cycle", best.ID,
		"coin", plan.Coin.String(),
		"before", plan.Before.String(),
		"after", plan.After.String(),
		"profit", plan.Profit.String(),
		"rate", plan.Rate,
	)
	if s.deps.Orders != nil {
		s.deps.Orders.PlaceOrder(ctx, s.cfg.Exchange, best, plan)
	}
	return nil
}

func (s *Scanner) reportCandidates(ctx context.Context, scanID string, cycles []*domain.Cycle) {
	for i, c := range cycles {
		if i >= s.cfg.ReportTop {
			break
		}
		s.logger.Info(ctx, "candidate", "scan_id", scanID, "pos", i, "cycle", c.ID, "path", c.Path(), "rate", c.Rate.String())
	}
}

func (s *Scanner) reportRanks(ctx context.Context, scanID string, ranks []domain.Rank) {
	for i, r := range ranks {
		if i >= s.cfg.ReportTop {
			break
		}
		s.logger.Info(ctx, "rank",
			"scan_id", scanID,
			"pos", i,
			"cycle", r.Cycle.ID,
			"rate", r.Rate.String(),
			"profit_rate", r.BestProfitRate().String(),
			"min_notional", r.Cycle.MinNotional.String(),
		)
	}
}
