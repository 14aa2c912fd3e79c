// Package coingecko values assets in fiat through the CoinGecko simple price API.
package coingecko

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/cache"
	"github.com/fd1az/triangular-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/triangular-arbitrage/internal/httpclient"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

const (
	tracerName = "github.com/fd1az/triangular-arbitrage/business/exchange/infra/coingecko"
	meterName  = "github.com/fd1az/triangular-arbitrage/business/exchange/infra/coingecko"

	BaseAPIURL = "https://api.coingecko.com/api/v3"

	simplePricePath = "/simple/price"
	apiKeyHeader    = "x-cg-demo-api-key"
)

// ProviderConfig configures the reference price provider.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	// Currency is the fiat unit, "usd" by default.
	Currency string
	CacheTTL time.Duration
	// MissingTTL is how long an asset CoinGecko has no price for is not asked again.
	MissingTTL time.Duration
	Timeout    time.Duration
}

// DefaultProviderConfig returns public API defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		BaseURL:    BaseAPIURL,
		Currency:   "usd",
		CacheTTL:   10 * time.Minute,
		MissingTTL: 2 * time.Minute,
		Timeout:    5 * time.Second,
	}
}

type providerMetrics struct {
	lookups     metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// Provider answers ReferencePrice("BTC/USD") from a TTL cache backed by CoinGecko.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface
	client httpclient.Client

	prices *cache.Cache[asset.Symbol, decimal.Decimal]
	cb     *circuitbreaker.CircuitBreaker[decimal.Decimal]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Provider.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	def := DefaultProviderConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.MissingTTL <= 0 {
		cfg.MissingTTL = def.MissingTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	tracer := otel.Tracer(tracerName)
	headers := map[string]string{"Accept": "application/json"}
	if cfg.APIKey != "" {
		headers[apiKeyHeader] = cfg.APIKey
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coingecko"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breaker := circuitbreaker.DefaultConfig("coingecko")
	breaker.IsSuccessful = func(err error) bool {
		return !unhealthy(err)
	}
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
	}

	p := &Provider{
		config: cfg,
		logger: log,
		client: client,
		prices: cache.New[asset.Symbol, decimal.Decimal](cfg.CacheTTL),
		cb:     circuitbreaker.New[decimal.Decimal](breaker),
		tracer: tracer,
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	p.metrics = &providerMetrics{}
	var err error

	if p.metrics.lookups, err = meter.Int64Counter("reference_price_lookups_total",
		metric.WithDescription("Reference price requests by outcome"),
	); err != nil {
		return err
	}
	if p.metrics.cacheHits, err = meter.Int64Counter("reference_price_cache_hits_total",
		metric.WithDescription("Reference prices served from cache"),
	); err != nil {
		return err
	}
	if p.metrics.cacheMisses, err = meter.Int64Counter("reference_price_cache_misses_total",
		metric.WithDescription("Reference prices fetched from CoinGecko"),
	); err != nil {
		return err
	}
	return nil
}

// ReferencePrice returns the fiat price of the base of pair ("BTC/USD"). The
// quote must be the configured currency; an asset priced in itself is 1.
func (p *Provider) ReferencePrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.reference_price",
		trace.WithAttributes(attribute.String("pair", pair)),
	)
	defer span.End()

	price, err := p.referencePrice(ctx, pair)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference price failed")
	}
	p.metrics.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	return price, err
}

func (p *Provider) referencePrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	pr, err := asset.ParsePair(pair)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput, apperror.WithContext(pair), apperror.WithCause(err))
	}
	if !strings.EqualFold(pr.Quote.String(), p.config.Currency) {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContextf("%s: quote must be %s", pair, strings.ToUpper(p.config.Currency)))
	}
	if pr.Base == pr.Quote {
		return decimal.NewFromInt(1), nil
	}

	if v, ok := p.prices.Get(ctx, pr.Base); ok {
		p.metrics.cacheHits.Add(ctx, 1)
		if v.IsZero() {
			return decimal.Zero, p.noPrice(pr.Base)
		}
		return v, nil
	}
	p.metrics.cacheMisses.Add(ctx, 1)

	v, err := p.cb.Execute(func() (decimal.Decimal, error) {
		return p.fetch(ctx, pr.Base)
	})
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeReferencePriceFailed, pr.Base.String())
	}
	if v.IsZero() {
		// Remembered as zero so unlisted assets are not requested every scan.
		p.prices.Set(ctx, pr.Base, decimal.Zero, p.config.MissingTTL)
		return decimal.Zero, p.noPrice(pr.Base)
	}
	p.prices.Set(ctx, pr.Base, v, p.config.CacheTTL)
	return v, nil
}

func (p *Provider) noPrice(sym asset.Symbol) error {
	return apperror.New(apperror.CodeReferencePriceFailed,
		apperror.WithContextf("no %s price for %s", p.config.Currency, sym))
}

// simplePriceResponse maps a lowercased symbol to currency → price.
type simplePriceResponse map[string]map[string]decimal.Decimal

// fetch returns zero with a nil error when CoinGecko answers without a price
// for sym, so the breaker only sees failures of the service itself.
func (p *Provider) fetch(ctx context.Context, sym asset.Symbol) (decimal.Decimal, error) {
	key := strings.ToLower(sym.String())

	var body simplePriceResponse
	_, err := p.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "simple_price")),
	).
		SetQueryParam("symbols", key).
		SetQueryParam("vs_currencies", p.config.Currency).
		SetResult(&body).
		Get(ctx, simplePricePath)
	if err != nil {
		return decimal.Zero, err
	}

	v, ok := body[key][p.config.Currency]
	if !ok || !v.IsPositive() {
		return decimal.Zero, nil
	}
	return v, nil
}

// unhealthy reports errors that say CoinGecko itself is failing.
func unhealthy(err error) bool {
	if err == nil {
		return false
	}
	for _, code := range []apperror.Code{
		apperror.CodeServiceTimeout,
		apperror.CodeServiceUnavailable,
		apperror.CodeRateLimitExceeded,
		apperror.CodeExternalServiceError,
		apperror.CodeInvalidFormat,
	} {
		if apperror.HasCode(err, code) {
			return true
		}
	}
	return false
}

// Close stops the cache janitor.
func (p *Provider) Close() {
	p.prices.Close()
}
