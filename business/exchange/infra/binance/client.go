package binance

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/cache"
	"github.com/fd1az/triangular-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
	"github.com/fd1az/triangular-arbitrage/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/triangular-arbitrage/business/exchange/infra/binance"
	meterName  = "github.com/fd1az/triangular-arbitrage/business/exchange/infra/binance"

	BaseAPIURL    = "https://api.binance.com"
	BaseStreamURL = "wss://stream.binance.com:9443"

	defaultTimeout    = 10 * time.Second
	defaultMarketsTTL = time.Hour
	marketsKey        = "markets"
)

// Binance error codes that are not plain API rejections.
const (
	errCodeTooManyRequests = -1003
	errCodeTooManyOrders   = -1015
	errCodeBadSignature    = -1022
	errCodeBadAPIKey       = -2014
	errCodeRejectedAPIKey  = -2015
)

// ClientConfig holds credentials and endpoints of the REST client.
type ClientConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
	// WeightPerMinute is the request-weight budget shared by every call.
	WeightPerMinute int
	// QuoteAssets limits loaded markets to these quotes; empty loads all.
	QuoteAssets []string
	MarketsTTL  time.Duration
}

// DefaultClientConfig returns public-endpoint defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:         BaseAPIURL,
		Timeout:         defaultTimeout,
		WeightPerMinute: 1200,
		MarketsTTL:      defaultMarketsTTL,
	}
}

type clientMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	markets  metric.Int64Gauge
}

// Client is the Binance spot venue over REST.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface
	api    *binance.Client

	symbols *asset.Registry
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[any]

	markets   *cache.Cache[string, arbdomain.Markets]
	marketsMu sync.Mutex

	tracer  trace.Tracer
	metrics *clientMetrics
	now     func() time.Time
}

// NewClient creates a Client. symbols receives the exchange symbol of every loaded market.
func NewClient(cfg ClientConfig, symbols *asset.Registry, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MarketsTTL <= 0 {
		cfg.MarketsTTL = defaultMarketsTTL
	}
	if symbols == nil {
		symbols = asset.NewRegistry()
	}

	api := binance.NewClient(cfg.APIKey, cfg.APISecret)
	api.BaseURL = cfg.BaseURL
	api.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	breaker := circuitbreaker.DefaultConfig("binance")
	// Rejections such as an unknown order or insufficient funds say nothing about
	// the venue's health.
	breaker.IsSuccessful = func(err error) bool {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Code != errCodeTooManyRequests && apiErr.Code != errCodeTooManyOrders
		}
		return err == nil
	}
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
	}

	c := &Client{
		config:  cfg,
		logger:  log,
		api:     api,
		symbols: symbols,
		limiter: ratelimit.New(cfg.WeightPerMinute),
		markets: cache.New[string, arbdomain.Markets](cfg.MarketsTTL),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	c.cb = circuitbreaker.New[any](breaker)

	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	c.metrics = &clientMetrics{}
	var err error

	if c.metrics.requests, err = meter.Int64Counter("binance_rest_requests_total",
		metric.WithDescription("REST calls by endpoint and outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if c.metrics.latency, err = meter.Float64Histogram("binance_rest_request_duration_seconds",
		metric.WithDescription("REST call latency"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}
	if c.metrics.markets, err = meter.Int64Gauge("binance_markets_loaded",
		metric.WithDescription("Trading markets in the last exchange-info load"),
		metric.WithUnit("{market}"),
	); err != nil {
		return err
	}
	return nil
}

// ID returns the exchange id.
func (c *Client) ID() arbdomain.ExchangeID {
	return arbdomain.Binance
}

// Symbols returns the registry filled by market loading.
func (c *Client) Symbols() *asset.Registry {
	return c.symbols
}

// Ping checks that the REST API answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := call(ctx, c, "ping", apperror.CodeExchangeConnectionFailed, 1,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.api.NewPingService().Do(ctx)
		})
	return err
}

// Close releases the market cache.
func (c *Client) Close() {
	c.markets.Close()
}

// call runs one REST request: it spends request weight, goes through the
// breaker and maps failures onto code with the transport cause attached.
func call[T any](ctx context.Context, c *Client, endpoint string, code apperror.Code, weight int, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, span := c.tracer.Start(ctx, "binance."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("endpoint", endpoint), attribute.Int("weight", weight)),
	)
	defer span.End()

	if err := c.limiter.WaitWeight(ctx, weight); err != nil {
		return zero, apperror.New(code, apperror.WithContext(endpoint),
			apperror.WithCause(apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))))
	}

	start := c.now()
	res, err := c.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint), attribute.String("outcome", outcome))
	c.metrics.requests.Add(ctx, 1, attrs)
	c.metrics.latency.Record(ctx, c.now().Sub(start).Seconds(), attrs)

	if err != nil {
		err = apperror.New(code, apperror.WithContext(endpoint), apperror.WithCause(transportError(err)),
			apperror.WithRetryable(apperror.IsRetryable(transportError(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, endpoint+" failed")
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// transportError classifies a go-binance failure.
func transportError(err error) error {
	if apperror.IsAppError(err) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case errCodeTooManyRequests, errCodeTooManyOrders:
			return apperror.New(apperror.CodeExchangeRateLimited, apperror.WithContext(apiErr.Message), apperror.WithCause(err))
		case errCodeBadSignature, errCodeBadAPIKey, errCodeRejectedAPIKey:
			return apperror.New(apperror.CodeExchangeAuthFailed, apperror.WithContext(apiErr.Message), apperror.WithCause(err))
		}
		return apperror.New(apperror.CodeExchangeAPIError,
			apperror.WithContextf("%d: %s", apiErr.Code, apiErr.Message), apperror.WithCause(err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.New(apperror.CodeServiceTimeout, apperror.WithContext("binance"), apperror.WithCause(err))
	}
	return apperror.External(apperror.CodeExchangeConnectionFailed, "binance", err)
}

func (c *Client) exchangeSymbol(pair asset.Pair) string {
	if s, ok := c.symbols.Symbol(pair); ok {
		return s
	}
	return pair.Compact()
}
