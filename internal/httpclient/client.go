package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	meterName  = "github.com/fd1az/triangular-arbitrage/internal/httpclient"
	tracerName = meterName

	defaultTimeout     = 10 * time.Second
	maxConnsPerHost    = 4
	idleConnTimeout    = 90 * time.Second
	dialKeepAlive      = 30 * time.Second
	defaultProvider    = "default"
	traceBodyLimit     = 2048
	errorDetailLimit   = 256
	metricRequests     = "http_client_requests_total"
	metricRequestTimer = "http_client_request_duration_seconds"
)

// Client builds requests against one provider.
type Client interface {
	NewRequest() Request
	NewRequestWithOptions(opts ...RequestOption) Request
}

type instrumentedClient struct {
	http     *http.Client
	opts     clientOptions
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInstrumentedClient returns a Client whose transport is wrapped by otelhttp
// and whose requests are counted and timed per provider.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	o := clientOptions{providerName: defaultProvider, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.providerName == "" {
		o.providerName = defaultProvider
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     (&net.Dialer{KeepAlive: dialKeepAlive}).DialContext,
		MaxConnsPerHost: maxConnsPerHost,
		IdleConnTimeout: idleConnTimeout,
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	meter := otel.Meter(meterName)
	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Outbound HTTP requests by provider and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(metricRequestTimer,
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &instrumentedClient{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		opts:     o,
		tracer:   tracer,
		requests: requests,
		duration: duration,
	}, nil
}

func (c *instrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

func (c *instrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.errorHandler == nil {
		ro.errorHandler = DefaultErrorHandler
	}

	headers := make(http.Header, len(c.opts.headers))
	for k, v := range c.opts.headers {
		headers.Set(k, v)
	}
	return &request{client: c, opts: ro, headers: headers}
}
