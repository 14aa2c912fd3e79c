// Package httpclient is a small JSON-over-HTTP client with OTEL tracing and
// request metrics, used by the reference price provider.
package httpclient

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which bodies are attached to the request span.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientOptions struct {
	providerName string
	baseURL      string
	timeout      time.Duration
	headers      map[string]string
	tracer       trace.Tracer
	traceQuery   bool
	traceBody    bool
}

// ClientOption configures NewInstrumentedClient.
type ClientOption func(*clientOptions)

// WithProviderName labels metrics and spans, "default" otherwise.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) {
		o.providerName = name
	}
}

// WithBaseURL is prepended to relative request paths.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithRequestTimeout bounds every request, including reading the body.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHeaders are sent with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithTraceOptions sets the tracer and, per option, records the query string
// (TraceRequest) or the response body (TraceResponse) as span events.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(o *clientOptions) {
		o.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				o.traceQuery = true
			case TraceResponse:
				o.traceBody = true
			}
		}
	}
}

// ResponseErrorHandler turns a status and body into an error, or nil.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Label is an extra metric attribute of one request.
type Label struct {
	Key   string
	Value string
}

func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

type requestOptions struct {
	errorHandler ResponseErrorHandler
	labels       []*Label
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// WithResponseErrorHandler replaces DefaultErrorHandler for one request.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *requestOptions) {
		o.errorHandler = handler
	}
}

// WithLabels adds metric attributes to one request.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *requestOptions) {
		o.labels = append(o.labels, labels...)
	}
}
