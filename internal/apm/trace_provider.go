// Package apm configures OpenTelemetry tracing.
package apm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"
)

type Provider string

const (
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlphttp"
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "none"
)

// TraceProvider flushes and stops tracing.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyProvider struct{}

func (emptyProvider) Stop() error { return nil }

// TracerOptions selects the exporter.
type TracerOptions struct {
	Provider    Provider
	Endpoint    string
	Headers     map[string]string
	ServiceName string
	SampleRatio float64
}

func newExporter(ctx context.Context, o TracerOptions) (sdktrace.SpanExporter, error) {
	switch o.Provider {
	case OTLPProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(o.Endpoint),
			otlptracegrpc.WithHeaders(o.Headers),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(o.Endpoint),
			otlptracehttp.WithHeaders(o.Headers),
		)
	case ZipkinProvider:
		return zipkin.New(o.Endpoint)
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace provider %q", o.Provider)
	}
}

// NewTraceProvider installs a global tracer provider. EmptyProvider or an empty
// Provider leaves the no-op global in place.
func NewTraceProvider(ctx context.Context, o TracerOptions) (TraceProvider, error) {
	if o.Provider == "" || o.Provider == EmptyProvider {
		return emptyProvider{}, nil
	}

	exp, err := newExporter(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(o.ServiceName),
			attribute.String("otel.provider", string(o.Provider)),
		))
	if err != nil {
		rsrc = resource.Default()
	}

	sampler := sdktrace.AlwaysSample()
	if o.SampleRatio > 0 && o.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}

// TraceIDFromContext returns the active trace id, or "" outside a sampled span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
