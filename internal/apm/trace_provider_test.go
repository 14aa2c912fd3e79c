package apm

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceIDFromContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %q", got)
	}

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "scan")
	defer span.End()

	got := TraceIDFromContext(ctx)
	if got == "" || got != span.SpanContext().TraceID().String() {
		t.Fatalf("trace id = %q, want %q", got, span.SpanContext().TraceID())
	}
}

func TestNewTraceProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		wantErr  bool
	}{
		{name: "empty", provider: ""},
		{name: "none", provider: EmptyProvider},
		{name: "console", provider: ConsoleProvider},
		{name: "unknown", provider: "datadog", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTraceProvider(context.Background(), TracerOptions{Provider: tt.provider, ServiceName: "test"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if err := tp.Stop(); err != nil {
					t.Fatalf("Stop: %v", err)
				}
			}
		})
	}
}
