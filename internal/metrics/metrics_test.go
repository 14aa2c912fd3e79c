package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetricProvider_PrometheusRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	mp, err := NewMetricProvider(
		WithServiceName("triarb-test"),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
		WithRegisterer(reg),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("scans_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "scans_total") {
			found = true
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 3 {
				t.Errorf("scans_total = %v, want 3", v)
			}
		}
	}
	if !found {
		t.Fatal("scans_total not exported")
	}
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := NewMetricProvider(WithProviderConfig(ProviderCfg{Provider: "bogus"}))
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
