package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Operations == nil || m.HTTPRequests == nil || m.CommissionTotal == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.Operations.WithLabelValues("top_up", "success").Inc()
	m.CommissionTotal.Add(2)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.CommissionTotal); got != 2 {
		t.Fatalf("expected commission total 2, got %v", got)
	}
}

func TestNewIsolatedRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	_ = New(prometheus.NewRegistry())
	_ = New(prometheus.NewRegistry())
}
