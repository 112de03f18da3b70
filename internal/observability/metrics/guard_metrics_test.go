package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGuardMetricsCountDecisions(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newGuardMetrics(registry, Config{ServiceName: "multilang", Environment: "test"})

	m.ObserveAllow()
	m.ObserveAllow()
	m.ObserveDeny("no_permission")
	m.ObserveQuotaDeny("branches")

	allow := testutil.ToFloat64(m.decisions.WithLabelValues("allow", ""))
	if allow != 2 {
		t.Fatalf("expected 2 allows, got %v", allow)
	}
	deny := testutil.ToFloat64(m.decisions.WithLabelValues("deny", "no_permission"))
	if deny != 1 {
		t.Fatalf("expected 1 deny, got %v", deny)
	}
	quota := testutil.ToFloat64(m.quotaDenies.WithLabelValues("branches"))
	if quota != 1 {
		t.Fatalf("expected 1 quota deny, got %v", quota)
	}
}

func TestGuardMetricsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newGuardMetrics(registry, Config{})
	second := newGuardMetrics(registry, Config{})

	first.ObserveDeny("quota_exceeded")
	second.ObserveDeny("quota_exceeded")

	count := testutil.ToFloat64(first.decisions.WithLabelValues("deny", "quota_exceeded"))
	if count != 2 {
		t.Fatalf("expected shared counter at 2, got %v", count)
	}
}

func TestGuardMetricsNilReceiverIsSafe(t *testing.T) {
	var m *GuardMetrics
	m.ObserveAllow()
	m.ObserveDeny("no_permission")
	m.ObserveQuotaDeny("staff")
}
