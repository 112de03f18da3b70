// Package metrics exposes prometheus instruments for the decision engine.
package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

// GuardMetrics captures allow/deny decisions made by the enforcement point.
type GuardMetrics struct {
	decisions   *prometheus.CounterVec
	quotaDenies *prometheus.CounterVec
}

var (
	guardMetricsOnce sync.Once
	guardMetrics     *GuardMetrics
)

// Guard returns the singleton guard metrics registry.
func Guard() *GuardMetrics {
	return GuardWithConfig(Config{})
}

// GuardWithConfig returns the singleton guard metrics registry using config labels.
func GuardWithConfig(cfg Config) *GuardMetrics {
	guardMetricsOnce.Do(func() {
		guardMetrics = newGuardMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return guardMetrics
}

// ResetGuardMetricsForTest resets the guard metrics singleton for tests.
func ResetGuardMetricsForTest() {
	guardMetricsOnce = sync.Once{}
	guardMetrics = nil
}

func newGuardMetrics(registerer prometheus.Registerer, cfg Config) *GuardMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "multilang"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "multilang_guard_decisions_total",
		Help:        "Guard decisions by outcome and deny reason.",
		ConstLabels: constLabels,
	}, []string{"outcome", "reason"})

	quotaDenies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "multilang_guard_quota_denies_total",
		Help:        "Quota denials by resource kind.",
		ConstLabels: constLabels,
	}, []string{"kind"})

	decisions = registerCounterVec(registerer, decisions)
	quotaDenies = registerCounterVec(registerer, quotaDenies)

	return &GuardMetrics{
		decisions:   decisions,
		quotaDenies: quotaDenies,
	}
}

func registerCounterVec(registerer prometheus.Registerer, vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

// ObserveAllow records an allowed decision.
func (m *GuardMetrics) ObserveAllow() {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues("allow", "").Inc()
}

// ObserveDeny records a denied decision with its reason.
func (m *GuardMetrics) ObserveDeny(reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues("deny", reason).Inc()
}

// ObserveQuotaDeny records a quota denial for a resource kind.
func (m *GuardMetrics) ObserveQuotaDeny(kind string) {
	if m == nil {
		return
	}
	m.quotaDenies.WithLabelValues(kind).Inc()
}
