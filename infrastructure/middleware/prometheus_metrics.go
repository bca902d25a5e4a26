// Package middleware provides cross-cutting concerns for the recompute
// service: Prometheus metrics and OpenTelemetry tracing.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-brine/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes recompute latency and outcomes, the distribution
// of published overall scores and the result of the latest batch.
type PrometheusMetrics struct {
	recomputeLatency *prometheus.HistogramVec
	recomputations   *prometheus.CounterVec
	overallScore     prometheus.Histogram
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
	valueHistograms  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collector and registers its metrics on
// reg. A nil reg registers on the global default registry. namespace
// prefixes every metric name and may be empty.
//
// Registration is all or nothing: when any metric is rejected, for example
// because another collector already registered it on reg, the metrics
// registered so far are removed again and a *ports.MetricsError naming the
// rejected metric is returned.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMetrics{
		recomputeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Time to load, aggregate and persist one oyster.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		recomputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recomputations_total",
				Help:      "Oyster recomputations by outcome.",
			},
			[]string{"status"},
		),
		overallScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "published_overall_score",
				Help:      "Distribution of published overall scores.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters recorded under names without a dedicated metric.",
			},
			[]string{"metric", "status"},
		),
		systemGauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Current values such as the outcome of the latest batch.",
			},
			[]string{"metric"},
		),
		valueHistograms: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observed_values",
				Help:      "Histogram values recorded under names without a dedicated metric.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
	}

	collectors := []struct {
		name string
		c    prometheus.Collector
	}{
		{"recompute_duration_seconds", pm.recomputeLatency},
		{"recomputations_total", pm.recomputations},
		{"published_overall_score", pm.overallScore},
		{"operations_total", pm.operationCounter},
		{"system_state", pm.systemGauges},
		{"observed_values", pm.valueHistograms},
	}
	for i, col := range collectors {
		if err := reg.Register(col.c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done.c)
			}
			return nil, ports.NewMetricsError(prometheus.BuildFQName(namespace, "", col.name), "Register", err)
		}
	}

	return pm, nil
}

// RecordLatency implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.recomputeLatency.WithLabelValues(operation, statusOf(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricRecomputations:
		pm.recomputations.WithLabelValues(statusOf(labels)).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, statusOf(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, _ map[string]string,
) {
	switch metric {
	case ports.MetricOverallScore:
		pm.overallScore.Observe(value)
	default:
		pm.valueHistograms.WithLabelValues(metric).Observe(value)
	}
}

func statusOf(labels map[string]string) string {
	if s := labels["status"]; s != "" {
		return s
	}
	return "unknown"
}
