package ports

import (
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or OpenTelemetry.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like recomputations and failures.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like batch size or progress.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like published scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// Metric names shared by the recompute service and collector
// implementations.
const (
	// OperationRecompute labels latency samples of a single recomputation.
	OperationRecompute = "recompute"

	// MetricRecomputations counts recomputations by "status" label.
	MetricRecomputations = "recomputations"

	// MetricOverallScore observes each published overall score.
	MetricOverallScore = "overall_score"

	// MetricBatchUpdated and MetricBatchFailed report the outcome of the
	// most recent batch run.
	MetricBatchUpdated = "batch_updated"
	MetricBatchFailed  = "batch_failed"
)
