package buffers

import (
	"usage-ingestion/internal/shared/metrics"
)

const (
	outcomeOK          = "ok"
	outcomeTooBig      = "too_big"
	outcomeDropped     = "dropped"
	outcomeFailed      = "failed"
	outcomeUnvalidated = "unvalidated"

	labelRetry = "retry"
)

var (
	metricFlushTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "flush_total",
		},
		[]string{metrics.FieldOutcome, labelRetry},
	)

	metricPreSplitTotal = metrics.NewCounter(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "oversized_item_split_total",
		},
	)

	metricFlushUnits = metrics.NewHistogram(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "flush_units",
			Buckets:   metrics.ExponentialBuckets(1, 2, 14),
		},
	)

	metricFlushBytes = metrics.NewHistogram(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "flush_bytes",
			Buckets:   metrics.ExponentialBuckets(1024, 2, 12),
		},
	)

	metricEstimatorDefaultBytesPerUnit = metrics.NewGauge(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "estimator_default_bytes_per_unit",
		},
	)
)

func retryLabel(isRetry bool) string {
	if isRetry {
		return "true"
	}
	return "false"
}
