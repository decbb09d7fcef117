package publishers

import (
	"usage-ingestion/internal/shared/metrics"
)

const (
	outcomeOK        = "ok"
	outcomeFailed    = "failed"
	outcomeExhausted = "exhausted"
)

var (
	metricPublishedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubPublisher,
			Name:      "batches_total",
		},
		[]string{metrics.FieldOutcome},
	)

	metricPublishLatency = metrics.NewHistogram(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubPublisher,
			Name:      "produce_duration_seconds",
			Buckets:   metrics.DefBuckets,
		},
	)

	metricReconnectTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubPublisher,
			Name:      "reconnect_total",
		},
		[]string{metrics.FieldOutcome},
	)

	metricProducerReady = metrics.NewGauge(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubPublisher,
			Name:      "producer_ready",
		},
	)
)
