package ingestors

import (
	"usage-ingestion/internal/shared/metrics"
)

const (
	labelResult = "result"

	resultAccepted = "accepted"
	resultRejected = "rejected"
)

var (
	metricReportIngestedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "report_ingested_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	metricOperationsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "operations_total",
		},
		[]string{labelResult},
	)

	metricPayloadBytes = metrics.NewHistogram(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "payload_bytes",
			Buckets:   metrics.ExponentialBuckets(256, 4, 9),
		},
	)
)
