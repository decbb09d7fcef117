package reports

import (
	"usage-ingestion/internal/shared/metrics"
)

const (
	reasonOperationMapKeyNotFound = "operation_map_key_not_found"
	reasonInvalidOperationBody    = "invalid_operation_body"
	reasonSchemaValidationFailed  = "schema_validation_failed"

	kindOperation             = "operation"
	kindSubscriptionOperation = "subscription_operation"
	kindMapRecord             = "map_record"
)

var (
	metricRejectedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubValidation,
			Name:      "rejected_total",
		},
		[]string{metrics.FieldKind, metrics.FieldReason},
	)

	metricAcceptedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubValidation,
			Name:      "accepted_total",
		},
		[]string{metrics.FieldKind},
	)

	metricReportFormatTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubValidation,
			Name:      "report_format_total",
		},
		[]string{"format"},
	)

	metricOperationCacheTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubValidation,
			Name:      "operation_cache_total",
		},
		[]string{"result"},
	)
)
