package loggers

const (
	FieldApp        = "app"
	FieldComponent  = "component"
	FieldHttpMethod = "http_method"
	FieldHttpPath   = "http_path"
	FieldHttpStatus = "http_status"

	FieldDuration   = "duration"
	FieldRequestID  = "request_id"
	FieldErrorStack = "error_stack"
	FieldErrorCode  = "error_code"

	FieldReportID       = "report_id"
	FieldBatchID        = "batch_id"
	FieldTarget         = "target"
	FieldUnits          = "units"
	FieldEstimatedBytes = "estimated_bytes"
	FieldActualBytes    = "actual_bytes"
	FieldLimitBytes     = "limit_bytes"
	FieldAttempt        = "attempt"
)
