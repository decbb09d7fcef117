package ids

import (
	"github.com/oklog/ulid/v2"
)

// NewRequestID generates an id for an inbound HTTP request.
var NewRequestID = func() string {
	return ulid.Make().String()
}

// NewReportID generates the id of a validated usage report.
var NewReportID = func() string {
	return ulid.Make().String()
}

// NewBatchID generates the id of a buffer flush. Batch ids double as broker message keys.
var NewBatchID = func() string {
	return ulid.Make().String()
}
