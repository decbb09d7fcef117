package models

// Report is one ingestion unit: a deduplicated operation map plus the
// executions that reference it. Size counts operations and subscription
// operations, not bytes.
type Report struct {
	ID                     string                        `json:"id"`
	Target                 string                        `json:"target"`
	Size                   int                           `json:"size"`
	Map                    map[string]OperationMapRecord `json:"map"`
	Operations             []RawOperation                `json:"operations,omitempty"`
	SubscriptionOperations []RawSubscriptionOperation    `json:"subscriptionOperations,omitempty"`
}

type OperationMapRecord struct {
	Operation     string   `json:"operation"`
	OperationName string   `json:"operationName,omitempty"`
	Fields        []string `json:"fields"`
}

type RawOperation struct {
	OperationMapKey string             `json:"operationMapKey"`
	Timestamp       int64              `json:"timestamp"` // unix millis
	ExpiresAt       int64              `json:"expiresAt,omitempty"`
	Execution       Execution          `json:"execution"`
	Metadata        *OperationMetadata `json:"metadata,omitempty"`
}

type RawSubscriptionOperation struct {
	OperationMapKey string             `json:"operationMapKey"`
	Timestamp       int64              `json:"timestamp"`
	ExpiresAt       int64              `json:"expiresAt,omitempty"`
	Metadata        *OperationMetadata `json:"metadata,omitempty"`
}

type Execution struct {
	Ok          bool  `json:"ok"`
	Duration    int64 `json:"duration"` // nanoseconds
	ErrorsTotal int64 `json:"errorsTotal"`
}

type OperationMetadata struct {
	Client *ClientInfo `json:"client,omitempty"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewReport returns an empty report with an initialized map.
func NewReport(id, target string) *Report {
	return &Report{
		ID:     id,
		Target: target,
		Map:    make(map[string]OperationMapRecord),
	}
}

// RecomputeSize sets Size from the operation slices and returns it.
func (r *Report) RecomputeSize() int {
	r.Size = len(r.Operations) + len(r.SubscriptionOperations)
	return r.Size
}
