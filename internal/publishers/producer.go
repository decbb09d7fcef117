package publishers

import (
	"context"
)

const (
	HeaderContentEncoding = "content-encoding"
	HeaderBatchID         = "batch-id"
	HeaderReports         = "reports"
	HeaderOperations      = "operations"
)

// Message is one published batch.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

// Producer delivers messages to a sink. Connect may be called again after Close.
//
//go:generate mockgen -source=producer.go -destination=./mocks/producer_mock.go -package=mocks
type Producer interface {
	Connect(ctx context.Context) error
	Produce(ctx context.Context, msg Message) error
	Close()
}
