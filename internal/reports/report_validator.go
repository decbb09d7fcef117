package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"usage-ingestion/internal/models"
	"usage-ingestion/internal/shared/ids"
	"usage-ingestion/internal/shared/loggers"
	"usage-ingestion/internal/shared/validators"

	"github.com/goccy/go-json"
)

var (
	ErrEmptyReport     = errors.New("empty usage report")
	ErrMalformedReport = errors.New("malformed usage report")
)

// ValidationResult is the canonical report built from a payload together with
// how many operation records were kept and dropped.
type ValidationResult struct {
	Report   *models.Report
	Accepted int
	Rejected int
}

// ReportValidator turns an untrusted usage payload into a canonical report.
// Individually malformed records are dropped and counted; only a payload that
// cannot be decoded at all is an error.
//
//go:generate mockgen -source=report_validator.go -destination=./mocks/report_validator_mock.go -package=mocks
type ReportValidator interface {
	Validate(ctx context.Context, payload []byte, token models.TokenInfo, fallbackClient *models.ClientInfo) (*ValidationResult, error)
}

type reportValidator struct {
	validate *validators.Validate
	cache    *OperationCache
	now      func() time.Time
}

func NewReportValidator(cache *OperationCache) ReportValidator {
	return &reportValidator{
		validate: validators.New(),
		cache:    cache,
		now:      time.Now,
	}
}

type incomingReport struct {
	Size                   int                        `json:"size"`
	Map                    map[string]json.RawMessage `json:"map"`
	Operations             []json.RawMessage          `json:"operations"`
	SubscriptionOperations []json.RawMessage          `json:"subscriptionOperations"`
}

type incomingMapRecord struct {
	Operation     string   `json:"operation" validate:"required"`
	OperationName string   `json:"operationName"`
	Fields        []string `json:"fields" validate:"required,min=1,dive,required,schemacoord"`
}

type incomingOperation struct {
	OperationMapKey string             `json:"operationMapKey" validate:"required"`
	Timestamp       int64              `json:"timestamp" validate:"required,gt=0"`
	Execution       *incomingExecution `json:"execution" validate:"required"`
	Metadata        *incomingMetadata  `json:"metadata"`
}

type incomingSubscriptionOperation struct {
	OperationMapKey string            `json:"operationMapKey" validate:"required"`
	Timestamp       int64             `json:"timestamp" validate:"required,gt=0"`
	Metadata        *incomingMetadata `json:"metadata"`
}

// incomingLegacyOperation is one element of the array-shaped payload, which
// inlines the operation body in every record.
type incomingLegacyOperation struct {
	Operation     string             `json:"operation" validate:"required"`
	OperationName string             `json:"operationName"`
	Fields        []string           `json:"fields" validate:"required,min=1,dive,required,schemacoord"`
	Timestamp     int64              `json:"timestamp" validate:"gte=0"`
	Execution     *incomingExecution `json:"execution" validate:"required"`
	Metadata      *incomingMetadata  `json:"metadata"`
}

type incomingExecution struct {
	Ok          bool  `json:"ok"`
	Duration    int64 `json:"duration" validate:"gte=0"`
	ErrorsTotal int64 `json:"errorsTotal" validate:"gte=0"`
}

type incomingMetadata struct {
	Client *incomingClient `json:"client"`
}

type incomingClient struct {
	Name    string `json:"name" validate:"max=256"`
	Version string `json:"version" validate:"max=256"`
}

func (v *reportValidator) Validate(ctx context.Context, payload []byte, token models.TokenInfo, fallbackClient *models.ClientInfo) (*ValidationResult, error) {
	logger := loggers.Ctx(ctx)

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, ErrEmptyReport
	}

	builder := v.newBuilder(token, fallbackClient)
	switch trimmed[0] {
	case '[':
		metricReportFormatTotal.WithLabelValues("legacy").Inc()
		if err := v.collectLegacy(builder, trimmed); err != nil {
			return nil, err
		}
	case '{':
		metricReportFormatTotal.WithLabelValues("current").Inc()
		if err := v.collectCurrent(builder, trimmed); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", ErrMalformedReport)
	}

	result := builder.build()
	logger.Debug().
		Str(loggers.FieldReportID, result.Report.ID).
		Str(loggers.FieldTarget, token.Target).
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Msg("usage report validated")
	return result, nil
}

func (v *reportValidator) collectCurrent(b *reportBuilder, payload []byte) error {
	var incoming incomingReport
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	// Sorted so that duplicate canonical records resolve the same way on every run.
	clientKeys := make([]string, 0, len(incoming.Map))
	for key := range incoming.Map {
		clientKeys = append(clientKeys, key)
	}
	slices.Sort(clientKeys)
	for _, clientKey := range clientKeys {
		var record incomingMapRecord
		if err := json.Unmarshal(incoming.Map[clientKey], &record); err != nil {
			b.reject(kindMapRecord, reasonSchemaValidationFailed)
			continue
		}
		b.addRecord(clientKey, record)
	}

	for _, raw := range incoming.Operations {
		var op incomingOperation
		if err := json.Unmarshal(raw, &op); err != nil || v.validate.Struct(&op) != nil {
			b.reject(kindOperation, reasonSchemaValidationFailed)
			continue
		}
		key, ok := b.resolve(kindOperation, op.OperationMapKey)
		if !ok {
			continue
		}
		b.acceptOperation(key, op.Timestamp, op.Execution, op.Metadata)
	}

	for _, raw := range incoming.SubscriptionOperations {
		var op incomingSubscriptionOperation
		if err := json.Unmarshal(raw, &op); err != nil || v.validate.Struct(&op) != nil {
			b.reject(kindSubscriptionOperation, reasonSchemaValidationFailed)
			continue
		}
		key, ok := b.resolve(kindSubscriptionOperation, op.OperationMapKey)
		if !ok {
			continue
		}
		b.acceptSubscription(key, op.Timestamp, op.Metadata)
	}
	return nil
}

func (v *reportValidator) collectLegacy(b *reportBuilder, payload []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	for _, raw := range items {
		var op incomingLegacyOperation
		if err := json.Unmarshal(raw, &op); err != nil {
			b.reject(kindOperation, reasonSchemaValidationFailed)
			continue
		}
		op.Operation = strings.TrimSpace(op.Operation)
		op.OperationName = strings.TrimSpace(op.OperationName)
		op.Fields = normalizeFields(op.Fields)
		if err := v.validate.Struct(&op); err != nil {
			b.reject(kindOperation, reasonSchemaValidationFailed)
			continue
		}

		// The record's own canonical key doubles as its client key.
		key := b.addRecord("", incomingMapRecord{
			Operation:     op.Operation,
			OperationName: op.OperationName,
			Fields:        op.Fields,
		})
		resolved, ok := b.resolve(kindOperation, key)
		if !ok {
			continue
		}
		timestamp := op.Timestamp
		if timestamp == 0 {
			timestamp = v.now().UnixMilli()
		}
		b.acceptOperation(resolved, timestamp, op.Execution, op.Metadata)
	}
	return nil
}

type reportBuilder struct {
	validator *reportValidator
	token     models.TokenInfo
	fallback  *models.ClientInfo

	records map[string]models.OperationMapRecord // canonical key -> record
	remap   map[string]string                    // client key -> canonical key
	parsed  map[string]bool                      // canonical key -> body parses
	used    map[string]struct{}

	operations    []models.RawOperation
	subscriptions []models.RawSubscriptionOperation
	rejected      int
}

func (v *reportValidator) newBuilder(token models.TokenInfo, fallback *models.ClientInfo) *reportBuilder {
	return &reportBuilder{
		validator: v,
		token:     token,
		fallback:  fallback,
		records:   make(map[string]models.OperationMapRecord),
		remap:     make(map[string]string),
		parsed:    make(map[string]bool),
		used:      make(map[string]struct{}),
	}
}

// addRecord normalizes and validates a map record and registers it under its
// canonical key. It returns the canonical key, or "" when the record is invalid.
func (b *reportBuilder) addRecord(clientKey string, in incomingMapRecord) string {
	in.Operation = strings.TrimSpace(in.Operation)
	in.OperationName = strings.TrimSpace(in.OperationName)
	in.Fields = normalizeFields(in.Fields)

	if err := b.validator.validate.Struct(&in); err != nil {
		b.reject(kindMapRecord, reasonSchemaValidationFailed)
		return ""
	}

	key := CanonicalKey(b.token.Target, in.Operation, in.OperationName, in.Fields)
	if _, exists := b.records[key]; !exists {
		b.records[key] = models.OperationMapRecord{
			Operation:     in.Operation,
			OperationName: in.OperationName,
			Fields:        in.Fields,
		}
	}
	if clientKey == "" {
		clientKey = key
	}
	b.remap[clientKey] = key
	return key
}

// normalizeFields trims, sorts and dedupes schema coordinates.
func normalizeFields(in []string) []string {
	fields := make([]string, 0, len(in))
	for _, field := range in {
		fields = append(fields, strings.TrimSpace(field))
	}
	slices.Sort(fields)
	return slices.Compact(fields)
}

// resolve maps a client key to a canonical key whose body parses.
func (b *reportBuilder) resolve(kind, clientKey string) (string, bool) {
	key, ok := b.remap[clientKey]
	if !ok {
		b.reject(kind, reasonOperationMapKeyNotFound)
		return "", false
	}
	valid, checked := b.parsed[key]
	if !checked {
		valid = b.validator.cache.IsValid(b.records[key].Operation)
		b.parsed[key] = valid
	}
	if !valid {
		b.reject(kind, reasonInvalidOperationBody)
		return "", false
	}
	b.used[key] = struct{}{}
	return key, true
}

func (b *reportBuilder) acceptOperation(key string, timestamp int64, execution *incomingExecution, metadata *incomingMetadata) {
	metricAcceptedTotal.WithLabelValues(kindOperation).Inc()
	b.operations = append(b.operations, models.RawOperation{
		OperationMapKey: key,
		Timestamp:       timestamp,
		ExpiresAt:       b.token.ExpiresAt(timestamp),
		Execution: models.Execution{
			Ok:          execution.Ok,
			Duration:    execution.Duration,
			ErrorsTotal: execution.ErrorsTotal,
		},
		Metadata: b.metadata(metadata),
	})
}

func (b *reportBuilder) acceptSubscription(key string, timestamp int64, metadata *incomingMetadata) {
	metricAcceptedTotal.WithLabelValues(kindSubscriptionOperation).Inc()
	b.subscriptions = append(b.subscriptions, models.RawSubscriptionOperation{
		OperationMapKey: key,
		Timestamp:       timestamp,
		ExpiresAt:       b.token.ExpiresAt(timestamp),
		Metadata:        b.metadata(metadata),
	})
}

// metadata prefers the client sent with the record and falls back to the one
// derived from request headers.
func (b *reportBuilder) metadata(in *incomingMetadata) *models.OperationMetadata {
	if in != nil && in.Client != nil && strings.TrimSpace(in.Client.Name) != "" {
		return &models.OperationMetadata{Client: &models.ClientInfo{
			Name:    strings.TrimSpace(in.Client.Name),
			Version: strings.TrimSpace(in.Client.Version),
		}}
	}
	if b.fallback != nil && b.fallback.Name != "" {
		client := *b.fallback
		return &models.OperationMetadata{Client: &client}
	}
	return nil
}

func (b *reportBuilder) reject(kind, reason string) {
	metricRejectedTotal.WithLabelValues(kind, reason).Inc()
	if kind != kindMapRecord {
		b.rejected++
	}
}

// build keeps only the map records referenced by an accepted record.
func (b *reportBuilder) build() *ValidationResult {
	report := models.NewReport(ids.NewReportID(), b.token.Target)
	for key := range b.used {
		report.Map[key] = b.records[key]
	}
	report.Operations = b.operations
	report.SubscriptionOperations = b.subscriptions
	accepted := report.RecomputeSize()

	return &ValidationResult{
		Report:   report,
		Accepted: accepted,
		Rejected: b.rejected,
	}
}
