package ingestors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"usage-ingestion/internal/models"
	"usage-ingestion/internal/publishers"
	"usage-ingestion/internal/reports"
	"usage-ingestion/internal/shared/loggers"
	"usage-ingestion/internal/shared/metrics"
	"usage-ingestion/internal/shared/svcerrors"
)

const DefaultMaxBodyBytes = 5 * 1024 * 1024

// Accepted values of the usage api version header. An empty version lets
// the payload shape decide.
const (
	APIVersionLegacy  = "1"
	APIVersionCurrent = "2"
)

type IngestRequest struct {
	Token      string
	APIVersion string
	// Client is used for operations that carry no client metadata of their own.
	Client *models.ClientInfo
	Body   io.Reader
}

// IngestResult represents the result of a report ingestion.
type IngestResult struct {
	ReportID string
	Accepted int
	Rejected int
}

//go:generate mockgen -source=ingestion_service.go -destination=./mocks/ingestion_service_mock.go -package=mocks
type IngestionService interface {
	// IngestReport validates one usage payload and queues the canonical report for publishing.
	IngestReport(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

type ingestionService struct {
	tokenResolver TokenResolver
	validator     reports.ReportValidator
	publisher     publishers.UsagePublisher
	maxBodyBytes  int
}

func NewIngestionService(tokenResolver TokenResolver, validator reports.ReportValidator, publisher publishers.UsagePublisher, maxBodyBytes int) IngestionService {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ingestionService{
		tokenResolver: tokenResolver,
		validator:     validator,
		publisher:     publisher,
		maxBodyBytes:  maxBodyBytes,
	}
}

func (s *ingestionService) IngestReport(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	result, err := s.ingest(ctx, req)
	if err != nil {
		code := metrics.ValueNoError
		if svcErr, ok := svcerrors.AsServiceError(err); ok {
			code = svcErr.Code
		}
		metricReportIngestedTotal.WithLabelValues(code).Inc()
		return nil, err
	}
	metricReportIngestedTotal.WithLabelValues(metrics.ValueNoError).Inc()
	metricOperationsTotal.WithLabelValues(resultAccepted).Add(float64(result.Accepted))
	metricOperationsTotal.WithLabelValues(resultRejected).Add(float64(result.Rejected))
	return result, nil
}

func (s *ingestionService) ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	logger := loggers.Ctx(ctx)

	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, errMissingToken()
	}
	if err := validateAPIVersion(req.APIVersion); err != nil {
		return nil, err
	}

	tokenInfo, err := s.tokenResolver.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, errUnknownToken(err)
		}
		return nil, errInternalTokenResolverFailed(err)
	}

	if req.Body == nil {
		return nil, errValidationFailed("empty request body", nil)
	}
	payload, err := s.readWithLimit(req.Body)
	if err != nil {
		return nil, err
	}
	metricPayloadBytes.Observe(float64(len(payload)))

	validation, err := s.validator.Validate(ctx, payload, *tokenInfo, req.Client)
	if err != nil {
		if errors.Is(err, reports.ErrEmptyReport) || errors.Is(err, reports.ErrMalformedReport) {
			return nil, errValidationFailed("invalid usage report", err)
		}
		return nil, errInternalValidatorFailed(err)
	}

	report := validation.Report
	if report.Size > 0 {
		if err := s.publisher.Add(report); err != nil {
			if errors.Is(err, publishers.ErrPublisherStopped) {
				return nil, errPublisherUnavailable(err)
			}
			return nil, errInternalPublisherFailed(err)
		}
	}

	logger.Debug().
		Str(loggers.FieldReportID, report.ID).
		Str(loggers.FieldTarget, report.Target).
		Int("accepted", validation.Accepted).
		Int("rejected", validation.Rejected).
		Msg("usage report ingested")

	return &IngestResult{
		ReportID: report.ID,
		Accepted: validation.Accepted,
		Rejected: validation.Rejected,
	}, nil
}

func validateAPIVersion(version string) error {
	switch strings.TrimSpace(version) {
	case "", APIVersionLegacy, APIVersionCurrent:
		return nil
	default:
		return errUnsupportedAPIVersion(version)
	}
}

// readWithLimit reads at most maxBodyBytes and fails when the body is longer.
func (s *ingestionService) readWithLimit(r io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(s.maxBodyBytes)+1))
	if err != nil {
		return nil, errValidationFailed("failed to read request body", err)
	}
	if len(buf) > s.maxBodyBytes {
		return nil, errValidationFailed(fmt.Sprintf("usage report too large: must be <= %d bytes", s.maxBodyBytes), nil)
	}
	if len(buf) == 0 {
		return nil, errValidationFailed("empty request body", nil)
	}
	return buf, nil
}
