package ingestors

import (
	"fmt"

	"usage-ingestion/internal/shared/svcerrors"
)

// IngestionService errors
const (
	codeValidationFailed      = "USG_1000"
	codeUnsupportedAPIVersion = "USG_1001"

	codeMissingToken = "USG_1100"
	codeUnknownToken = "USG_1101"

	codeInternalTokenResolverFailed = "USG_9000"
	codeInternalPublisherFailed     = "USG_9001"
	codePublisherUnavailable        = "USG_9002"
	codeInternalValidatorFailed     = "USG_9003"
)

func errValidationFailed(msg string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeValidationFailed, msg, cause)
}

func errUnsupportedAPIVersion(version string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeUnsupportedAPIVersion, fmt.Sprintf("unsupported usage api version: %q", version), nil)
}

func errMissingToken() *svcerrors.ServiceError {
	return svcerrors.NewUnauthenticatedError(codeMissingToken, "missing access token", nil)
}

func errUnknownToken(cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnauthenticatedError(codeUnknownToken, "invalid access token", cause)
}

func errInternalTokenResolverFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalTokenResolverFailed, fmt.Errorf("tokenResolverFailed: %w", cause))
}

func errInternalPublisherFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalPublisherFailed, fmt.Errorf("usagePublisherFailed: %w", cause))
}

// errPublisherUnavailable is returned while the service shuts down.
func errPublisherUnavailable(cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codePublisherUnavailable, "usage ingestion is unavailable", cause)
}

func errInternalValidatorFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalValidatorFailed, fmt.Errorf("reportValidatorFailed: %w", cause))
}
