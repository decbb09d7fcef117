package http

import (
	"net/http"

	"usage-ingestion/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5/middleware"
)

// appResponseWriter carries the outcome of a request (service error or
// ingested report id) to the metrics and completion log middlewares.
type appResponseWriter struct {
	middleware.WrapResponseWriter
	svcError *svcerrors.ServiceError
	reportID string
}

func newAppResponseWriter(w http.ResponseWriter, protoMajor int) *appResponseWriter {
	return &appResponseWriter{
		WrapResponseWriter: middleware.NewWrapResponseWriter(w, protoMajor),
	}
}

func (w *appResponseWriter) SetServiceError(svcError *svcerrors.ServiceError) {
	w.svcError = svcError
}

func (w *appResponseWriter) ErrorCode() string {
	if w.svcError != nil {
		return w.svcError.Code
	}
	return ""
}

func (w *appResponseWriter) SetReportID(reportID string) {
	w.reportID = reportID
}

func (w *appResponseWriter) ReportID() string {
	return w.reportID
}

// StatusOrOK returns the written status, or 200 when nothing was written.
func (w *appResponseWriter) StatusOrOK() int {
	if status := w.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
