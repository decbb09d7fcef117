package http

import (
	"net/http"

	"usage-ingestion/internal/ingestors"
)

type AppHttpHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

type IngestUsageResponse struct {
	ID         string              `json:"id"`
	Operations OperationsBreakdown `json:"operations"`
}

type OperationsBreakdown struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type ingestUsageHandler struct {
	ingestionService ingestors.IngestionService
}

func NewIngestUsageHandler(ingestionService ingestors.IngestionService) AppHttpHandler {
	return &ingestUsageHandler{
		ingestionService: ingestionService,
	}
}

// Handle processes POST / and POST /usage requests.
func (h *ingestUsageHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	result, err := h.ingestionService.IngestReport(r.Context(), ingestors.IngestRequest{
		Token:      accessToken(r),
		APIVersion: apiVersion(r),
		Client:     clientInfo(r),
		Body:       r.Body,
	})
	if err != nil {
		return err
	}

	if appWriter, ok := w.(*appResponseWriter); ok {
		appWriter.SetReportID(result.ReportID)
	}
	writeJSON(w, http.StatusOK, IngestUsageResponse{
		ID: result.ReportID,
		Operations: OperationsBreakdown{
			Accepted: result.Accepted,
			Rejected: result.Rejected,
		},
	})
	return nil
}
