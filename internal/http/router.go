package http

import (
	"net/http"

	"usage-ingestion/internal/ingestors"
	"usage-ingestion/internal/shared/loggers"
	"usage-ingestion/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(ingestionService ingestors.IngestionService, readiness ReadinessChecker, httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	ingestUsage := errorHandlingAdapter(NewIngestUsageHandler(ingestionService))

	router.Post("/", ingestUsage)
	router.Post("/usage", ingestUsage)
	router.Get("/_health", healthHandler)
	router.Get("/_readiness", readinessHandler(readiness))
	router.Get("/metrics", metrics.PromHTTP.Handler().ServeHTTP)

	return router
}
