package http

import (
	"net/http"
)

// ReadinessChecker reports whether the service can accept traffic.
type ReadinessChecker interface {
	Readiness() bool
}

type probeStatus struct {
	Status string `json:"status"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeStatus{Status: "ok"})
}

func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !checker.Readiness() {
			writeJSON(w, http.StatusServiceUnavailable, probeStatus{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, probeStatus{Status: "ready"})
	}
}
