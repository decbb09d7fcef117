package http

import (
	"net/http"
	"strings"

	"usage-ingestion/internal/models"

	"github.com/mileusna/useragent"
)

const (
	headerRequestID     = "x-request-id"
	headerAPIToken      = "x-api-token"
	headerAuthorization = "authorization"
	headerAPIVersion    = "x-usage-api-version"
	headerClientName    = "graphql-client-name"
	headerClientVersion = "graphql-client-version"
	headerUserAgent     = "user-agent"

	bearerPrefix = "bearer "
)

func requestID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerRequestID))
}

func setRequestID(r *http.Request, requestID string) {
	r.Header.Set(headerRequestID, requestID)
}

// accessToken prefers x-api-token and falls back to an Authorization bearer token.
func accessToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(headerAPIToken)); token != "" {
		return token
	}
	auth := strings.TrimSpace(r.Header.Get(headerAuthorization))
	if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):])
	}
	return ""
}

func apiVersion(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerAPIVersion))
}

// clientInfo describes the calling client from the graphql-client headers, or
// from the User-Agent when those are absent. Returns nil when neither is usable.
func clientInfo(r *http.Request) *models.ClientInfo {
	name := strings.TrimSpace(r.Header.Get(headerClientName))
	if name != "" {
		return &models.ClientInfo{
			Name:    name,
			Version: strings.TrimSpace(r.Header.Get(headerClientVersion)),
		}
	}

	raw := strings.TrimSpace(r.Header.Get(headerUserAgent))
	if raw == "" {
		return nil
	}
	ua := useragent.Parse(raw)
	if ua.Name == "" {
		return nil
	}
	return &models.ClientInfo{Name: ua.Name, Version: ua.Version}
}
