package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"usage-ingestion/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccessToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{name: "api token header", headers: map[string]string{headerAPIToken: " abc "}, expected: "abc"},
		{name: "bearer token", headers: map[string]string{headerAuthorization: "Bearer xyz"}, expected: "xyz"},
		{name: "bearer is case insensitive", headers: map[string]string{headerAuthorization: "bearer xyz"}, expected: "xyz"},
		{name: "api token wins", headers: map[string]string{headerAPIToken: "abc", headerAuthorization: "Bearer xyz"}, expected: "abc"},
		{name: "basic auth ignored", headers: map[string]string{headerAuthorization: "Basic Zm9vOmJhcg=="}, expected: ""},
		{name: "bare bearer", headers: map[string]string{headerAuthorization: "Bearer"}, expected: ""},
		{name: "none", headers: map[string]string{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, accessToken(req))
		})
	}
}

func TestClientInfo(t *testing.T) {
	t.Parallel()

	t.Run("graphql client headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(headerClientName, "ios-app")
		req.Header.Set(headerClientVersion, "7.1")
		req.Header.Set(headerUserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Equal(t, &models.ClientInfo{Name: "ios-app", Version: "7.1"}, clientInfo(req))
	})

	t.Run("user agent fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(headerUserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		client := clientInfo(req)
		if assert.NotNil(t, client) {
			assert.Equal(t, "Chrome", client.Name)
			assert.Equal(t, "120.0.0.0", client.Version)
		}
	})

	t.Run("nothing usable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Del(headerUserAgent)
		assert.Nil(t, clientInfo(req))
	})
}
