package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestServeOpenAPISpec(t *testing.T) {
	handlers := NewHandlers(&MockAuthService{}, &MockAnalysisService{}, &MockAdmitter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil)
	rec := httptest.NewRecorder()

	handlers.ServeOpenAPISpec(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	require.NotEmpty(t, body)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), "openapi:"))
	assert.Contains(t, body, "3.0.3")
}

// The embedded document must parse and describe every routed API path.
func TestOpenAPISpec_DocumentsRoutes(t *testing.T) {
	var doc struct {
		OpenAPI string                    `yaml:"openapi"`
		Info    map[string]any            `yaml:"info"`
		Paths   map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(openAPISpec, &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Trade Opportunities API", doc.Info["title"])

	want := map[string]string{
		"/api/v1/auth/register":    "post",
		"/api/v1/auth/token":       "post",
		"/api/v1/auth/logout":      "post",
		"/api/v1/analyze/{sector}": "get",
		"/api/v1/reports":          "get",
		"/api/v1/reports/{id}":     "get",
		"/api/v1/health":           "get",
		"/health":                  "get",
	}
	for path, method := range want {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "missing path %s", path) {
			assert.Contains(t, ops, method, "%s %s", method, path)
		}
	}
}

func TestServeSwaggerUI(t *testing.T) {
	handlers := NewHandlers(&MockAuthService{}, &MockAnalysisService{}, &MockAdmitter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/docs", nil)
	rec := httptest.NewRecorder()

	handlers.ServeSwaggerUI(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	for _, want := range []string{"swagger-ui", "/api/v1/openapi.yaml", "Trade Opportunities API"} {
		assert.Contains(t, body, want)
	}
}

func TestOpenAPIRoutes_ArePublic(t *testing.T) {
	for _, path := range []string{"/api/v1/openapi.yaml", "/api/v1/docs"} {
		t.Run(path, func(t *testing.T) {
			f := newFixture(t)
			server := httptest.NewServer(f.router)
			defer server.Close()

			req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
			require.NoError(t, err)
			// Deliberately no Authorization header

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}
