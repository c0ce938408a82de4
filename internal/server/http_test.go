package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"citycost/internal/core"
)

// requestIDResolver captures the request ID seen by the resolver.
type requestIDResolver struct {
	mockResolver
	seen string
}

func (r *requestIDResolver) Resolve(ctx context.Context, id core.CityIdentity) (core.Record, error) {
	r.seen = core.GetRequestID(ctx)
	return core.Record(`{}`), nil
}

func TestRequestIDMiddleware(t *testing.T) {
	resolver := &requestIDResolver{}
	srv := New(resolver, nil)

	t.Run("generates request ID when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-ID")
		if len(got) != 36 {
			t.Errorf("expected UUID (36 chars), got %q (%d chars)", got, len(got))
		}
	})

	t.Run("preserves existing request ID and exposes it to handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/lookup?city_name=Austin&country_name=USA", nil)
		req.Header.Set("X-Request-ID", "my-custom-id")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, "my-custom-id", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "my-custom-id", resolver.seen)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		config         *Config
		requestPath    string
		expectedStatus int
	}{
		{
			name:           "metrics disabled",
			config:         &Config{MetricsEnabled: false},
			requestPath:    "/metrics",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "metrics enabled on default path",
			config:         &Config{MetricsEnabled: true},
			requestPath:    "/metrics",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "metrics enabled on custom path",
			config:         &Config{MetricsEnabled: true, MetricsEndpoint: "/internal/metrics"},
			requestPath:    "/internal/metrics",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "metrics bypass master key",
			config:         &Config{MetricsEnabled: true, MasterKey: "secret"},
			requestPath:    "/metrics",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&mockResolver{}, tt.config)

			req := httptest.NewRequest(http.MethodGet, tt.requestPath, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRoutes(t *testing.T) {
	srv := New(&mockResolver{record: core.Record(`{"cost":1}`)}, &Config{MasterKey: "secret"})

	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lookup requires master key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup?city_name=Austin&country_name=USA", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lookup with master key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/lookup?city_name=Austin&country_name=USA", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cost":1}`, rec.Body.String())
	})
}
