// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lesporoiniens/portal/internal/platform/ctxutil"
	"github.com/lesporoiniens/portal/internal/platform/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		authHeader string
		wantStatus int
	}{
		{"valid_token", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong_token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing_header", "s3cret", "", http.StatusUnauthorized},
		{"missing_bearer_prefix", "s3cret", "s3cret", http.StatusUnauthorized},
		{"empty_configured_token_rejects_all", "", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.BearerAuth(tt.token)(okHandler())

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPost, "/api/admin/batch-delete", nil)
			if tt.authHeader != "" {
				request.Header.Set("Authorization", tt.authHeader)
			}
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				// Plain-text body, not a JSON envelope.
				assert.Equal(t, "Unauthorized\n", recorder.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generates_when_missing", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
			writer.WriteHeader(http.StatusOK)
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))
	})

	t.Run("preserves_client_id", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
			writer.WriteHeader(http.StatusOK)
		}))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Request-ID", "client-supplied")
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "client-supplied", seen)
	})
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		realIP  string
		forward string
		remote  string
		want    string
	}{
		{"x_real_ip_first", "203.0.113.7", "198.51.100.1", "192.0.2.1:4444", "203.0.113.7"},
		{"forwarded_for_first_hop", "", "198.51.100.1, 10.0.0.2", "192.0.2.1:4444", "198.51.100.1"},
		{"falls_back_to_remote_addr", "", "", "192.0.2.1:4444", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forward != "" {
				request.Header.Set("X-Forwarded-For", tt.forward)
			}

			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}

type corsConfig struct{ dev bool }

func (c corsConfig) IsDevelopment() bool { return c.dev }

func TestCORS(t *testing.T) {
	serve := func(cfg corsConfig, origin, method string) *httptest.ResponseRecorder {
		handler := middleware.CORS(cfg)(okHandler())
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(method, "/api/interactions", nil)
		if origin != "" {
			request.Header.Set("Origin", origin)
		}
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("allowed_production_origin", func(t *testing.T) {
		recorder := serve(corsConfig{}, "https://lesporoiniens.org", http.MethodGet)

		assert.Equal(t, "https://lesporoiniens.org", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, recorder.Header().Get("Access-Control-Expose-Headers"), "X-Cache")
	})

	t.Run("foreign_origin_gets_no_headers", func(t *testing.T) {
		recorder := serve(corsConfig{}, "https://evil.example.org", http.MethodGet)

		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development_allows_any_origin", func(t *testing.T) {
		recorder := serve(corsConfig{dev: true}, "http://localhost:5173", http.MethodGet)

		assert.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight_short_circuits", func(t *testing.T) {
		recorder := serve(corsConfig{}, "https://lesporoiniens.org", http.MethodOptions)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Empty(t, recorder.Body.String())
	})
}
