package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownmytodo/todoai/internal/core/ratelimit"
	"github.com/ownmytodo/todoai/internal/core/rewrite"
	apperrors "github.com/ownmytodo/todoai/internal/errors"
)

type staticGenerator string

func (g staticGenerator) Generate(context.Context, string) (string, error) {
	return string(g), nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter, err := ratelimit.New(store, ratelimit.DefaultPolicy)
	require.NoError(t, err)
	svc, err := rewrite.NewService(staticGenerator("Write the first paragraph of the report"), limiter, nil)
	require.NoError(t, err)
	return New("127.0.0.1", 0, append([]Option{WithRewriteService(svc)}, opts...)...)
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New("127.0.0.1", 0)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerRewriteRoute(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rewrite", strings.NewReader(`{"title":"report"}`))
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rewritten":"Write the first paragraph of the report"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServerRewriteWrongMethod(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rewrite", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerHealthIsFixed(t *testing.T) {
	// no rewrite service at all: /health still reports ok
	srv := New("127.0.0.1", 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServerHealthNotRateLimited(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 25; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestServerTrustProxyHeaders(t *testing.T) {
	post := func(srv *Server, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/rewrite", strings.NewReader(`{"title":"x"}`))
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	trusted := newTestServer(t, WithTrustProxyHeaders(true))
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(trusted, "198.51.100.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, post(trusted, "198.51.100.1"))
	assert.Equal(t, http.StatusOK, post(trusted, "198.51.100.2"))

	untrusted := newTestServer(t)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(untrusted, "198.51.100.1"))
	}
	// the forwarded header is ignored, so the proxy address is limited
	assert.Equal(t, http.StatusTooManyRequests, post(untrusted, "198.51.100.2"))
}

func TestServerCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/rewrite", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}
