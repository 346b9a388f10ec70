package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownmytodo/todoai/internal/core/ratelimit"
	"github.com/ownmytodo/todoai/internal/core/rewrite"
	apperrors "github.com/ownmytodo/todoai/internal/errors"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	out   string
	err   error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type rewriteFixture struct {
	handler http.Handler
	gen     *fakeGenerator
	now     time.Time
}

func newRewriteFixture(t *testing.T, gen *fakeGenerator, opts ...rewrite.Option) *rewriteFixture {
	t.Helper()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter, err := ratelimit.New(store, ratelimit.DefaultPolicy)
	require.NoError(t, err)

	fx := &rewriteFixture{gen: gen, now: time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)}
	opts = append([]rewrite.Option{rewrite.WithClock(func() time.Time { return fx.now })}, opts...)
	svc, err := rewrite.NewService(gen, limiter, nil, opts...)
	require.NoError(t, err)

	fx.handler = NewRewriteHandler(svc)
	return fx
}

func (fx *rewriteFixture) post(body, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rewrite", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorDetail {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestRewriteHandlerSuccess(t *testing.T) {
	fx := newRewriteFixture(t, &fakeGenerator{out: "\n  Fold the laundry in the bedroom  \n"})

	rec := fx.post(`{"title":"clean house","today_todos":"gym","user_context":null}`, "203.0.113.7:40000")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp rewrite.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Fold the laundry in the bedroom", resp.Rewritten)
}

func TestRewriteHandlerMissingTitle(t *testing.T) {
	for _, body := range []string{`{}`, `{"title":""}`, `{"title":"   "}`, `{"today_todos":"x"}`} {
		gen := &fakeGenerator{out: "x"}
		fx := newRewriteFixture(t, gen)

		rec := fx.post(body, "203.0.113.7:40000")
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, apperrors.CodeValidationFailed, decodeError(t, rec).Code)
		assert.Zero(t, gen.count())
	}
}

func TestRewriteHandlerMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{out: "x"}
	fx := newRewriteFixture(t, gen)

	for _, body := range []string{`{"title":`, ``, `{"title": 42}`} {
		rec := fx.post(body, "203.0.113.7:40000")
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, apperrors.CodeValidationFailed, decodeError(t, rec).Code)
	}
	assert.Zero(t, gen.count())
}

func TestRewriteHandlerValidationDoesNotConsumeQuota(t *testing.T) {
	fx := newRewriteFixture(t, &fakeGenerator{out: "ok"})

	for i := 0; i < 15; i++ {
		require.Equal(t, http.StatusBadRequest, fx.post(`{}`, "203.0.113.7:1").Code)
	}
	assert.Equal(t, http.StatusOK, fx.post(`{"title":"x"}`, "203.0.113.7:1").Code)
}

func TestRewriteHandlerRateLimit(t *testing.T) {
	gen := &fakeGenerator{out: "ok"}
	fx := newRewriteFixture(t, gen)

	for i := 0; i < 10; i++ {
		rec := fx.post(`{"title":"x"}`, "198.51.100.4:5000")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		fx.now = fx.now.Add(time.Second)
	}

	rec := fx.post(`{"title":"x"}`, "198.51.100.4:6000")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "50", rec.Header().Get("Retry-After"))
	detail := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeRateLimited, detail.Code)
	assert.Equal(t, "10/1m0s", detail.Details["limit"])
	assert.Equal(t, 10, gen.count())

	// another address is unaffected
	assert.Equal(t, http.StatusOK, fx.post(`{"title":"x"}`, "198.51.100.5:5000").Code)

	// the first admission leaves the window
	fx.now = fx.now.Add(50 * time.Second)
	assert.Equal(t, http.StatusOK, fx.post(`{"title":"x"}`, "198.51.100.4:5000").Code)
}

func TestRewriteHandlerMissingCredential(t *testing.T) {
	gen := &fakeGenerator{out: "ok"}
	fx := newRewriteFixture(t, gen, rewrite.WithCredentialConfigured(false))

	for _, body := range []string{`{"title":"x"}`, `{}`, `not json`} {
		rec := fx.post(body, "203.0.113.7:1")
		require.Equal(t, http.StatusInternalServerError, rec.Code, body)
		detail := decodeError(t, rec)
		assert.Equal(t, apperrors.CodeConfigInvalid, detail.Code)
		assert.Contains(t, detail.Message, "API key")
	}
	assert.Zero(t, gen.count())
}

func TestRewriteHandlerUpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset by peer")}
	fx := newRewriteFixture(t, gen)

	rec := fx.post(`{"title":"x"}`, "203.0.113.7:1")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeExternalService, detail.Code)
	assert.Contains(t, detail.Message, "connection reset by peer")
	assert.Equal(t, 1, gen.count())
}

func TestRewriteHandlerNilService(t *testing.T) {
	h := NewRewriteHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/rewrite", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
