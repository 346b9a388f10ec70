package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	fulerrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/ownmytodo/todoai/internal/core/rewrite"
	apperrors "github.com/ownmytodo/todoai/internal/errors"
	"github.com/ownmytodo/todoai/internal/metrics"
	servermw "github.com/ownmytodo/todoai/internal/server/middleware"
)

// maxRewriteBody bounds the JSON body of POST /rewrite.
const maxRewriteBody = 64 << 10

// RewriteHandler serves POST /rewrite.
type RewriteHandler struct {
	service *rewrite.Service
}

// NewRewriteHandler wraps service.
func NewRewriteHandler(service *rewrite.Service) *RewriteHandler {
	return &RewriteHandler{service: service}
}

func (h *RewriteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CheckConfigured(); err != nil {
		metrics.RecordRewrite(metrics.OutcomeConfiguration)
		respondWithError(w, r, rewriteEnvelope(r, err))
		return
	}

	req, err := decodeRewriteRequest(w, r)
	if err != nil {
		metrics.RecordRewrite(metrics.OutcomeValidation)
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), nil, err.Error()))
		return
	}

	resp, err := h.service.Rewrite(r.Context(), servermw.ClientIdentity(r), req)
	if err != nil {
		if rerr, ok := rewrite.AsError(err); ok && rerr.Kind == rewrite.KindRateLimited {
			w.Header().Set("Retry-After", strconv.Itoa(apperrors.RetryAfterSeconds(rerr.Decision.RetryAfter)))
		}
		respondWithError(w, r, rewriteEnvelope(r, err))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeRewriteRequest(w http.ResponseWriter, r *http.Request) (*rewrite.Request, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRewriteBody))

	var req rewrite.Request
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is required")
		case errors.As(err, &maxErr):
			return nil, errors.New("request body too large")
		default:
			return nil, errors.New("invalid JSON body: " + err.Error())
		}
	}
	if err := rewrite.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func rewriteEnvelope(r *http.Request, err error) *fulerrors.ErrorEnvelope {
	rerr, ok := rewrite.AsError(err)
	if !ok {
		return apperrors.WrapInternal(r.Context(), err, "unexpected error")
	}

	switch rerr.Kind {
	case rewrite.KindValidation:
		return apperrors.WrapValidationError(r.Context(), rerr.Err, rerr.Message)
	case rewrite.KindRateLimited:
		policy := ""
		if rerr.Decision.Policy.Requests > 0 {
			policy = rerr.Decision.Policy.String()
		}
		return apperrors.NewRateLimitedError(rerr.Message, rerr.Decision.RetryAfter, policy)
	case rewrite.KindConfiguration:
		return apperrors.WrapConfigInvalid(r.Context(), rerr.Err, rerr.Message)
	default:
		return apperrors.WrapExternalService(r.Context(), rerr.Err, rerr.Message)
	}
}
