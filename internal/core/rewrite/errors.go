package rewrite

import (
	"errors"
	"fmt"

	"github.com/ownmytodo/todoai/internal/core/ratelimit"
)

// Kind classifies a rewrite failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindRateLimited   Kind = "rate_limited"
	KindConfiguration Kind = "configuration"
	KindUpstream      Kind = "upstream"
)

// Error is the only error type returned by Service.Rewrite.
type Error struct {
	Kind    Kind
	Message string

	// Decision is set for KindRateLimited.
	Decision ratelimit.Decision

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "rewrite failed"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rewrite failed: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) && rerr != nil {
		return rerr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not a rewrite error.
func KindOf(err error) Kind {
	if rerr, ok := AsError(err); ok {
		return rerr.Kind
	}
	return ""
}

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}
