package ailink

import (
	"errors"
	"fmt"
)

// Reason classifies a generation failure for logs and metrics. Callers
// treat every reason the same way.
type Reason string

const (
	ReasonTimeout       Reason = "timeout"
	ReasonCanceled      Reason = "canceled"
	ReasonAuth          Reason = "auth"
	ReasonRateLimit     Reason = "rate_limit"
	ReasonUnavailable   Reason = "unavailable"
	ReasonBadRequest    Reason = "bad_request"
	ReasonEmptyResponse Reason = "empty_response"
	ReasonTransport     Reason = "transport"
	ReasonNotConfigured Reason = "not_configured"
)

// GenerationError is the single failure type returned by Generate.
type GenerationError struct {
	Provider string
	Reason   Reason
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return "generation failed"
	}
	if e.Message == "" {
		return fmt.Sprintf("generation failed (%s)", e.Reason)
	}
	return "generation failed: " + e.Message
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AsGenerationError extracts a *GenerationError from err.
func AsGenerationError(err error) (*GenerationError, bool) {
	var gerr *GenerationError
	if errors.As(err, &gerr) && gerr != nil {
		return gerr, true
	}
	return nil, false
}
