package ailink

import (
	"context"
	"errors"
	"fmt"

	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

func mapProviderError(provider string, err error, limit int) *GenerationError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Provider: provider, Reason: ReasonTimeout, Message: provider + " request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &GenerationError{Provider: provider, Reason: ReasonCanceled, Message: provider + " request canceled", Err: err}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := truncateDiagnostic(perr.Message, limit)
		var reason Reason
		switch {
		case status == 401 || status == 403:
			reason = ReasonAuth
		case status == 429:
			reason = ReasonRateLimit
		case status >= 500 && status <= 599:
			reason = ReasonUnavailable
		case status >= 400 && status <= 499:
			reason = ReasonBadRequest
		default:
			reason = ReasonTransport
		}
		return &GenerationError{
			Provider: provider,
			Reason:   reason,
			Message:  fmt.Sprintf("%s returned status %d: %s", provider, status, details),
			Err:      err,
		}
	}

	return &GenerationError{
		Provider: provider,
		Reason:   ReasonTransport,
		Message:  truncateDiagnostic(err.Error(), limit),
		Err:      err,
	}
}
