package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

func TestMapProviderErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		want       Reason
	}{
		{"auth", 401, ReasonAuth},
		{"forbidden", 403, ReasonAuth},
		{"rate", 429, ReasonRateLimit},
		{"bad", 400, ReasonBadRequest},
		{"unavail", 503, ReasonUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &driver.ProviderError{Provider: "gemini", StatusCode: tc.statusCode, Message: "boom"}
			mapped := mapProviderError("gemini", err, 0)
			require.NotNil(t, mapped)
			assert.Equal(t, tc.want, mapped.Reason)
			assert.Contains(t, mapped.Message, fmt.Sprintf("status %d", tc.statusCode))
			assert.Contains(t, mapped.Message, "boom")
			assert.ErrorIs(t, mapped, err)
		})
	}
}

func TestMapProviderErrorTimeout(t *testing.T) {
	mapped := mapProviderError("gemini", fmt.Errorf("request failed: %w", context.DeadlineExceeded), 0)
	require.NotNil(t, mapped)
	assert.Equal(t, ReasonTimeout, mapped.Reason)
	assert.Contains(t, mapped.Error(), "timed out")
}

func TestMapProviderErrorTransport(t *testing.T) {
	mapped := mapProviderError("openai", errors.New("dial tcp: connection refused"), 0)
	require.NotNil(t, mapped)
	assert.Equal(t, ReasonTransport, mapped.Reason)
	assert.Equal(t, "generation failed: dial tcp: connection refused", mapped.Error())
}

func TestMapProviderErrorTruncatesDiagnostic(t *testing.T) {
	err := &driver.ProviderError{Provider: "gemini", StatusCode: 500, Message: strings.Repeat("x", 100) + "\n\ttrailer"}
	mapped := mapProviderError("gemini", err, 20)
	require.NotNil(t, mapped)
	assert.NotContains(t, mapped.Message, "\n")
	assert.True(t, strings.HasSuffix(mapped.Message, "..."))
	assert.Less(t, len(mapped.Message), 80)
}

func TestMapProviderErrorNil(t *testing.T) {
	assert.Nil(t, mapProviderError("gemini", nil, 0))
}
