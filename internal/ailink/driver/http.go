package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// HTTPCall describes a single JSON POST to a provider.
type HTTPCall struct {
	Driver  string
	URL     string
	Model   string
	Headers map[string]string
	Payload any
	Client  *http.Client
	Timeout time.Duration

	// ErrorMessage extracts a readable message from a non-2xx body.
	ErrorMessage func(body []byte) string
}

// PostJSON sends call.Payload and returns the raw 2xx response body. Non-2xx
// statuses come back as *ProviderError.
func PostJSON(ctx context.Context, call HTTPCall) ([]byte, error) {
	ctx, cancel := WithTimeout(ctx, call.Timeout)
	if cancel != nil {
		defer cancel()
	}

	body, err := json.Marshal(call.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range call.Headers {
		httpReq.Header.Set(k, v)
	}

	client := call.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	entry := TraceEntry{
		Driver:      call.Driver,
		Endpoint:    call.URL,
		Method:      http.MethodPost,
		Model:       call.Model,
		RequestBody: body,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		entry.Error = err.Error()
		entry.DurationMs = time.Since(start).Milliseconds()
		Trace(entry)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	entry.StatusCode = resp.StatusCode
	entry.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		entry.Error = err.Error()
		Trace(entry)
		return nil, fmt.Errorf("read response: %w", err)
	}
	if json.Valid(respBody) {
		entry.Response = respBody
	}
	Trace(entry)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := ""
		if call.ErrorMessage != nil {
			msg = call.ErrorMessage(respBody)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ProviderError{Provider: call.Driver, StatusCode: resp.StatusCode, Message: msg, RawResponse: respBody}
	}

	return respBody, nil
}

// WithTimeout applies timeout when positive.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
