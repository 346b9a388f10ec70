// Package gemini implements the Google Gemini generateContent driver.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

// Client talks to the Generative Language REST API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey string) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	return &Client{
		BaseURL: u,
		APIKey:  strings.TrimSpace(apiKey),
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Complete sends a single-turn generateContent request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	payload, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(req.Model))
	respBody, err := driver.PostJSON(ctx, driver.HTTPCall{
		Driver:       c.Name(),
		URL:          endpoint,
		Model:        req.Model,
		Headers:      map[string]string{"x-goog-api-key": c.APIKey},
		Payload:      payload,
		Client:       c.HTTPClient,
		Timeout:      c.Timeout,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		return nil, err
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return toDriverResponse(&parsed)
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	msg := strings.TrimSpace(parsed.Error.Message)
	if msg != "" && parsed.Error.Status != "" {
		return parsed.Error.Status + ": " + msg
	}
	return msg
}
