package ailink

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ownmytodo/todoai/internal/ailink/content"
	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

// Generator runs a single-turn prompt against one provider. Each call makes
// exactly one upstream attempt.
type Generator struct {
	Driver      driver.Driver
	Model       string
	Timeout     time.Duration
	System      string
	PromptSlug  string
	Temperature *float64
	MaxTokens   *int

	diagnosticLimit int
	httpClient      *http.Client
}

// GeneratorOption customizes a Generator built by NewGenerator.
type GeneratorOption func(*Generator)

// WithSystem sets the system instruction sent with every prompt.
func WithSystem(system, slug string) GeneratorOption {
	return func(g *Generator) {
		g.System = strings.TrimSpace(system)
		g.PromptSlug = slug
	}
}

// WithDriver replaces the configured driver.
func WithDriver(d driver.Driver) GeneratorOption {
	return func(g *Generator) {
		g.Driver = d
	}
}

// WithHTTPClient sets the HTTP client used by the built-in drivers.
func WithHTTPClient(client *http.Client) GeneratorOption {
	return func(g *Generator) {
		g.httpClient = client
	}
}

// NewGenerator builds a generator from cfg. It fails only on an unknown
// provider; a missing credential is reported by Generate.
func NewGenerator(cfg Config, opts ...GeneratorOption) (*Generator, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel(cfg.ProviderName())
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &Generator{
		Model:           model,
		Timeout:         timeout,
		diagnosticLimit: cfg.Debug.DiagnosticMaxBytes,
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		g.Temperature = &t
	}
	if cfg.MaxOutputTokens > 0 {
		n := cfg.MaxOutputTokens
		g.MaxTokens = &n
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.Driver == nil {
		drv, err := NewDriver(cfg, g.httpClient)
		if err != nil {
			return nil, err
		}
		g.Driver = drv
	}
	return g, nil
}

// Provider returns the driver name.
func (g *Generator) Provider() string {
	if g == nil || g.Driver == nil {
		return ""
	}
	return g.Driver.Name()
}

// Generate sends prompt and returns the generated text trimmed of
// surrounding whitespace. Every failure is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.Driver == nil {
		return "", &GenerationError{Reason: ReasonNotConfigured, Message: "generation client not configured"}
	}
	provider := g.Driver.Name()

	messages := make([]content.Message, 0, 2)
	if g.System != "" {
		messages = append(messages, content.Text(content.RoleSystem, g.System))
	}
	messages = append(messages, content.Text(content.RoleUser, prompt))

	ctx, cancel := driver.WithTimeout(ctx, g.Timeout)
	if cancel != nil {
		defer cancel()
	}

	resp, err := g.Driver.Complete(ctx, &driver.Request{
		Model:       g.Model,
		Messages:    messages,
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
		PromptSlug:  g.PromptSlug,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, context.DeadlineExceeded)
		}
		return "", mapProviderError(provider, err, g.diagnosticLimit)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		msg := provider + " returned an empty response"
		if resp.FinishReason != "" {
			msg += " (finish reason " + resp.FinishReason + ")"
		}
		return "", &GenerationError{Provider: provider, Reason: ReasonEmptyResponse, Message: msg}
	}
	return text, nil
}
