package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/ailink"
	"github.com/ownmytodo/todoai/internal/ailink/prompt"
	"github.com/ownmytodo/todoai/internal/core/ratelimit"
	"github.com/ownmytodo/todoai/internal/metrics"
	"github.com/ownmytodo/todoai/internal/observability"
)

// Admitter decides whether a caller may proceed.
type Admitter interface {
	Admit(ctx context.Context, identity string, now time.Time) (ratelimit.Decision, error)
}

// Generator produces text for a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service runs the rewrite pipeline.
type Service struct {
	generator   Generator
	limiter     Admitter
	template    *prompt.Template
	configured  bool
	placeholder string
	location    *time.Location
	clock       func() time.Time
	backend     string
	provider    string
}

// Option configures a Service.
type Option func(*Service)

// WithCredentialConfigured records whether the generation credential is
// present. Without it every request fails with KindConfiguration.
func WithCredentialConfigured(ok bool) Option {
	return func(s *Service) {
		s.configured = ok
	}
}

// WithPlaceholder overrides the text used for absent optional fields.
func WithPlaceholder(placeholder string) Option {
	return func(s *Service) {
		if placeholder != "" {
			s.placeholder = placeholder
		}
	}
}

// WithLocation sets the timezone used for the current time.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLabels sets the limiter backend and provider names used in metrics.
func WithLabels(backend, provider string) Option {
	return func(s *Service) {
		s.backend = backend
		s.provider = provider
	}
}

// NewService wires the pipeline. tmpl falls back to the embedded default.
func NewService(gen Generator, limiter Admitter, tmpl *prompt.Template, opts ...Option) (*Service, error) {
	if gen == nil {
		return nil, errors.New("rewrite: generator is required")
	}
	if tmpl == nil {
		def, err := prompt.DefaultTemplate()
		if err != nil {
			return nil, fmt.Errorf("rewrite: load default prompt: %w", err)
		}
		tmpl = def
	}

	s := &Service{
		generator:   gen,
		limiter:     limiter,
		template:    tmpl,
		configured:  true,
		placeholder: DefaultPlaceholder,
		location:    time.Local,
		clock:       time.Now,
		backend:     ratelimit.BackendMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == "" {
		if p, ok := gen.(interface{ Provider() string }); ok {
			s.provider = p.Provider()
		}
	}
	return s, nil
}

// Ready reports whether requests can be served.
func (s *Service) Ready() bool {
	return s != nil && s.configured && s.generator != nil
}

// CheckConfigured fails when no credential is configured.
func (s *Service) CheckConfigured() error {
	if s.Ready() {
		return nil
	}
	return &Error{Kind: KindConfiguration, Message: "server configuration error: AI API key is not configured"}
}

// Validate checks a decoded request.
func Validate(req *Request) error {
	if req == nil {
		return validationError("request body is required", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return validationError("title is required", nil)
	}
	return nil
}

// Rewrite runs the pipeline for one request from identity.
func (s *Service) Rewrite(ctx context.Context, identity string, req *Request) (*Response, error) {
	resp, err := s.rewrite(ctx, identity, req)
	metrics.RecordRewrite(outcome(err))
	return resp, err
}

func (s *Service) rewrite(ctx context.Context, identity string, req *Request) (*Response, error) {
	if err := s.CheckConfigured(); err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	if err := s.admit(ctx, identity); err != nil {
		return nil, err
	}

	text := s.template.Render(s.promptContext(req))

	start := time.Now()
	out, err := s.generator.Generate(ctx, text)
	reason := ""
	if err != nil {
		reason = string(ailink.ReasonTransport)
		if gerr, ok := ailink.AsGenerationError(err); ok {
			reason = string(gerr.Reason)
		}
	}
	metrics.RecordGeneration(s.provider, time.Since(start), reason)

	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "AI service call failed: " + upstreamDiagnostic(err), Err: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, &Error{Kind: KindUpstream, Message: "AI service call failed: empty response"}
	}
	return &Response{Rewritten: out}, nil
}

func (s *Service) admit(ctx context.Context, identity string) error {
	if s.limiter == nil {
		return nil
	}

	dec, err := s.limiter.Admit(ctx, identity, s.clock())
	if err != nil {
		// the limiter reports Allowed on store failure
		metrics.RecordRateLimitStoreError(s.backend)
		if logger := observability.Logger(); logger != nil {
			logger.Warn("rate limit store unavailable, admitting request",
				zap.String("backend", s.backend),
				zap.Error(err))
		}
	}
	if dec.Allowed {
		return nil
	}

	metrics.RecordRateLimitRejection(s.backend)
	msg := "rate limit exceeded"
	if dec.Policy.Requests > 0 {
		msg = fmt.Sprintf("rate limit exceeded: %d requests per %s", dec.Policy.Requests, dec.Policy.Window)
	}
	return &Error{Kind: KindRateLimited, Message: msg, Decision: dec}
}

func (s *Service) promptContext(req *Request) prompt.Context {
	return prompt.Context{
		Title:       req.Title,
		TodayTodos:  optional(req.TodayTodos, s.placeholder),
		CurrentTime: s.clock().In(s.location).Format(TimeLayout),
		UserContext: optional(req.UserContext, s.placeholder),
	}
}

func upstreamDiagnostic(err error) string {
	if gerr, ok := ailink.AsGenerationError(err); ok && gerr.Message != "" {
		return gerr.Message
	}
	return err.Error()
}

func outcome(err error) string {
	switch KindOf(err) {
	case "":
		if err != nil {
			return metrics.OutcomeUpstream
		}
		return metrics.OutcomeSuccess
	case KindValidation:
		return metrics.OutcomeValidation
	case KindRateLimited:
		return metrics.OutcomeRateLimited
	case KindConfiguration:
		return metrics.OutcomeConfiguration
	default:
		return metrics.OutcomeUpstream
	}
}
