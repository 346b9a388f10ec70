package metrics

import (
	"time"

	"github.com/ownmytodo/todoai/internal/observability"
)

// Rewrite pipeline metrics
const (
	RewriteRequestsTotal      = "rewrite_requests_total"
	RateLimitRejectionsTotal  = "rate_limit_rejections_total"
	RateLimitStoreErrorsTotal = "rate_limit_store_errors_total"
	GenerationDuration        = "generation_duration_ms"
	GenerationFailuresTotal   = "generation_failures_total"
)

// Rewrite outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeValidation    = "validation"
	OutcomeRateLimited   = "rate_limited"
	OutcomeConfiguration = "configuration"
	OutcomeUpstream      = "upstream"
)

// RecordRewrite counts a finished rewrite by outcome.
func RecordRewrite(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RewriteRequestsTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordRateLimitRejection counts a request refused by the limiter.
func RecordRateLimitRejection(backend string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitRejectionsTotal,
			1,
			map[string]string{"backend": backend},
		)
	}
}

// RecordRateLimitStoreError counts a limiter store failure that let a request through.
func RecordRateLimitStoreError(backend string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitStoreErrorsTotal,
			1,
			map[string]string{"backend": backend},
		)
	}
}

// RecordGeneration records one upstream generation attempt.
func RecordGeneration(provider string, duration time.Duration, reason string) {
	if observability.TelemetrySystem == nil {
		return
	}
	status := "success"
	if reason != "" {
		status = "failure"
	}
	_ = observability.TelemetrySystem.Histogram(
		GenerationDuration,
		duration,
		map[string]string{"provider": provider, "status": status},
	)
	if reason != "" {
		_ = observability.TelemetrySystem.Counter(
			GenerationFailuresTotal,
			1,
			map[string]string{"provider": provider, "reason": reason},
		)
	}
}
