// Package ratelimit provides per-identity admission control over a rolling
// time window.
//
// A Limiter owns the policy (requests per window) and delegates state to a
// Store. Stores must apply the check-and-record step atomically for a given
// identity so that concurrent requests from one caller cannot undercount.
// Different identities are independent.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names for rate_limit.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultPolicy is 10 requests per rolling 60 seconds.
var DefaultPolicy = Policy{Requests: 10, Window: time.Minute}

// Policy is a rolling window limit.
type Policy struct {
	Requests int
	Window   time.Duration
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", p.Requests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", p.Window)
	}
	return nil
}

// String renders the policy as "10/1m0s".
func (p Policy) String() string {
	return fmt.Sprintf("%d/%s", p.Requests, p.Window)
}

// Decision is the outcome of one admission attempt.
type Decision struct {
	Allowed bool
	// Remaining is the number of further requests admissible in the current window.
	Remaining int
	// RetryAfter is zero when allowed; otherwise the time until the oldest
	// counted request leaves the window.
	RetryAfter time.Duration
	Policy     Policy
}

// Store holds per-identity window state.
type Store interface {
	// Take records a request for identity at now if fewer than policy.Requests
	// requests were recorded in (now-policy.Window, now]. Rejected attempts are
	// not recorded.
	Take(ctx context.Context, identity string, now time.Time, policy Policy) (Decision, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Close releases background resources.
	Close() error
}

// Limiter enforces a Policy per identity.
type Limiter struct {
	Store  Store
	Policy Policy
	Clock  func() time.Time
}

// New builds a limiter over store. A zero policy falls back to DefaultPolicy.
func New(store Store, policy Policy) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	if policy == (Policy{}) {
		policy = DefaultPolicy
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{Store: store, Policy: policy}, nil
}

// Admit decides whether identity may proceed at now.
//
// When the store fails, the returned decision allows the request and err is
// non-nil; the caller picks fail-open or fail-closed.
func (l *Limiter) Admit(ctx context.Context, identity string, now time.Time) (Decision, error) {
	if l == nil || l.Store == nil {
		return Decision{Allowed: true}, nil
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		identity = "unknown"
	}

	dec, err := l.Store.Take(ctx, identity, now, l.Policy)
	if err != nil {
		return Decision{Allowed: true, Policy: l.Policy}, err
	}
	dec.Policy = l.Policy
	return dec, nil
}

// Now returns the limiter clock reading.
func (l *Limiter) Now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

// Ping checks the underlying store.
func (l *Limiter) Ping(ctx context.Context) error {
	if l == nil || l.Store == nil {
		return nil
	}
	return l.Store.Ping(ctx)
}

// Close releases the underlying store.
func (l *Limiter) Close() error {
	if l == nil || l.Store == nil {
		return nil
	}
	return l.Store.Close()
}
