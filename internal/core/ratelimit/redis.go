package ratelimit

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed sliding_window.lua
var slidingWindowScript string

const defaultRedisPrefix = "todoai:ratelimit:"

// RedisStore keeps sliding logs in Redis sorted sets so that several
// replicas share one budget per identity. The Lua script makes the
// prune/count/insert cycle atomic.
type RedisStore struct {
	client  *redis.Client
	script  *redis.Script
	prefix  string
	timeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix (default "todoai:ratelimit:").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTimeout bounds each Redis round trip.
func WithTimeout(timeout time.Duration) RedisOption {
	return func(s *RedisStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewRedisStore pings the server and preloads the script.
func NewRedisStore(ctx context.Context, client *redis.Client, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}

	s := &RedisStore{
		client:  client,
		script:  redis.NewScript(slidingWindowScript),
		prefix:  defaultRedisPrefix,
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := client.Ping(loadCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if err := s.script.Load(loadCtx, client).Err(); err != nil {
		return nil, fmt.Errorf("load rate limit script: %w", err)
	}
	return s, nil
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, identity string, now time.Time, policy Policy) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	member := fmt.Sprintf("%d-%s", now.UnixMicro(), uuid.NewString())
	values, err := s.script.Run(ctx, s.client, []string{s.prefix + identity},
		now.UnixMicro(),
		policy.Window.Microseconds(),
		policy.Requests,
		member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(values) != 3 {
		return Decision{}, fmt.Errorf("redis rate limit: unexpected script reply of length %d", len(values))
	}

	return Decision{
		Allowed:    values[0] == 1,
		Remaining:  int(values[1]),
		RetryAfter: time.Duration(values[2]) * time.Microsecond,
	}, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
