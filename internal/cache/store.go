// Package cache provides the Redis-backed store used for result caching,
// filter persistence, rate limiting, and usage counters, plus an in-memory
// implementation for tests and single-node deployments.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key does not exist (or has expired).
var ErrMiss = errors.New("cache: key not found")

// ScoredMember is one member of a sorted set with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the key-value surface the service needs: strings with TTLs,
// counters, lists for histories, and sorted sets for usage ranking.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)

	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	Ping(ctx context.Context) error
}
