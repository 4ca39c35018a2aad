// Package ratelimit implements a fixed-window counter over the cache
// store. It guards the suggestion endpoint against keystroke storms.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Counter is the subset of the cache store the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter counts requests per caller in fixed windows.
type Limiter struct {
	store  Counter
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewLimiter creates a limiter allowing limit requests per window.
// Non-positive values default to 30 requests per minute.
func NewLimiter(store Counter, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, limit: int64(limit), window: window, logger: logger}
}

// Allow reports whether the caller may proceed. The first hit of a window
// arms the expiry. Store failures fail open: suggestions degrade to
// unthrottled rather than unavailable.
func (l *Limiter) Allow(ctx context.Context, scope, callerID string) bool {
	if callerID == "" {
		callerID = "anonymous"
	}
	key := fmt.Sprintf("rate_limit:%s_%s", scope, callerID)

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit counter failed, allowing",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return true
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			l.logger.WarnContext(ctx, "rate limit expiry failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return count <= l.limit
}
