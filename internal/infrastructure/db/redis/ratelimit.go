package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter implements a fixed-window request counter backed by Redis.
// Key format: ratelimit:<scope>:<identifier>
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLimiter creates a Limiter allowing limit hits per window for each
// identifier.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: int64(limit), window: window}
}

// Allow records one hit for the identifier and reports whether it is still
// inside the limit. The window TTL is set when the counter is first created.
func (l *Limiter) Allow(ctx context.Context, scope, identifier string) (bool, error) {
	key := l.key(scope, identifier)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	return n <= l.limit, nil
}

func (l *Limiter) key(scope, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, identifier)
}
