package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pix-link-gateway/internal/core/ports"
)

const rateLimitKeyPrefix = "ratelimit:"

type rateLimitStore struct {
	client *redis.Client
}

// NewRateLimitStore builds a fixed-window counter store. INCR and EXPIRE
// run in one pipeline; the TTL is only set when the counter is fresh.
func NewRateLimitStore(client *redis.Client) ports.RateLimitStore {
	return &rateLimitStore{client: client}
}

func (s *rateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := rateLimitKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	return incr.Val(), nil
}
