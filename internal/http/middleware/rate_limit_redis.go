package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisWindowLimiter counts requests in fixed windows shared across
// instances. INCR and the window expiry run in one pipeline so a counter can
// never be created without a TTL.
func NewRedisWindowLimiter(client redis.UniversalClient, prefix string) Limiter {
	if prefix == "" {
		prefix = "rate_limit"
	}
	return &redisWindowLimiter{client: client, prefix: prefix}
}

func (l *redisWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()
	bucket := now.Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	resetAt := time.Unix((bucket+1)*int64(window.Seconds()), 0)
	if count > limit {
		return Decision{
			Allowed:    false,
			RetryAfter: time.Until(resetAt),
			Remaining:  0,
			ResetAt:    resetAt,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
