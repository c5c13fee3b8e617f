package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding window counter backed by a Redis sorted set per key.
// A nil client disables limiting, which keeps local development and tests
// working without Redis.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow records one request under key and reports whether it fits in the
// window. Expired members are trimmed before counting so the window slides
// instead of stepping.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Limit: max, Remaining: max, ResetAt: time.Now().Add(window)}, nil
	}

	now := time.Now()
	resetAt := now.Add(window)
	cutoff := float64(now.Add(-window).UnixNano())

	redisKey := l.Prefix + key
	member := fmt.Sprintf("%s:%s", key, uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: resetAt}, err
	}

	current := int(countCmd.Val())
	remaining := max - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   current <= max,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
