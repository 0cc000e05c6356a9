// Package ratelimit implements a sliding-window rate limiter on Redis
// sorted sets. Each identifier owns one ZSET whose members are request
// nonces scored by arrival time; counting live members inside the
// window gives an exact sliding count, not a fixed-bucket approximation.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
)

const keyPrefix = "ratelimit:"

// Limiter decides whether a request identified by a caller-derived
// string may proceed. The limiter fails open: when the store is
// unreachable the request is allowed, availability over strictness.
type Limiter struct {
	client  redis.UniversalClient
	limit   int
	window  time.Duration
	enabled bool
}

// Config holds the limiter settings.
type Config struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		client:  client,
		limit:   cfg.Limit,
		window:  cfg.Window,
		enabled: cfg.Enabled,
	}
}

// Allow reports whether the request may proceed. The four commands run
// as one atomic pipeline: evict members older than the window, count
// the survivors, record this request, refresh the key TTL. The count
// excludes the current request, so exactly limit requests pass per
// window.
func (l *Limiter) Allow(ctx context.Context, identifier string) bool {
	if !l.enabled {
		return true
	}

	now := time.Now()
	windowStart := now.Add(-l.window)
	key := keyPrefix + identifier

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", "("+strconv.FormatInt(windowStart.UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString(),
	})
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logging.WarnContext(ctx, "rate limit store unavailable, failing open",
			"identifier", identifier, "error", err)
		return true
	}

	if card.Val() >= int64(l.limit) {
		metrics.RecordRateLimitRejection(identifierType(identifier))
		return false
	}
	return true
}

// identifierType extracts the prefix ("client", "ip", "method") for metrics.
func identifierType(identifier string) string {
	for i := 0; i < len(identifier); i++ {
		if identifier[i] == ':' {
			return identifier[:i]
		}
	}
	return "unknown"
}
