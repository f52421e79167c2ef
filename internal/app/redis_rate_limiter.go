package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// The counter and its TTL must move together, so the increment, expiry, and
// TTL read run as one Lua script.
var pinRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisRateLimiter implements RateLimiter on Redis so that PIN attempt counts
// are shared across service instances.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "paym:pin_rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisRateLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  limit,
		window: window,
	}
}

// Allow runs the counter script and compares the result against the limit.
// The wall-clock argument is unused; Redis owns the window via the key TTL.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	if r == nil || r.client == nil || r.limit <= 0 || r.window <= 0 {
		return true, 0, nil
	}

	windowMs := r.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)
	rawResult, err := pinRateLimitScript.Run(ctx, r.client, []string{redisKey}, windowMs).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}

	currentCount, ok := values[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}

	ttlMs, ok := values[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	if currentCount > int64(r.limit) {
		return false, time.Duration(ttlMs) * time.Millisecond, nil
	}
	return true, 0, nil
}
