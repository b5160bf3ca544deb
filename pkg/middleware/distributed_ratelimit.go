package middleware

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// allowScript counts a request and starts the window clock in one step. A key that
// somehow lost its TTL gets it back instead of limiting forever.
var allowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// DistributedRateLimiter is a fixed-window limiter shared across instances through Redis
type DistributedRateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(client *redis.Client, config RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config.RequestsPerWindow <= 0 || config.WindowDuration <= 0 {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "hrportal:ratelimit"
	}
	return &DistributedRateLimiter{redis: client, config: config, prefix: prefix}
}

// Allow implements Limiter
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := allowScript.Run(ctx, rl.redis, []string{redisKey}, rl.config.WindowDuration.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	limit := int64(rl.config.RequestsPerWindow + rl.config.BurstSize)
	return count <= limit, nil
}

// Config implements Limiter
func (rl *DistributedRateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Reset clears the window of key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}
