package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every server instance
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter allowing limit requests per window per key
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("limit and window must be greater than 0")
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}, nil
}

// fixedWindow increments the counter and starts its window on the first hit
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Allow counts the request against key's current window
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, errors.New("unexpected redis script result")
	}

	count := int(res[0])
	d := Decision{Limit: r.limit}
	if count <= r.limit {
		d.Allowed = true
		d.Remaining = r.limit - count
		return d, nil
	}

	d.RetryAfter = time.Duration(res[1]) * time.Millisecond
	if d.RetryAfter <= 0 {
		d.RetryAfter = r.window
	}
	return d, nil
}

// Reset clears key's counter
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
