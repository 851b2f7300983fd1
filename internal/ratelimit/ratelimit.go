package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter is a per-user token bucket backed by Redis. Bucket state lives in
// a Redis hash and is refilled and consumed atomically by a Lua script.
type Limiter struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens refilled per window
	window   time.Duration
}

func NewLimiter(redisClient *redis.Client, capacity, refillRate int64) *Limiter {
	return &Limiter{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

// Refill and consume in one round trip so concurrent requests cannot
// double-spend a token.
const bucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refilled = math.floor((elapsed / window) * refill_rate)
	if refilled > 0 then
		tokens = math.min(capacity, tokens + refilled)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

// Allow consumes one token from the user's bucket for the given action.
func (l *Limiter) Allow(ctx context.Context, userID, action string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", userID, action)
	now := time.Now().Unix()

	result, err := l.redis.Eval(ctx, bucketScript, []string{key},
		l.capacity, l.refill, int64(l.window.Seconds()), now).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	return allowed == 1, nil
}

// Remaining reports how many tokens the user currently has for an action,
// without consuming any.
func (l *Limiter) Remaining(ctx context.Context, userID, action string) (int64, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", userID, action)

	tokens, err := l.redis.HGet(ctx, key, "tokens").Int64()
	if err == redis.Nil {
		return l.capacity, nil
	}
	if err != nil {
		return 0, err
	}

	return tokens, nil
}
