package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "googleapi:rl:"

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter performs sliding-window rate limiting backed by Redis sorted sets.
// With no Redis client, or when Redis fails, every check passes.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// slidingWindowScript trims entries older than the window, then admits the
// request if the remaining count is below the limit.
// KEYS[1] sorted set; ARGV: window start, now (unix micro), limit, ttl seconds.
// Returns {count, allowed}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, ttl)
    return {count + 1, 1}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
redis.call('EXPIRE', key, ttl)
if oldest[2] then
    return {count, 0, tonumber(oldest[2])}
end
return {count, 0}
`)

// Check admits one request against key. limit <= 0 means unlimited.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) (LimitResult, error) {
	now := l.now()
	if limit <= 0 {
		return LimitResult{Allowed: true, ResetAt: now.Add(window)}, nil
	}
	if l.rdb == nil {
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: now.Add(window)}, nil
	}

	ttlSecs := int64(window.Seconds()) + 1
	result, err := slidingWindowScript.Run(ctx, l.rdb, []string{redisKeyPrefix + key},
		now.Add(-window).UnixMicro(), now.UnixMicro(), limit, ttlSecs,
	).Int64Slice()
	if err != nil {
		slog.Warn("rate limit check failed, allowing request", "key", key, "error", err)
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now.Add(window)}, nil
	}

	return buildResult(now, limit, window, result), nil
}

func buildResult(now time.Time, limit int64, window time.Duration, result []int64) LimitResult {
	count, allowed := result[0], result[1] == 1
	res := LimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   now.Add(window),
	}
	if allowed {
		return res
	}

	// The oldest entry leaving the window frees the next slot.
	res.RetryAfter = window / 2
	if len(result) > 2 {
		freeAt := time.UnixMicro(result[2]).Add(window)
		res.RetryAfter = max(freeAt.Sub(now), time.Second)
		res.ResetAt = freeAt
	}
	return res
}

// Key builds a bucket key from its parts, e.g. Key("tenant", id, "geocode").
func Key(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// ExceededError is returned by Quota when a request is over its limit.
type ExceededError struct {
	Scope  string
	API    string
	Result LimitResult
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s %s: %d requests per window", e.Scope, e.API, e.Result.Limit)
}
