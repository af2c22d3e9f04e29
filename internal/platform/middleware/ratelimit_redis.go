package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every server instance.
// A window admits BurstSize requests and lasts BurstSize/RequestsPerSecond
// seconds, so the sustained rate matches the in-memory limiter.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedisLimiter(rdb *redis.Client, cfg RateLimitConfig, prefix string) *RedisLimiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	window := time.Second
	if cfg.RequestsPerSecond > 0 {
		window = time.Duration(float64(burst) / cfg.RequestsPerSecond * float64(time.Second))
	}
	if window < time.Millisecond {
		window = time.Millisecond
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: int64(burst), window: window, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	count, err := l.incr(ctx, l.prefix+":"+key)
	if err != nil {
		return false, 0, err
	}
	if count > l.limit {
		return false, int(math.Ceil(l.window.Seconds())), nil
	}
	return true, 0, nil
}

func (l *RedisLimiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}
