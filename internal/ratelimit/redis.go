package ratelimit

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the distributed variant for multi-instance deployments:
// INCR the key, PEXPIRE on first hit, PTTL for the retry hint. It fails
// open when Redis is unreachable so a cache outage does not take chat down
// with it.
type RedisLimiter struct {
	Redis *redis.Client
	Ctx   context.Context
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{Redis: rdb, Ctx: context.Background()}
}

// Admit counts one attempt in Redis for every window of the class,
// tighter window first.
func (l *RedisLimiter) Admit(identity string, class Class) Result {
	for _, w := range classWindows[class] {
		key := "rate_limit:" + w.prefix + identity

		current, err := l.Redis.Incr(l.Ctx, key).Result()
		if err != nil {
			log.Printf("ratelimit: redis incr failed, failing open: %v", err)
			return Result{OK: true}
		}
		if current == 1 {
			if err := l.Redis.PExpire(l.Ctx, key, w.duration).Err(); err != nil {
				log.Printf("ratelimit: redis pexpire failed for %s: %v", key, err)
			}
		}
		if current > int64(w.threshold) {
			ttl, err := l.Redis.PTTL(l.Ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = w.duration
			}
			return Result{RetryAfter: int(math.Ceil(float64(ttl) / float64(time.Second)))}
		}
	}
	return Result{OK: true}
}
