package ratelimit_test

import (
	"testing"
	"time"

	"civicchat/backend/internal/ratelimit"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// TestRedisLimiter_FailsOpenWhenRedisUnreachable: a Redis outage must never
// block chat, so an unreachable backend admits everything.
func TestRedisLimiter_FailsOpenWhenRedisUnreachable(t *testing.T) {
	// Arrange: a client pointed at a port nothing listens on.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	limiter := ratelimit.NewRedisLimiter(rdb)

	// Act / Assert: well past every threshold, still admitted.
	for i := 0; i < 15; i++ {
		res := limiter.Admit(ratelimit.IdentityForUser(1), ratelimit.ClassMessage)
		assert.True(t, res.OK, "attempt %d must fail open", i+1)
	}
}
