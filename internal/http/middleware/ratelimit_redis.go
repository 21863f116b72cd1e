package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RedisRateLimit implements a fixed-window rate limiter using Redis INCR/EXPIRE,
// keyed rl:<window_seconds>:<client ip>. A nil client falls back to the
// in-process limiter; Redis errors fail open.
func RedisRateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return SimpleRateLimit(maxRequests, window)
	}
	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"
	return redisLimit(rdb, maxRequests, window, func(c *gin.Context) (string, bool) {
		return prefix + c.ClientIP(), true
	})
}

// PlayerRateLimit limits moves per player rather than per IP. It needs the
// session middleware to run first.
func PlayerRateLimit(rdb *redis.Client, maxMoves int, window time.Duration) gin.HandlerFunc {
	keyFn := func(c *gin.Context) (string, bool) {
		sess, ok := SessionFrom(c)
		if !ok {
			return "", false
		}
		return "player_rl:" + sess.PlayerID + ":" + strconv.FormatInt(int64(window.Seconds()), 10), true
	}

	if rdb == nil {
		l := newMemoryLimiter()
		return func(c *gin.Context) {
			key, ok := keyFn(c)
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			n, allowed := l.allow(key, maxMoves, window)
			limitHeaders(c, maxMoves, int64(n))
			if !allowed {
				block(c, window)
				return
			}
			RLRequests.WithLabelValues("player:" + c.FullPath()).Inc()
			c.Next()
		}
	}
	return redisLimit(rdb, maxMoves, window, keyFn)
}

func redisLimit(rdb *redis.Client, maxRequests int, window time.Duration, keyFn func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyFn(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := c.Request.Context()

		val, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// fail open but tell the client
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			rdb.Expire(ctx, key, window)
		}

		limitHeaders(c, maxRequests, val)
		if val > int64(maxRequests) {
			block(c, window)
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func limitHeaders(c *gin.Context, limit int, used int64) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-used), 10))
}

func block(c *gin.Context, window time.Duration) {
	RLBlocked.WithLabelValues(c.FullPath()).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "rate limit exceeded",
		"retry_after": int(window.Seconds()),
	})
}
