package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// memoryLimiter is a per-process fixed-window counter.
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{clients: make(map[string]*clientInfo)}
}

// allow counts one hit for key and reports the running count.
func (l *memoryLimiter) allow(key string, maxRequests int, window time.Duration) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > window {
		// drop expired entries while we hold the lock
		for k, v := range l.clients {
			if now.Sub(v.start) > window {
				delete(l.clients, k)
			}
		}
		ci = &clientInfo{start: now}
		l.clients[key] = ci
	}
	ci.count++
	return ci.count, ci.count <= maxRequests
}

// SimpleRateLimit blocks clients that send more than maxRequests per window.
// It is used when no Redis is configured.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := newMemoryLimiter()
	return func(c *gin.Context) {
		if _, ok := l.allow(c.ClientIP(), maxRequests, window); !ok {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
