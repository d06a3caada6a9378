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

// memoryLimiter is a per-process fixed window, used when Redis is not configured.
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	max     int
	window  time.Duration
}

func newMemoryLimiter(maxRequests int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		clients: make(map[string]*clientInfo),
		max:     maxRequests,
		window:  window,
	}
}

// allow counts one hit for key and reports whether it is within the limit.
func (l *memoryLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > l.window {
		l.clients[key] = &clientInfo{start: now, count: 1}
		l.sweep(now)
		return true
	}

	ci.count++
	return ci.count <= l.max
}

// sweep drops expired windows; caller holds mu
func (l *memoryLimiter) sweep(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for k, ci := range l.clients {
		if now.Sub(ci.start) > l.window {
			delete(l.clients, k)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := newMemoryLimiter(maxRequests, window)
	return func(c *gin.Context) {
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		if !l.allow(c.ClientIP(), time.Now()) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
