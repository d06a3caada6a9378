package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"slide_to_glory/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If the ping fails redisClient stays nil and RateLimit uses process memory.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting in memory", "addr", addr, "error", err)
		redisClient = nil
		return
	}
	logger.Info("redis rate limiter connected", "addr", addr)
}

// CloseRedisRateLimiter releases the shared client.
func CloseRedisRateLimiter() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// RateLimit limits by client IP, in Redis when configured and in memory otherwise.
// Limiters with different scopes count separately even when stacked on one route.
func RateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := SimpleRateLimit(maxRequests, window)
	shared := RedisRateLimit(scope, maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}
		shared(c)
	}
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<scope>:<window_seconds>:<identifier>
func RedisRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return redisLimit("rl:"+scope, maxRequests, window, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	})
}

// UserRateLimit limits per authenticated username. Requires JWT to run first.
// key format: user_rl:<window_seconds>:<username>
func UserRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return redisLimit("user_rl", maxRequests, window, func(c *gin.Context) (string, bool) {
		name, ok := Username(c)
		return name, ok
	})
}

func redisLimit(prefix string, maxRequests int, window time.Duration, ident func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			// fail-open when Redis is not configured
			c.Next()
			return
		}

		id, ok := ident(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		key := rateKey(prefix, window, id)
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.FormatInt(int64(window.Seconds()), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func rateKey(prefix string, window time.Duration, id string) string {
	return prefix + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + id
}
