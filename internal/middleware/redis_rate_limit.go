package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blogpulse/backend/internal/cache"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed rate limiter using
// Redis so the limit holds across replicas. When Redis is down or
// errors, it degrades to a per-process token bucket rather than
// failing requests.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  RateLimitConfig{Limit: maxRequests, Window: window},
	}

	return func(c *gin.Context) {
		if exemptPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		clientIP := c.ClientIP()

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			limitLocally(c, fallback, clientIP)
			return
		}

		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Warn("Redis rate limiter unavailable, using in-memory fallback",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			limitLocally(c, fallback, clientIP)
			return
		}

		// Start the window on the first request
		if count == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(clientIP),
					zap.Error(err),
				)
			}
		}

		if count > int64(maxRequests) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", count),
			)
			RecordRateLimitExceeded("redis", c.Request.Method)
			rejectRateLimited(c, maxRequests, int(window.Seconds()))
			return
		}

		c.Next()
	}
}

// limitLocally applies the in-memory fallback bucket for one request
func limitLocally(c *gin.Context, rl *RateLimiter, clientIP string) {
	if rl.Allow(clientIP) {
		c.Next()
		return
	}
	RecordRateLimitExceeded("memory", c.Request.Method)
	rejectRateLimited(c, rl.config.Limit, rl.GetRetryAfter(clientIP))
}

func rejectRateLimited(c *gin.Context, limit, retryAfter int) {
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "rate limit exceeded",
		"retry_after": retryAfter,
	})
}
