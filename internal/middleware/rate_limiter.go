// internal/middleware/rate_limiter.go
// Rate limiting to prevent abuse, backed by Redis. Grounded on the
// teacher's services.CacheService.Increment (Incr+Expire pipeline),
// inlined directly against *redis.Client since the Router has no
// separate cache service.

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter limits each caller to limit requests per window, keyed by
// authenticated user id when present, else client IP.
func RateLimiter(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID, exists := c.Get("user_id"); exists {
			key = fmt.Sprintf("rate_limit:user:%v", userID)
		} else {
			key = fmt.Sprintf("rate_limit:ip:%s", c.ClientIP())
		}

		count, err := increment(c.Request.Context(), client, key, window)
		if err != nil {
			// Don't block requests on a rate limiter outage.
			c.Next()
			return
		}

		if count > limit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit-count))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))

		c.Next()
	}
}

func increment(ctx context.Context, client *redis.Client, key string, window time.Duration) (int, error) {
	pipe := client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment rate limit key: %w", err)
	}
	return int(incr.Val()), nil
}
