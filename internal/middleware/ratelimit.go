package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wordarena/backend/internal/config"
)

// RateLimitMiddleware enforces a fixed per-minute request budget per client
// IP and route. Counters live in Redis so all instances share one window;
// without Redis the limiter stands down rather than block traffic.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	if rdb == nil {
		log.Printf("[RATELIMIT] Redis not configured, rate limiting disabled")
		return func(c *gin.Context) { c.Next() }
	}
	limit := int64(cfg.RateLimitPerMinute)

	return func(c *gin.Context) {
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%s:%d", c.ClientIP(), c.FullPath(), window)

		n, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Redis trouble must not take the API down.
			c.Next()
			return
		}
		if n == 1 {
			// Two minutes covers the window plus clock skew between instances.
			rdb.Expire(c.Request.Context(), key, 2*time.Minute)
		}
		if n > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded."})
			return
		}
		c.Next()
	}
}
