package middleware

import (
	"fmt"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns a middleware enforcing the coarse per-IP window across
// the whole API. The stricter login throttles live in the auth module. A
// Redis outage fails open.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		windowStart := now.Truncate(cfg.GlobalWindow)
		key := fmt.Sprintf("pcm:rl:global:%s:%d", ip, windowStart.Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, cfg.GlobalWindow+time.Second)
		}

		if count > int64(cfg.GlobalMax) {
			remaining := windowStart.Add(cfg.GlobalWindow).Sub(now)
			secs := int(remaining.Seconds())
			if remaining > time.Duration(secs)*time.Second {
				secs++
			}
			response.TooManyRequests(c, secs, "global")
			return
		}

		c.Next()
	}
}
