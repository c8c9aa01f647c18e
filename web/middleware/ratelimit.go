package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/cache"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures a fixed-window request limit. With
// ResetOnSuccess a response below 400 clears the key's counter.
type RateLimitConfig struct {
	Requests       int
	Window         time.Duration
	KeyFunc        func(c *gin.Context) string
	ResetOnSuccess bool
}

// LoginRateLimitConfig limits failed attempts per client IP per minute.
func LoginRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Requests: perMinute,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
		ResetOnSuccess: true,
	}
}

// RateLimit counts requests per key in Redis and answers 429 once the limit
// is reached. Redis failures let the request through.
func RateLimit(r *cache.Redis, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.Requests <= 0 {
			c.Next()
			return
		}
		key := config.KeyFunc(c)
		rateLimitKey := "visitlog:ratelimit:" + c.FullPath() + ":" + key

		count, ttl, err := r.Incr(c.Request.Context(), rateLimitKey, config.Window)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}

		remaining := max(config.Requests-int(count), 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > config.Requests {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.FullPath(), count)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			Abort(c, common.TooManyRequests("error.tooManyAttempts"))
			return
		}
		c.Next()

		if config.ResetOnSuccess && !c.IsAborted() && c.Writer.Status() < http.StatusBadRequest {
			if err := r.Delete(c.Request.Context(), rateLimitKey); err != nil {
				logger.Warning("Rate limit reset failed:", err)
			}
		}
	}
}
