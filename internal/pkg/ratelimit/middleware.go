package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

// KeyFunc picks the bucket a request is counted against
type KeyFunc func(c *gin.Context) string

// Middleware creates a rate limiting middleware keyed by client IP
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return CustomKeyMiddleware(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// UserBasedMiddleware keys on the user id set by the auth middleware, falling back to IP
func UserBasedMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return CustomKeyMiddleware(limiter, func(c *gin.Context) string {
		return c.GetString("userID")
	})
}

// CustomKeyMiddleware creates a rate limiting middleware with custom key function
func CustomKeyMiddleware(limiter *RateLimiter, keyFunc KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = c.ClientIP()
		}

		d := limiter.Take(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", d.ResetAt.Format(time.RFC3339))

		if !d.Allowed {
			retryAfter := time.Until(d.ResetAt).Round(time.Second)
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))

			response.ErrorWithData(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.", "RATE_LIMITED", gin.H{
				"limiter":     limiter.Name(),
				"retry_after": retryAfter.String(),
				"reset_time":  d.ResetAt.Format(time.RFC3339),
				"limit":       limiter.Limit(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
