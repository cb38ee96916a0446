package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/logging"
	"foodgram/internal/metrics"
	"foodgram/internal/ratelimit"
)

// RateLimit rejects clients over their budget with 429. Authenticated
// requests are keyed by user id, the rest by client IP. A limiter backend
// failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := Identity(c); !id.IsAnonymous() {
			key = "user:" + id.UserID
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("backend", limiter.Backend()).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitedTotal.WithLabelValues(limiter.Backend()).Inc()
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "request was throttled",
				Code:  "throttled",
			})
			return
		}
		c.Next()
	}
}
