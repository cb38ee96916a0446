package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, taken from the upstream proxy
// when present, and stores a logger carrying it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(c.Request.Context(), requestID)
		l := logging.With().Str("request_id", requestID).Logger()
		ctx = logging.ContextWithLogger(ctx, l)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := logging.Ctx(c.Request.Context()).Info()
		switch {
		case status >= 500:
			event = logging.Ctx(c.Request.Context()).Error()
		case status >= 400:
			event = logging.Ctx(c.Request.Context()).Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}
