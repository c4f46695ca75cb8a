package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mwantia/tuneful/pkg/log"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every request once it has been handled. The level
// follows the status class of the response.
func RequestLogger(logger log.LoggerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		duration := time.Since(start)

		switch {
		case status >= 500:
			logger.Error("%s %s -> %d (%s) request_id=%s", c.Request.Method, path, status, duration, requestID)
		case status >= 400:
			logger.Warn("%s %s -> %d (%s) request_id=%s", c.Request.Method, path, status, duration, requestID)
		default:
			logger.Info("%s %s -> %d (%s) request_id=%s", c.Request.Method, path, status, duration, requestID)
		}
	}
}
