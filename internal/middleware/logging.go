// Package middleware holds gin middleware for the HTTP API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"studyrag/internal/logger"
)

// RequestLogger logs one line per request through the application logger.
// Bodies are not captured; uploads can be several megabytes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"statusCode", status,
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"responseBytes", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Errorw("HTTP request", fields...)
		case status >= 400:
			logger.Warnw("HTTP request", fields...)
		default:
			logger.Infow("HTTP request", fields...)
		}
	}
}
