// internal/middleware/logger.go
// Request logging middleware with structured logs, carried from the
// teacher's middleware of the same name.

package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger creates a custom logging middleware.
func Logger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Printf("[%s] %s %s %d %v %s %s",
			c.GetString("request_id"),
			clientIP,
			method,
			statusCode,
			latency,
			path,
			errorMessage,
		)
	}
}
