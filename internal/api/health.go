// internal/api/health.go
// Health check endpoint for monitoring, carried from the teacher's
// internal/api/health.go.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/config"
)

// HealthCheck returns a health check handler.
func HealthCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"environment": cfg.Environment,
			"services": gin.H{
				"websocket": cfg.Features.EnableWebSocket,
			},
		})
	}
}
