// internal/middleware/auth.go
// Authentication middleware validates bearer tokens and sets caller
// context. Grounded on the teacher's middleware/auth.go; narrowed to
// validation only, since identity issuance is an external collaborator.

package middleware

import (
	"net/http"
	"strings"

	"musicbattle-core/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates that a request carries a valid bearer token.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization format"})
			c.Abort()
			return
		}

		userID, role, err := utils.ValidateJWT(parts[1], secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

// RequireRole ensures the caller's validated role matches requiredRole.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role.(string) != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}
