package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireEnabled rejects every request with 403 when enabled is false.
func RequireEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "API is disabled"})
			return
		}
		c.Next()
	}
}

// RequireToken answers 404 while no API token is configured. token is read
// per request since a reload may change it.
func RequireToken(token func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token() == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no token configured"})
			return
		}
		c.Next()
	}
}
