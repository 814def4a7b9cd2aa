package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cosmo_command/internal/config"
)

// originAllowed reports whether a browser origin may read responses. Requests
// without an Origin header come from non-browser clients and are always allowed.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, pattern := range allowed {
		if config.MatchPattern(pattern, origin) {
			return true
		}
	}
	return false
}

// corsMiddleware echoes allowed origins and answers preflight requests
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
