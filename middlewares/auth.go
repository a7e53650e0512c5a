package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireBearer rejects requests without a bearer token and stashes the
// Authorization header for forwarding. Whether the token is actually valid is
// the origin's call; the proxy only refuses to waste a network hop on
// requests that cannot succeed.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing or invalid token"})
			c.Abort()
			return
		}
		c.Set("authorization", h)
		c.Next()
	}
}
