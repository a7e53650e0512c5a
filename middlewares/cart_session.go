package middlewares

import (
	"time"

	"github.com/Jmdec/ipponyari-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const cartTokenHeader = "X-Cart-Token"

// CartSession resolves the caller's cart id from a signed session token. A
// missing or invalid token starts a fresh cart; the new token is echoed back
// in the response header so the client can hold on to it.
func CartSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if t := c.GetHeader(cartTokenHeader); t != "" {
			if cartID, err := utils.ParseCartToken(t, secret); err == nil {
				c.Set("cartId", cartID)
				c.Next()
				return
			}
		}

		cartID := uuid.NewString()
		token, err := utils.GenerateCartToken(cartID, secret, 30*24*time.Hour)
		if err != nil {
			c.JSON(500, gin.H{"ok": false, "error": "could not start cart session"})
			c.Abort()
			return
		}
		c.Header(cartTokenHeader, token)
		c.Set("cartId", cartID)
		c.Next()
	}
}
