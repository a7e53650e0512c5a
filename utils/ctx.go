package utils

import "github.com/gin-gonic/gin"

func CurrentCartID(c *gin.Context) string {
	if v, ok := c.Get("cartId"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func BearerHeader(c *gin.Context) string {
	if v, ok := c.Get("authorization"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader("Authorization")
}
