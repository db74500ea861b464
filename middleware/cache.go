package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware keeps browsers from caching per-user API answers.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
