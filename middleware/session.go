package middleware

import (
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

// WaitForSession answers 503 while the initial session is still being
// resolved, so the UI shows its loading state instead of the sign-in page.
func WaitForSession(sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions.Loading() {
			c.Header("Retry-After", "1")
			utils.ServiceUnavailable(c, "Session is loading")
			c.Abort()
			return
		}
		c.Next()
	}
}
