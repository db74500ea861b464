package middleware

import (
	"notespace/model"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

// SessionReader is the read side of the session manager.
type SessionReader interface {
	State() model.SessionState
	User() *model.User
	Loading() bool
}

// AuthMiddleware lets a request through only while a user is signed in and
// puts the user id in the context.
func AuthMiddleware(sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := sessions.User()
		if sessions.State() != model.SessionAuthenticated || user == nil {
			utils.TrackError("auth", string(model.KindUnauthenticated))
			utils.Unauthorized(c, model.UserMessage(model.ErrUnauthenticated))
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Next()
	}
}
