package middleware

import (
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

const BoundInputKey = "input"

// ValidateJSON binds the body into a T, runs its binding rules and stores
// the value under BoundInputKey.
func ValidateJSON[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input T
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.TrackError("validation", "invalid")
			utils.BadRequest(c, utils.ValidationMessage(err))
			c.Abort()
			return
		}

		c.Set(BoundInputKey, input)
		c.Next()
	}
}

// BoundInput fetches what ValidateJSON stored.
func BoundInput[T any](c *gin.Context) (T, bool) {
	v, ok := c.Get(BoundInputKey)
	if !ok {
		var zero T
		return zero, false
	}
	input, ok := v.(T)
	return input, ok
}
