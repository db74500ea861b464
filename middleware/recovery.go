package middleware

import (
	"runtime/debug"

	"notespace/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("request_id", c.GetString("request_id")).
					Str("path", c.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				utils.TrackError("panic", "internal")
				utils.InternalError(c, "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}
