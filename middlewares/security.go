package middlewares

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

// Recovery turns a panic into the standard 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec interface{}) {
		utils.Log.WithField("request_id", c.GetString(CtxRequestID)).Errorf("panic recovered: %v", rec)
		utils.RespondError(c, utils.NewInternalError(fmt.Errorf("panic: %v", rec)))
	})
}
