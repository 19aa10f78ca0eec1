package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/utils"
)

// RequireRole lets the request through when the authenticated role is one
// of roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			utils.RespondError(c, utils.NewAuthError("Unauthorized"))
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.RespondError(c, utils.NewForbiddenError("You do not have permission to access this resource"))
	}
}
