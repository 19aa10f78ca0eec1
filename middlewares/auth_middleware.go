package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxToken     = "token"
	CtxTokenExp  = "token_exp"
	CtxRequestID = "request_id"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	// Browsers cannot set headers on websocket handshakes.
	if c.Request.Method == "GET" {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

// AuthMiddleware requires a valid, unrevoked access token.
func AuthMiddleware(tm *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.RespondError(c, utils.NewAuthError("Authorization token is missing"))
			return
		}

		claims, err := tm.ParseAccessToken(token)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, utils.ErrTokenBlacklisted) {
				msg = "Token has been revoked"
			}
			utils.RespondError(c, utils.NewAuthError(msg))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxToken, token)
		exp := time.Now()
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Set(CtxTokenExp, exp)
		c.Next()
	}
}
