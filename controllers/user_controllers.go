package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type AuthController struct {
	Service *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{Service: svc}
}

type tokenResponse struct {
	*utils.TokenPair
	User *models.User `json:"user,omitempty"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	user, err := ac.Service.Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Registration successful", user)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	pair, user, err := ac.Service.Login(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", tokenResponse{TokenPair: pair, User: user})
}

func (ac *AuthController) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	if req.RefreshToken == "" {
		utils.RespondError(c, utils.NewValidationError([]string{"refresh_token is required"}))
		return
	}
	pair, err := ac.Service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Token refreshed", tokenResponse{TokenPair: pair})
}

// Logout revokes the access token the request was authenticated with.
func (ac *AuthController) Logout(c *gin.Context) {
	exp, _ := c.Get(middlewares.CtxTokenExp)
	until, ok := exp.(time.Time)
	if !ok {
		until = time.Now().Add(24 * time.Hour)
	}
	ac.Service.Logout(c.GetString(middlewares.CtxToken), until)
	utils.Log.WithField("user_id", c.GetUint(middlewares.CtxUserID)).Info("Logout")
	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}

func (ac *AuthController) Profile(c *gin.Context) {
	user, err := ac.Service.Profile(c.Request.Context(), c.GetUint(middlewares.CtxUserID))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile", user)
}
