package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type ChatbotController struct {
	Service *services.ChatbotService
}

func NewChatbotController(svc *services.ChatbotService) *ChatbotController {
	return &ChatbotController{Service: svc}
}

func (cc *ChatbotController) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	reply, err := cc.Service.Reply(c.Request.Context(), req.Message)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat reply", reply)
}
