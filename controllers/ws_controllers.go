package controllers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/realtime"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type WSController struct {
	Hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSController accepts browser connections from the given origins.
// Requests without an Origin header (non-browser clients) are allowed.
func NewWSController(hub *realtime.Hub, origins []string) *WSController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] {
					return true
				}
				if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
					return true
				}
				return allowed[origin]
			},
		},
	}
}

// Connect upgrades an authenticated staff request and streams booking events
// until the client goes away.
func (wc *WSController) Connect(c *gin.Context) {
	role := c.GetString(middlewares.CtxRole)
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	wc.Hub.Serve(conn, role)
}
