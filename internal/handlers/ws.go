package handlers

import (
	"postly/internal/services"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *services.Hub
}

func NewWSHandler(s *Services) *WSHandler {
	return &WSHandler{hub: s.Hub}
}

// Subscribe upgrades the connection and streams new-post events until the browser leaves.
func (h *WSHandler) Subscribe(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
