package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type WebSocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

type RealtimeHandler struct {
	*BaseHandler
	hub WebSocketServer
}

func NewRealtimeHandler(hub WebSocketServer) *RealtimeHandler {
	return &RealtimeHandler{
		BaseHandler: NewBaseHandler("RealtimeHandler"),
		hub:         hub,
	}
}

// @Summary      Canal WebSocket
// @Description  Fan-out em tempo real: ping/pong, retransmissão para os demais clientes e novas mensagens
// @Tags         realtime
// @Success      101
// @Router       /ws [get]
func (h *RealtimeHandler) Serve(c *gin.Context) {
	// o upgrader já respondeu ao cliente quando falha
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		h.logger.Warn("Falha ao abrir WebSocket", "error", err, "client_ip", c.ClientIP())
	}
}
