package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", h.Events)
}

// Events streams refresh notifications for the current user
func (h *RealtimeHandler) Events(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, sess.UserID); err != nil {
		log.Printf("[RealtimeHandler] Upgrade failed for user %s: %v", sess.UserID, err)
	}
}
