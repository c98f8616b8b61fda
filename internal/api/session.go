package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DisplayNamer interface {
	DisplayName(ctx context.Context, userID string) string
}

type SessionHandler struct {
	names DisplayNamer
}

func NewSessionHandler(names DisplayNamer) *SessionHandler {
	return &SessionHandler{names: names}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/session", h.GetSession)
}

// GetSession returns the anonymous user id and header greeting
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      sess.UserID,
		"display_name": h.names.DisplayName(c.Request.Context(), sess.UserID),
		"is_new":       sess.IsNew,
	})
}
