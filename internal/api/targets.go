package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/nutrition"
)

type TargetResolver interface {
	ResolveTargets(ctx context.Context, userID string) nutrition.Targets
}

type TargetsHandler struct {
	resolver TargetResolver
}

func NewTargetsHandler(resolver TargetResolver) *TargetsHandler {
	return &TargetsHandler{resolver: resolver}
}

func (h *TargetsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/targets", h.GetTargets)
}

type targetResponse struct {
	Key  nutrition.Nutrient `json:"key"`
	Name string             `json:"name"`
	nutrition.Target
}

func (h *TargetsHandler) GetTargets(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	targets := h.resolver.ResolveTargets(c.Request.Context(), sess.UserID)
	rows := make([]targetResponse, 0, len(nutrition.Nutrients))
	for _, n := range nutrition.Nutrients {
		rows = append(rows, targetResponse{
			Key:    n,
			Name:   nutrition.DisplayName(string(n)),
			Target: targets[n],
		})
	}

	c.JSON(http.StatusOK, gin.H{"targets": rows})
}
