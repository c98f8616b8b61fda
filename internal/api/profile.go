package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/models"
)

type ProfileService interface {
	Load(ctx context.Context, userID string) (*models.Profile, bool)
	Save(ctx context.Context, userID string, p models.Profile) (*models.Profile, error)
	CachedRDA(ctx context.Context, userID string) (*models.RDAValues, bool)
	RequestRDARecalculation(ctx context.Context, userID string, p models.Profile) (*models.RDAValues, error)
}

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	p, found := h.profiles.Load(c.Request.Context(), sess.UserID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	rda, _ := h.profiles.CachedRDA(c.Request.Context(), sess.UserID)

	c.JSON(http.StatusOK, gin.H{"profile": p, "rda": rda})
}

// UpdateProfile saves the profile and then recalculates RDA values. A failed
// recalculation is reported in rda_error; the profile stays saved and the
// previous RDA values stay in effect.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req models.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateProfile(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	saved, err := h.profiles.Save(ctx, sess.UserID, req)
	if err != nil {
		log.Printf("[ProfileHandler] Failed to save profile for user %s: %v", sess.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}

	resp := gin.H{"profile": saved}
	rda, err := h.profiles.RequestRDARecalculation(ctx, sess.UserID, *saved)
	if err != nil {
		resp["rda_error"] = "Failed to calculate RDA values"
		rda, _ = h.profiles.CachedRDA(ctx, sess.UserID)
	}
	resp["rda"] = rda

	c.JSON(http.StatusOK, resp)
}

func validateProfile(p *models.Profile) error {
	switch {
	case p.Age < 0:
		return fmt.Errorf("age must not be negative")
	case p.HeightFeet < 0 || p.HeightInches < 0:
		return fmt.Errorf("height must not be negative")
	case p.WeightLbs < 0 || p.TargetWeightLbs < 0:
		return fmt.Errorf("weight must not be negative")
	}
	if p.ActivityLevel != "" && !slices.Contains(models.ActivityLevels, p.ActivityLevel) {
		return fmt.Errorf("unknown activity level: %s", p.ActivityLevel)
	}
	return nil
}
