package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/middleware"
	"github.com/pageza/caltrack/web/internal/models"
	"github.com/pageza/caltrack/web/internal/nutrition"
	"github.com/pageza/caltrack/web/internal/remote"
	"github.com/pageza/caltrack/web/internal/tracker"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 90
)

type MealService interface {
	View(userID string) tracker.View
	RefreshTotals(ctx context.Context, userID string) error
	RefreshMeals(ctx context.Context, userID string) error
	Submit(ctx context.Context, userID, mealText string) (*models.MealResult, error)
	DeleteMeal(ctx context.Context, userID string, mealID models.MealID) error
	History(ctx context.Context, userID string, days int) ([]models.DayTotals, error)
}

type RDALookup interface {
	CachedRDA(ctx context.Context, userID string) (*models.RDAValues, bool)
}

type MealsHandler struct {
	meals    MealService
	resolver TargetResolver
	rda      RDALookup
	limiter  *middleware.RateLimiter
}

func NewMealsHandler(meals MealService, resolver TargetResolver, rda RDALookup, limiter *middleware.RateLimiter) *MealsHandler {
	return &MealsHandler{
		meals:    meals,
		resolver: resolver,
		rda:      rda,
		limiter:  limiter,
	}
}

func (h *MealsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/totals", h.GetTotals)
	router.GET("/trends", h.GetTrends)

	meals := router.Group("/meals")
	{
		meals.GET("", h.ListMeals)
		if h.limiter != nil {
			meals.POST("", h.limiter.RateLimitMiddleware(), h.SubmitMeal)
		} else {
			meals.POST("", h.SubmitMeal)
		}
		meals.DELETE("/:id", h.DeleteMeal)
	}
}

type SubmitMealRequest struct {
	Text string `json:"text" binding:"required"`
}

type mealResponse struct {
	models.Meal
	Cards []nutrition.NutrientCard `json:"cards"`
}

func (h *MealsHandler) totalsResponse(ctx context.Context, userID string, pane tracker.TotalsPane) gin.H {
	resp := gin.H{
		"totals":     pane.Totals,
		"progress":   []nutrition.NutrientProgress{},
		"updated_at": pane.UpdatedAt,
	}
	if pane.Totals != nil {
		resp["progress"] = nutrition.BuildProgress(*pane.Totals, h.resolver.ResolveTargets(ctx, userID))
	}
	if pane.Error != "" {
		resp["error"] = pane.Error
	}
	return resp
}

func mealsResponse(pane tracker.MealsPane) gin.H {
	meals := make([]mealResponse, 0, len(pane.Meals))
	for _, m := range pane.Meals {
		meals = append(meals, mealResponse{Meal: m, Cards: nutrition.MealCards(m.Nutrients)})
	}
	resp := gin.H{
		"meals":      meals,
		"empty":      pane.Empty,
		"updated_at": pane.UpdatedAt,
	}
	if pane.Error != "" {
		resp["error"] = pane.Error
	}
	return resp
}

// GetTotals refreshes and returns the totals pane. When the refresh fails the
// last good totals are returned with an error message.
func (h *MealsHandler) GetTotals(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	err := h.meals.RefreshTotals(ctx, sess.UserID)
	pane := h.meals.View(sess.UserID).Totals
	if err != nil && pane.Totals == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": pane.Error})
		return
	}

	c.JSON(http.StatusOK, h.totalsResponse(ctx, sess.UserID, pane))
}

// ListMeals refreshes and returns today's meals, newest first.
func (h *MealsHandler) ListMeals(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	err := h.meals.RefreshMeals(c.Request.Context(), sess.UserID)
	pane := h.meals.View(sess.UserID).Meals
	if err != nil && pane.UpdatedAt.IsZero() {
		c.JSON(http.StatusBadGateway, gin.H{"error": pane.Error})
		return
	}

	c.JSON(http.StatusOK, mealsResponse(pane))
}

// SubmitMeal estimates a meal description and returns the result together
// with the refreshed panes.
func (h *MealsHandler) SubmitMeal(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req SubmitMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal description is required"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.meals.Submit(ctx, sess.UserID, req.Text)
	switch {
	case errors.Is(err, tracker.ErrEmptyMeal):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, tracker.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze meal"})
		return
	}

	view := h.meals.View(sess.UserID)
	c.JSON(http.StatusCreated, gin.H{
		"result": result,
		"cards":  nutrition.MealCards(result.Nutrients),
		"totals": h.totalsResponse(ctx, sess.UserID, view.Totals),
		"meals":  mealsResponse(view.Meals),
	})
}

// DeleteMeal deletes a meal and returns both refreshed panes.
func (h *MealsHandler) DeleteMeal(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	mealID := models.MealID(c.Param("id"))
	ctx := c.Request.Context()
	if err := h.meals.DeleteMeal(ctx, sess.UserID, mealID); err != nil {
		status := http.StatusBadGateway
		if remote.StatusCode(err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to delete meal"})
		return
	}

	view := h.meals.View(sess.UserID)
	c.JSON(http.StatusOK, gin.H{
		"totals": h.totalsResponse(ctx, sess.UserID, view.Totals),
		"meals":  mealsResponse(view.Meals),
	})
}

// GetTrends returns chart series for the last ?days= days (default 7).
func (h *MealsHandler) GetTrends(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultTrendDays)))
	if err != nil || days < 1 || days > maxTrendDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
		return
	}

	ctx := c.Request.Context()
	history, err := h.meals.History(ctx, sess.UserID, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load trends"})
		return
	}
	rda, _ := h.rda.CachedRDA(ctx, sess.UserID)

	c.JSON(http.StatusOK, gin.H{
		"days":   days,
		"series": nutrition.BuildTrends(history, rda),
	})
}
