package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/models"
)

// Meal API operations that FailWith accepts.
const (
	OpDailyTotals      = "daily_totals"
	OpDailyMeals       = "daily_meals"
	OpCalorieCount     = "calorie_count"
	OpDeleteMeal       = "delete_meal"
	OpCalculateRDA     = "calculate_rda"
	OpHistoricalTotals = "historical_totals"
)

// FakeMealAPI is an in-memory meal API served over httptest.
type FakeMealAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	meals       map[string][]models.Meal
	nextID      int64
	failures    map[string]int
	calls       map[string]int
	rdaResponse map[string]interface{}
	rdaRequests []models.RDARequest
	history     []models.DayTotals
	authHeaders []string

	// SubmitStarted receives once per calorie_count request; SubmitGate,
	// when set, holds the response until a value is received from it.
	SubmitStarted chan struct{}
	SubmitGate    chan struct{}
}

// SampleNutrients is what the fake estimates for every meal description.
var SampleNutrients = models.Nutrients{
	Calories:      250,
	Carbohydrates: 30,
	Protein:       12,
	TotalFat:      9,
	Fiber:         4,
	Sugars:        6,
	Sodium:        320,
}

// NewFakeMealAPI starts a fake meal API that is closed on test cleanup.
func NewFakeMealAPI(t *testing.T) *FakeMealAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeMealAPI{
		meals:         make(map[string][]models.Meal),
		failures:      make(map[string]int),
		calls:         make(map[string]int),
		SubmitStarted: make(chan struct{}, 16),
		rdaResponse: map[string]interface{}{
			"calories":      2200,
			"protein":       60,
			"fat":           70,
			"fiber":         30,
			"carbohydrates": 275,
		},
	}

	router := gin.New()
	api := router.Group("/api")
	api.GET("/daily_totals/", f.handleDailyTotals)
	api.GET("/daily_meals/", f.handleDailyMeals)
	api.GET("/calorie_count/*text", f.handleCalorieCount)
	api.DELETE("/meal/:id", f.handleDeleteMeal)
	api.POST("/calculate-rda", f.handleCalculateRDA)
	api.GET("/historical_totals/", f.handleHistoricalTotals)

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base, including the /api prefix.
func (f *FakeMealAPI) URL() string {
	return f.Server.URL + "/api"
}

// FailWith makes op answer with status until Recover is called.
func (f *FakeMealAPI) FailWith(op string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = status
}

func (f *FakeMealAPI) Recover(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, op)
}

// Calls counts requests received for op, failed ones included.
func (f *FakeMealAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// AddMeal stores a meal for userID, assigning an id and timestamp when unset.
func (f *FakeMealAPI) AddMeal(userID string, meal models.Meal) models.Meal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addMealLocked(userID, meal)
}

func (f *FakeMealAPI) Meals(userID string) []models.Meal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Meal(nil), f.meals[userID]...)
}

// SetRDAResponse replaces the calculate-rda response body.
func (f *FakeMealAPI) SetRDAResponse(body map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rdaResponse = body
}

func (f *FakeMealAPI) RDARequests() []models.RDARequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RDARequest(nil), f.rdaRequests...)
}

func (f *FakeMealAPI) SetHistory(days []models.DayTotals) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = days
}

// AuthHeaders returns every Authorization header seen, in order.
func (f *FakeMealAPI) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

func (f *FakeMealAPI) addMealLocked(userID string, meal models.Meal) models.Meal {
	f.nextID++
	if meal.ID == "" {
		meal.ID = models.ParseMealID(f.nextID)
	}
	if meal.Timestamp == 0 {
		meal.Timestamp = 1700000000 + f.nextID*60
	}
	f.meals[userID] = append(f.meals[userID], meal)
	return meal
}

// begin records the call and reports whether the handler should continue.
func (f *FakeMealAPI) begin(c *gin.Context, op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if h := c.GetHeader("Authorization"); h != "" {
		f.authHeaders = append(f.authHeaders, h)
	}
	if status, ok := f.failures[op]; ok {
		c.JSON(status, gin.H{"detail": op + " unavailable"})
		return false
	}
	return true
}

func (f *FakeMealAPI) handleDailyTotals(c *gin.Context) {
	if !f.begin(c, OpDailyTotals) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var totals models.DailyTotals
	for _, m := range f.meals[c.Query("user_id")] {
		totals.Calories += m.Calories
		totals.Carbohydrates += m.Carbohydrates
		totals.Protein += m.Protein
		totals.TotalFat += m.TotalFat
		totals.Fiber += m.Fiber
		totals.Sugars += m.Sugars
		totals.Sodium += m.Sodium
	}
	c.JSON(http.StatusOK, totals)
}

func (f *FakeMealAPI) handleDailyMeals(c *gin.Context) {
	if !f.begin(c, OpDailyMeals) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	meals := append([]models.Meal{}, f.meals[c.Query("user_id")]...)
	// Oldest first, so callers have to sort.
	sort.Slice(meals, func(i, j int) bool { return meals[i].Timestamp < meals[j].Timestamp })
	c.JSON(http.StatusOK, meals)
}

func (f *FakeMealAPI) handleCalorieCount(c *gin.Context) {
	if !f.begin(c, OpCalorieCount) {
		return
	}
	select {
	case f.SubmitStarted <- struct{}{}:
	default:
	}
	if f.SubmitGate != nil {
		<-f.SubmitGate
	}

	text := strings.TrimPrefix(c.Param("text"), "/")
	f.mu.Lock()
	meal := f.addMealLocked(c.Query("user_id"), models.Meal{
		Name:        text,
		ServingSize: "1 serving",
		Nutrients:   SampleNutrients,
	})
	f.mu.Unlock()

	c.JSON(http.StatusOK, models.MealResult{
		Name:        meal.Name,
		ServingSize: meal.ServingSize,
		HealthAnalysis: models.HealthAnalysis{
			IsHealthy: true,
			Message:   "Balanced meal",
		},
		Nutrients: meal.Nutrients,
	})
}

func (f *FakeMealAPI) handleDeleteMeal(c *gin.Context) {
	if !f.begin(c, OpDeleteMeal) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	userID := c.Query("user_id")
	id := c.Param("id")
	meals := f.meals[userID]
	for i, m := range meals {
		if m.ID.String() == id {
			f.meals[userID] = append(meals[:i:i], meals[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "meal " + id + " not found"})
}

func (f *FakeMealAPI) handleCalculateRDA(c *gin.Context) {
	if !f.begin(c, OpCalculateRDA) {
		return
	}
	var req models.RDARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rdaRequests = append(f.rdaRequests, req)
	c.JSON(http.StatusOK, f.rdaResponse)
}

func (f *FakeMealAPI) handleHistoricalTotals(c *gin.Context) {
	if !f.begin(c, OpHistoricalTotals) {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid days"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	history := f.history
	if len(history) > days {
		history = history[len(history)-days:]
	}
	c.JSON(http.StatusOK, history)
}
