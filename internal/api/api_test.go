package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/models"
	"github.com/pageza/caltrack/web/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_IssuesIdentity(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/session", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, identity.CookieName, cookies[0].Name)

	body := decodeBody(t, w)
	assert.Equal(t, cookies[0].Value, body["user_id"])
	assert.Equal(t, "User ID: "+cookies[0].Value, body["display_name"])
	assert.Equal(t, true, body["is_new"])

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/session", nil, cookies[0].Value)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, cookies[0].Value, decodeBody(t, w)["user_id"])
}

func TestProfile_SaveRecalculatesRDA(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/profile", nil, "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = PerformRequest(env.Router, http.MethodPut, "/api/v1/profile", map[string]interface{}{
		"name":          "Ada",
		"age":           36,
		"heightFt":      5,
		"heightIn":      10,
		"weight":        150,
		"targetWeight":  140,
		"targetDate":    "2026-12-31",
		"activityLevel": "active",
	}, "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotContains(t, body, "rda_error")
	saved := body["profile"].(map[string]interface{})
	assert.Equal(t, 178.0, saved["heightCm"])
	assert.Equal(t, 68.0, saved["weightKg"])
	assert.Equal(t, 2200.0, body["rda"].(map[string]interface{})["calories"])

	require.Len(t, env.MealAPI.RDARequests(), 1)
	assert.Equal(t, models.RDARequest{
		Age:            36,
		HeightCm:       178,
		WeightKg:       68,
		TargetWeightKg: 63.5,
		TargetDate:     "2026-12-31",
		ActivityLevel:  models.ActivityActive,
	}, env.MealAPI.RDARequests()[0])

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/session", nil, "u1")
	assert.Equal(t, "Hello, Ada", decodeBody(t, w)["display_name"])

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/targets", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	targets := decodeBody(t, w)["targets"].([]interface{})
	require.Len(t, targets, 5)
	calories := targets[0].(map[string]interface{})
	assert.Equal(t, "calories", calories["key"])
	assert.Equal(t, 1980.0, calories["min"])
	assert.Equal(t, 2200.0, calories["max"])
}

func TestProfile_RDAFailureKeepsProfileAndCache(t *testing.T) {
	env := setupTestEnv(t)
	profile := map[string]interface{}{"name": "Ada", "age": 36, "heightFt": 5, "weight": 150}

	w := PerformRequest(env.Router, http.MethodPut, "/api/v1/profile", profile, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	env.MealAPI.FailWith(testhelpers.OpCalculateRDA, http.StatusInternalServerError)
	profile["name"] = "Grace"
	w = PerformRequest(env.Router, http.MethodPut, "/api/v1/profile", profile, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Failed to calculate RDA values", body["rda_error"])
	assert.Equal(t, 2200.0, body["rda"].(map[string]interface{})["calories"])

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/profile", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Grace", decodeBody(t, w)["profile"].(map[string]interface{})["name"])
}

func TestProfile_Validation(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodPut, "/api/v1/profile", map[string]interface{}{"age": -1}, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = PerformRequest(env.Router, http.MethodPut, "/api/v1/profile", map[string]interface{}{"activityLevel": "couch"}, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.MealAPI.Calls(testhelpers.OpCalculateRDA))
}

func TestTargets_Defaults(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/targets", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	targets := decodeBody(t, w)["targets"].([]interface{})
	protein := targets[1].(map[string]interface{})
	assert.Equal(t, "protein", protein["key"])
	assert.Equal(t, 45.0, protein["min"])
	assert.Equal(t, 50.0, protein["max"])
	assert.Equal(t, "g", protein["unit"])
}

func TestMeals_SubmitListDelete(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/meals", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["empty"])

	w = PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", SubmitMealRequest{Text: "two eggs & toast"}, "u1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "two eggs & toast", body["result"].(map[string]interface{})["name"])
	assert.Len(t, body["cards"], 7)
	meals := body["meals"].(map[string]interface{})["meals"].([]interface{})
	require.Len(t, meals, 1)
	mealID := meals[0].(map[string]interface{})["id"].(string)

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/totals", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, 250.0, body["totals"].(map[string]interface{})["calories"])
	progress := body["progress"].([]interface{})
	require.Len(t, progress, 5)
	assert.Equal(t, "good", progress[0].(map[string]interface{})["status"])

	w = PerformRequest(env.Router, http.MethodDelete, "/api/v1/meals/"+mealID, nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, 0.0, body["totals"].(map[string]interface{})["totals"].(map[string]interface{})["calories"])
	assert.Equal(t, true, body["meals"].(map[string]interface{})["empty"])

	w = PerformRequest(env.Router, http.MethodDelete, "/api/v1/meals/"+mealID, nil, "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeals_SubmitValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", map[string]string{}, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", SubmitMealRequest{Text: "   "}, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.MealAPI.Calls(testhelpers.OpCalorieCount))
}

func TestMeals_SubmitInFlightConflict(t *testing.T) {
	env := setupTestEnv(t)
	gate := make(chan struct{})
	env.MealAPI.SubmitGate = gate

	first := make(chan int, 1)
	go func() {
		w := PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", SubmitMealRequest{Text: "pasta"}, "u1")
		first <- w.Code
	}()

	select {
	case <-env.MealAPI.SubmitStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("submission never reached the meal API")
	}

	w := PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", SubmitMealRequest{Text: "pasta"}, "u1")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(gate)
	assert.Equal(t, http.StatusCreated, <-first)
	assert.Len(t, env.MealAPI.Meals("u1"), 1)
}

func TestMeals_UpstreamFailures(t *testing.T) {
	env := setupTestEnv(t)

	env.MealAPI.FailWith(testhelpers.OpDailyTotals, http.StatusServiceUnavailable)
	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/totals", nil, "u1")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env.MealAPI.Recover(testhelpers.OpDailyTotals)
	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/totals", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	// Later failures keep the last good totals next to the error.
	env.MealAPI.FailWith(testhelpers.OpDailyTotals, http.StatusServiceUnavailable)
	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/totals", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Failed to load daily totals", body["error"])
	assert.NotNil(t, body["totals"])

	env.MealAPI.FailWith(testhelpers.OpCalorieCount, http.StatusInternalServerError)
	w = PerformRequest(env.Router, http.MethodPost, "/api/v1/meals", SubmitMealRequest{Text: "soup"}, "u1")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env.MealAPI.FailWith(testhelpers.OpDailyMeals, http.StatusServiceUnavailable)
	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/meals", nil, "u2")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTrends(t *testing.T) {
	env := setupTestEnv(t)
	env.MealAPI.SetHistory([]models.DayTotals{
		{Date: "2026-10-17", Nutrients: models.Nutrients{Calories: 1900, Sodium: 2000}},
		{Date: "2026-10-18", Nutrients: models.Nutrients{Calories: 2100, Sodium: 2500}},
	})

	w := PerformRequest(env.Router, http.MethodGet, "/api/v1/trends", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 7.0, body["days"])
	series := body["series"].([]interface{})
	require.Len(t, series, 6)
	calories := series[0].(map[string]interface{})
	assert.Equal(t, 2000.0, calories["reference"])
	assert.Equal(t, []interface{}{1900.0, 2100.0}, calories["values"])

	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/trends?days=0", nil, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.MealAPI.FailWith(testhelpers.OpHistoricalTotals, http.StatusInternalServerError)
	w = PerformRequest(env.Router, http.MethodGet, "/api/v1/trends?days=3", nil, "u1")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
