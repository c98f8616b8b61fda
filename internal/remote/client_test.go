package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pageza/caltrack/web/internal/models"
	"github.com/pageza/caltrack/web/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, api *testhelpers.FakeMealAPI, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(api.URL(), opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("/api")
	assert.Error(t, err)
}

func TestEndpoint_EscapesFreeText(t *testing.T) {
	c, err := NewClient("http://meals.local/api/")
	require.NoError(t, err)

	got := c.endpoint(userQuery("u 1"), "calorie_count", "2 eggs & toast/jam?")
	assert.Equal(t, "http://meals.local/api/calorie_count/2%20eggs%20&%20toast%2Fjam%3F?user_id=u+1", got)

	assert.Equal(t, "http://meals.local/api/daily_totals/?user_id=u1", c.endpoint(userQuery("u1"), "daily_totals", ""))
	assert.Equal(t, "http://meals.local/api/calculate-rda", c.endpoint(nil, "calculate-rda"))
}

func TestClient_MealRoundTrip(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api)
	ctx := context.Background()

	result, err := c.CalorieCount(ctx, "chicken salad/with dressing", "u1")
	require.NoError(t, err)
	assert.Equal(t, "chicken salad/with dressing", result.Name)
	assert.True(t, result.HealthAnalysis.IsHealthy)
	assert.Equal(t, testhelpers.SampleNutrients, result.Nutrients)

	meals, err := c.DailyMeals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, meals, 1)

	totals, err := c.DailyTotals(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, totals.Calories)

	require.NoError(t, c.DeleteMeal(ctx, meals[0].ID, "u1"))
	meals, err = c.DailyMeals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, meals)
	assert.NotNil(t, meals)
}

func TestClient_DeleteMissingMeal(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api)

	err := c.DeleteMeal(context.Background(), models.MealID("404"), "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "delete_meal", httpErr.Operation)
	assert.Contains(t, httpErr.Body, "not found")
}

func TestClient_CalculateRDA(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api)
	req := models.RDARequest{Age: 30, HeightCm: 178, WeightKg: 80, TargetWeightKg: 75, TargetDate: "2026-12-01", ActivityLevel: models.ActivityLight}

	values, err := c.CalculateRDA(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, models.RDAValues{Calories: 2200, Protein: 60, Fat: 70, Fiber: 30, Carbohydrates: 275}, *values)
	assert.Equal(t, []models.RDARequest{req}, api.RDARequests())
}

func TestClient_CalculateRDA_InvalidResponses(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api)

	api.SetRDAResponse(map[string]interface{}{"calories": 2000, "protein": 50})
	_, err := c.CalculateRDA(context.Background(), "u1", models.RDARequest{})
	assert.ErrorContains(t, err, "missing required field: fat")

	api.SetRDAResponse(map[string]interface{}{"calories": 2000, "protein": -5, "fat": 1, "fiber": 1, "carbohydrates": 1})
	_, err = c.CalculateRDA(context.Background(), "u1", models.RDARequest{})
	assert.ErrorIs(t, err, models.ErrNegativeRDA)

	api.SetRDAResponse(map[string]interface{}{"calories": nil, "protein": 50, "fat": 65, "fiber": 25, "carbohydrates": 300})
	_, err = c.CalculateRDA(context.Background(), "u1", models.RDARequest{})
	assert.ErrorContains(t, err, "missing required field: calories")
}

func TestClient_HistoricalTotals(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	api.SetHistory([]models.DayTotals{
		{Date: "2026-10-17", Nutrients: models.Nutrients{Calories: 1900}},
		{Date: "2026-10-18", Nutrients: models.Nutrients{Calories: 2100}},
	})
	c := newTestClient(t, api)

	days, err := c.HistoricalTotals(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-10-18", days[0].Date)
}

func TestClient_HTTPFailure(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	api.FailWith(testhelpers.OpDailyTotals, http.StatusServiceUnavailable)
	c := newTestClient(t, api)

	_, err := c.DailyTotals(context.Background(), "u1")
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(srv.URL+"/api", WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.DailyMeals(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_SignsRequests(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api, WithTokenSecret("s3cret"))

	_, err := c.DailyTotals(context.Background(), "u42")
	require.NoError(t, err)

	headers := api.AuthHeaders()
	require.Len(t, headers, 1)
	require.True(t, strings.HasPrefix(headers[0], "Bearer "))

	subject, err := ParseToken(strings.TrimPrefix(headers[0], "Bearer "), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u42", subject)

	_, err = ParseToken(strings.TrimPrefix(headers[0], "Bearer "), "other")
	assert.Error(t, err)
}

func TestClient_NoTokenWithoutSecret(t *testing.T) {
	api := testhelpers.NewFakeMealAPI(t)
	c := newTestClient(t, api, WithTokenSecret(""))

	_, err := c.DailyTotals(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, api.AuthHeaders())
}
