package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MealID identifies a meal. The upstream API has sent both numeric and
// string ids, so decoding accepts either and always stores a string.
type MealID string

func (id *MealID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*id = MealID(num.String())
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*id = MealID(str)
		return nil
	}

	return fmt.Errorf("invalid meal id: %s", string(data))
}

func (id MealID) String() string {
	return string(id)
}

// Nutrients holds the per-meal or per-day nutrient amounts.
type Nutrients struct {
	Calories      float64 `json:"calories"`
	Carbohydrates float64 `json:"carbohydrates"`
	Protein       float64 `json:"protein"`
	TotalFat      float64 `json:"total_fat"`
	Fiber         float64 `json:"fiber"`
	Sugars        float64 `json:"sugars"`
	Sodium        float64 `json:"sodium"`
}

// Meal is a logged meal as returned by the meal API.
type Meal struct {
	ID          MealID `json:"id"`
	Name        string `json:"name"`
	Timestamp   int64  `json:"timestamp"`
	ServingSize string `json:"serving_size"`
	ImageURL    string `json:"image_url,omitempty"`
	Nutrients
}

// DailyTotals aggregates the nutrients of a day's meals.
type DailyTotals struct {
	Nutrients
}

// DayTotals is one day of the historical totals series.
type DayTotals struct {
	Date string `json:"date"`
	Nutrients
}

// HealthAnalysis is the upstream verdict attached to an estimated meal.
type HealthAnalysis struct {
	IsHealthy bool   `json:"is_healthy"`
	Message   string `json:"message"`
}

// MealResult is the calorie estimate for a free-form meal description.
type MealResult struct {
	Name           string         `json:"name"`
	ServingSize    string         `json:"serving_size"`
	ImageURL       string         `json:"image_url,omitempty"`
	HealthAnalysis HealthAnalysis `json:"health_analysis"`
	Nutrients
}

// ParseMealID converts an integer id into the canonical form.
func ParseMealID(n int64) MealID {
	return MealID(strconv.FormatInt(n, 10))
}
