package models

import (
	"errors"
	"fmt"
)

// ActivityLevel describes how active a user is day to day.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ActivityLevels lists every level the profile form offers.
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLight,
	ActivityModerate,
	ActivityActive,
	ActivityVeryActive,
}

// Profile is a user's body profile as entered in the profile form.
// HeightCm, WeightKg and TargetWeightKg are derived from the imperial inputs.
type Profile struct {
	Name            string        `json:"name"`
	Age             int           `json:"age"`
	HeightFeet      int           `json:"heightFt"`
	HeightInches    int           `json:"heightIn"`
	HeightCm        int           `json:"heightCm"`
	WeightLbs       float64       `json:"weight"`
	WeightKg        float64       `json:"weightKg"`
	TargetWeightLbs float64       `json:"targetWeight"`
	TargetWeightKg  float64       `json:"targetWeightKg"`
	TargetDate      string        `json:"targetDate"`
	ActivityLevel   ActivityLevel `json:"activityLevel"`
}

// RDARequest carries the metric-normalized profile fields sent to the RDA endpoint.
type RDARequest struct {
	Age            int           `json:"age"`
	HeightCm       int           `json:"heightCm"`
	WeightKg       float64       `json:"weightKg"`
	TargetWeightKg float64       `json:"targetWeightKg"`
	TargetDate     string        `json:"targetDate"`
	ActivityLevel  ActivityLevel `json:"activityLevel"`
}

// RDARequest returns the metric view of the profile.
func (p *Profile) RDARequest() RDARequest {
	return RDARequest{
		Age:            p.Age,
		HeightCm:       p.HeightCm,
		WeightKg:       p.WeightKg,
		TargetWeightKg: p.TargetWeightKg,
		TargetDate:     p.TargetDate,
		ActivityLevel:  p.ActivityLevel,
	}
}

// RDAValues are the recommended daily targets computed for a profile.
type RDAValues struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Carbohydrates float64 `json:"carbohydrates"`
}

var ErrNegativeRDA = errors.New("rda values must be non-negative")

// Validate rejects negative values.
func (r *RDAValues) Validate() error {
	fields := map[string]float64{
		"calories":      r.Calories,
		"protein":       r.Protein,
		"fat":           r.Fat,
		"fiber":         r.Fiber,
		"carbohydrates": r.Carbohydrates,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%w: %s is %v", ErrNegativeRDA, name, v)
		}
	}
	return nil
}
