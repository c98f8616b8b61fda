// Package nutrition turns daily totals into target ranges and progress
// statuses for display.
package nutrition

import (
	"context"
	"math"

	"github.com/pageza/caltrack/web/internal/models"
)

// Nutrient is a key of the targets table.
type Nutrient string

const (
	Calories      Nutrient = "calories"
	Protein       Nutrient = "protein"
	Fat           Nutrient = "fat"
	Fiber         Nutrient = "fiber"
	Carbohydrates Nutrient = "carbohydrates"
)

// Nutrients is the display order of the targets table.
var Nutrients = []Nutrient{Calories, Protein, Fat, Fiber, Carbohydrates}

var units = map[Nutrient]string{
	Calories:      "kcal",
	Protein:       "g",
	Fat:           "g",
	Fiber:         "g",
	Carbohydrates: "g",
}

// Target is the acceptable daily range for one nutrient.
type Target struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

type Targets map[Nutrient]Target

// DefaultTargets is used until the user has personalized RDA values.
func DefaultTargets() Targets {
	return Targets{
		Calories:      {Min: 1800, Max: 2000, Unit: "kcal"},
		Protein:       {Min: 45, Max: 50, Unit: "g"},
		Fat:           {Min: 65, Max: 70, Unit: "g"},
		Fiber:         {Min: 20, Max: 25, Unit: "g"},
		Carbohydrates: {Min: 270, Max: 300, Unit: "g"},
	}
}

// TargetsFromRDA derives ranges whose max is the RDA value and whose min is
// 80% of it, 90% for calories.
func TargetsFromRDA(rda models.RDAValues) Targets {
	maxima := map[Nutrient]float64{
		Calories:      rda.Calories,
		Protein:       rda.Protein,
		Fat:           rda.Fat,
		Fiber:         rda.Fiber,
		Carbohydrates: rda.Carbohydrates,
	}

	targets := make(Targets, len(maxima))
	for n, rdaMax := range maxima {
		ratio := 0.8
		if n == Calories {
			ratio = 0.9
		}
		targets[n] = Target{
			Min:  math.Round(rdaMax * ratio),
			Max:  rdaMax,
			Unit: units[n],
		}
	}
	return targets
}

// RDASource looks up cached RDA values without touching the network.
type RDASource interface {
	CachedRDA(ctx context.Context, userID string) (*models.RDAValues, bool)
}

// Resolver picks personalized or default targets for a user.
type Resolver struct {
	rda RDASource
}

func NewResolver(rda RDASource) *Resolver {
	return &Resolver{rda: rda}
}

func (r *Resolver) ResolveTargets(ctx context.Context, userID string) Targets {
	if rda, ok := r.rda.CachedRDA(ctx, userID); ok {
		return TargetsFromRDA(*rda)
	}
	return DefaultTargets()
}
