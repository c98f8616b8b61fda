package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/caltrack/web/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns a key such as "total_fat" into "Total Fat".
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}

// NutrientProgress is one row of the daily totals pane.
type NutrientProgress struct {
	Key        Nutrient `json:"key"`
	Name       string   `json:"name"`
	Value      float64  `json:"value"`
	Unit       string   `json:"unit"`
	Target     Target   `json:"target"`
	TargetText string   `json:"target_text"`
	Percentage int      `json:"percentage"`
	BarWidth   float64  `json:"bar_width"`
	Status     Status   `json:"status"`
}

// TotalsValue picks the totals field that feeds a target.
func TotalsValue(totals models.DailyTotals, n Nutrient) float64 {
	switch n {
	case Calories:
		return totals.Calories
	case Protein:
		return totals.Protein
	case Fat:
		return totals.TotalFat
	case Fiber:
		return totals.Fiber
	case Carbohydrates:
		return totals.Carbohydrates
	}
	return 0
}

// BuildProgress classifies every targeted nutrient of the day's totals.
func BuildProgress(totals models.DailyTotals, targets Targets) []NutrientProgress {
	rows := make([]NutrientProgress, 0, len(Nutrients))
	for _, n := range Nutrients {
		target, ok := targets[n]
		if !ok {
			continue
		}
		value := TotalsValue(totals, n)
		p := Classify(value, target)
		rows = append(rows, NutrientProgress{
			Key:        n,
			Name:       DisplayName(string(n)),
			Value:      value,
			Unit:       target.Unit,
			Target:     target,
			TargetText: fmt.Sprintf("%s-%s%s", formatAmount(target.Min), formatAmount(target.Max), target.Unit),
			Percentage: int(math.Round(p.Percentage)),
			BarWidth:   math.Min(p.Percentage, 100),
			Status:     p.Status,
		})
	}
	return rows
}

// NutrientCard is one cell of the meal result grid.
type NutrientCard struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MealCards lists the nutrients shown for an estimated meal.
func MealCards(n models.Nutrients) []NutrientCard {
	return []NutrientCard{
		{Label: "Calories", Value: n.Calories, Unit: "kcal"},
		{Label: "Total Fat", Value: n.TotalFat, Unit: "g"},
		{Label: "Carbs", Value: n.Carbohydrates, Unit: "g"},
		{Label: "Protein", Value: n.Protein, Unit: "g"},
		{Label: "Fiber", Value: n.Fiber, Unit: "g"},
		{Label: "Sugars", Value: n.Sugars, Unit: "g"},
		{Label: "Sodium", Value: n.Sodium, Unit: "mg"},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
