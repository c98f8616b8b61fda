package nutrition

import "github.com/pageza/caltrack/web/internal/models"

// TrendSeries is one chart of the trends view: the daily values and the
// reference line drawn across them.
type TrendSeries struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Dates     []string  `json:"dates"`
	Values    []float64 `json:"values"`
	Reference float64   `json:"reference"`
}

type trendLine struct {
	key   string
	unit  string
	ref   float64
	value func(models.Nutrients) float64
	rda   func(models.RDAValues) float64
}

var trendLines = []trendLine{
	{"calories", "kcal", 2000, func(n models.Nutrients) float64 { return n.Calories }, func(r models.RDAValues) float64 { return r.Calories }},
	{"carbohydrates", "g", 130, func(n models.Nutrients) float64 { return n.Carbohydrates }, func(r models.RDAValues) float64 { return r.Carbohydrates }},
	{"protein", "g", 50, func(n models.Nutrients) float64 { return n.Protein }, func(r models.RDAValues) float64 { return r.Protein }},
	{"total_fat", "g", 65, func(n models.Nutrients) float64 { return n.TotalFat }, func(r models.RDAValues) float64 { return r.Fat }},
	{"fiber", "g", 25, func(n models.Nutrients) float64 { return n.Fiber }, func(r models.RDAValues) float64 { return r.Fiber }},
	{"sodium", "mg", 2300, func(n models.Nutrients) float64 { return n.Sodium }, nil},
}

// BuildTrends turns historical totals into chart series. Reference lines use
// the personalized RDA when one is cached.
func BuildTrends(days []models.DayTotals, rda *models.RDAValues) []TrendSeries {
	series := make([]TrendSeries, 0, len(trendLines))
	for _, line := range trendLines {
		s := TrendSeries{
			Key:       line.key,
			Name:      DisplayName(line.key),
			Unit:      line.unit,
			Dates:     make([]string, len(days)),
			Values:    make([]float64, len(days)),
			Reference: line.ref,
		}
		if rda != nil && line.rda != nil {
			s.Reference = line.rda(*rda)
		}
		for i, d := range days {
			s.Dates[i] = d.Date
			s.Values[i] = line.value(d.Nutrients)
		}
		series = append(series, s)
	}
	return series
}
