package nutrition

import "math"

// Status is the tri-state color of a progress bar.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

const (
	goodThreshold    = 80.0
	warningThreshold = 110.0
)

// Progress is a measured value relative to its target maximum.
type Progress struct {
	Percentage float64 `json:"percentage"`
	Status     Status  `json:"status"`
}

// Classify maps value against target.Max. Bands are closed on the upper
// side: <=80 good, <=110 warning, above that over.
//
// A target with no positive max has no meaningful percentage; it reports 0%
// and is good for a zero intake and over for anything consumed.
func Classify(value float64, target Target) Progress {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}

	if !(target.Max > 0) || math.IsInf(target.Max, 0) {
		if value > 0 {
			return Progress{Percentage: 0, Status: StatusOver}
		}
		return Progress{Percentage: 0, Status: StatusGood}
	}

	// Scale before dividing so exact boundaries such as 110% stay exact
	pct := value * 100 / target.Max
	switch {
	case pct <= goodThreshold:
		return Progress{Percentage: pct, Status: StatusGood}
	case pct <= warningThreshold:
		return Progress{Percentage: pct, Status: StatusWarning}
	default:
		return Progress{Percentage: pct, Status: StatusOver}
	}
}
