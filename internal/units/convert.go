package units

import "math"

const (
	cmPerInch = 2.54
	kgPerLb   = 0.45359237
)

// HeightToCm converts a feet/inches height to whole centimeters.
func HeightToCm(feet, inches int) int {
	totalInches := float64(feet*12 + inches)
	return int(math.Round(totalInches * cmPerInch))
}

// LbsToKg converts pounds to kilograms rounded to one decimal place.
func LbsToKg(lbs float64) float64 {
	return math.Round(lbs*kgPerLb*10) / 10
}
