package classifier

import "math"

// Risk bucket boundaries over the predicted default probability.
const (
	lowRiskMax    = 0.2
	mediumRiskMax = 0.5
	highRiskMax   = 0.7
)

// RiskCategory maps a default probability to its bucket.
func RiskCategory(probability float64) string {
	switch {
	case probability <= lowRiskMax:
		return "Low"
	case probability <= mediumRiskMax:
		return "Medium"
	case probability <= highRiskMax:
		return "High"
	default:
		return "Very High"
	}
}

// RiskScore scales a default probability to the 0–1000 integer scale.
func RiskScore(probability float64) int {
	return int(math.Round(probability * 1000))
}
