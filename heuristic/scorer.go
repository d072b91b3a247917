// Package heuristic implements the deterministic rule-based risk scorer.
// It has no fitted state and serves as both the comparison baseline and the
// fallback when no trained model is available. Every band boundary and
// adjustment magnitude is load-bearing for parity testing against the
// statistical model and must not be retuned here.
package heuristic

import (
	"math"

	"github.com/p2plend/riskengine/schema"
)

// Score maps a feature vector to a default-risk probability in [0, 1].
// Missing feature names read as 0.
func Score(fv schema.FeatureVector) float64 {
	repaidLoans := fv.Get("repaid_loans")
	totalLoans := fv.Get("total_loans")
	defaultedLoans := fv.Get("defaulted_loans")

	var repaymentRate, defaultRate float64
	if totalLoans > 0 {
		repaymentRate = repaidLoans / totalLoans
		defaultRate = defaultedLoans / totalLoans
	}

	creditScore := clip(0.5+repaymentRate*0.3-defaultRate*0.3, 0, 1)

	accountAge := fv.Get("account_age_days")
	// An absent ratio reads as 0 and lands in the lowest collateral band
	// (fully covered), like every other missing feature here.
	loanToCollateral := fv.Get("loan_to_collateral_ratio")

	score := 0.5 // neutral starting point

	// Repayment history. Bands are mutually exclusive, highest first.
	switch {
	case repaymentRate > 0.95:
		score -= 0.20
	case repaymentRate > 0.85:
		score -= 0.10
	case repaymentRate < 0.7 && totalLoans > 0:
		score += 0.15
	}

	switch {
	case defaultRate > 0.2:
		score += 0.25
	case defaultRate > 0.1:
		score += 0.15
	case defaultRate > 0.05:
		score += 0.08
	}

	// Convex penalty growing with distance from the neutral credit score,
	// in either direction.
	score += (0.5 - creditScore) * (0.5 - creditScore) * 0.8

	switch {
	case accountAge < 30:
		score += 0.15
	case accountAge < 90:
		score += 0.10
	case accountAge > 730:
		score -= 0.10
	case accountAge > 365:
		score -= 0.05
	}

	switch {
	case loanToCollateral > 0.9:
		score += 0.20
	case loanToCollateral > 0.8:
		score += 0.15
	case loanToCollateral > 0.7:
		score += 0.08
	case loanToCollateral < 0.4:
		score -= 0.10
	case loanToCollateral < 0.5:
		score -= 0.05
	}

	durationYears := fv.Get("duration_days") / 365
	switch {
	case durationYears > 1.0:
		score += 0.12
	case durationYears > 0.5:
		score += 0.06
	}

	return clip(score, 0, 1)
}

// ScoreDataset scores every row of a dataset, in order.
func ScoreDataset(rows []schema.FeatureVector) []float64 {
	out := make([]float64, len(rows))
	for i, fv := range rows {
		out[i] = Score(fv)
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
