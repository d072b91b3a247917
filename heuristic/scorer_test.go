package heuristic

import (
	"math"
	"testing"

	"github.com/p2plend/riskengine/schema"
)

const tol = 1e-9

func TestScoreNoHistory(t *testing.T) {
	// Zero features: no repayment bands fire without loans, the account is
	// brand new and the collateral ratio reads as fully covered.
	got := Score(schema.FeatureVector{})
	want := 0.5 + 0.15 - 0.10
	if math.Abs(got-want) > tol {
		t.Errorf("Score(empty) = %v, want %v", got, want)
	}
}

func TestScoreHighRiskNewAccount(t *testing.T) {
	// Young account with thin collateral and no lending history.
	fv := schema.FeatureVector{
		"loan_to_collateral_ratio": 0.95,
		"account_age_days":         10,
		"total_loans":              0,
	}
	got := Score(fv)
	want := 0.5 + 0.15 + 0.20
	if math.Abs(got-want) > tol {
		t.Errorf("Score() = %v, want %v", got, want)
	}
}

func TestScoreClipsToOne(t *testing.T) {
	fv := schema.FeatureVector{
		"total_loans":              10,
		"repaid_loans":             2,
		"defaulted_loans":          5,
		"account_age_days":         5,
		"loan_to_collateral_ratio": 0.95,
		"duration_days":            400,
	}
	if got := Score(fv); got != 1.0 {
		t.Errorf("Score() = %v, want clip at 1.0", got)
	}
}

func TestScoreGoodBorrowerBelowNeutral(t *testing.T) {
	fv := schema.FeatureVector{
		"total_loans":              50,
		"repaid_loans":             49,
		"defaulted_loans":          0,
		"account_age_days":         800,
		"loan_to_collateral_ratio": 0.3,
		"duration_days":            90,
	}
	got := Score(fv)
	if got >= 0.5 {
		t.Errorf("Score() = %v, want below neutral for a strong history", got)
	}
	if got < 0 {
		t.Errorf("Score() = %v, want clipped at 0", got)
	}
}

func TestScoreRepaymentBands(t *testing.T) {
	base := schema.FeatureVector{
		"account_age_days":         200, // no age adjustment
		"loan_to_collateral_ratio": 0.6, // no collateral adjustment
	}
	mk := func(repaid, total float64) schema.FeatureVector {
		fv := base.Clone()
		fv["total_loans"] = total
		fv["repaid_loans"] = repaid
		return fv
	}

	// The credit-score penalty grows with repayment rate too, so compare
	// against the exact closed form per band.
	closed := func(rr float64, band float64) float64 {
		cs := 0.5 + rr*0.3
		if cs > 1 {
			cs = 1
		}
		return 0.5 + band + (0.5-cs)*(0.5-cs)*0.8
	}

	tests := []struct {
		name          string
		repaid, total float64
		rate, bandAdj float64
	}{
		{"excellent history", 99, 100, 0.99, -0.20},
		{"good history", 9, 10, 0.9, -0.10},
		{"poor history", 1, 2, 0.5, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(mk(tt.repaid, tt.total))
			want := closed(tt.rate, tt.bandAdj)
			if math.Abs(got-want) > tol {
				t.Errorf("Score() = %v, want %v", got, want)
			}
		})
	}
}

func TestScoreDataset(t *testing.T) {
	rows := []schema.FeatureVector{
		{},
		{"loan_to_collateral_ratio": 0.95, "account_age_days": 10},
	}
	got := ScoreDataset(rows)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != Score(rows[0]) || got[1] != Score(rows[1]) {
		t.Error("ScoreDataset rows disagree with Score")
	}
}

func TestScoreRange(t *testing.T) {
	// Extreme corners stay inside [0, 1].
	corners := []schema.FeatureVector{
		{"total_loans": 1, "defaulted_loans": 1, "account_age_days": 1, "loan_to_collateral_ratio": 10, "duration_days": 3650},
		{"total_loans": 100, "repaid_loans": 100, "account_age_days": 10000, "loan_to_collateral_ratio": 0.01},
	}
	for i, fv := range corners {
		s := Score(fv)
		if s < 0 || s > 1 {
			t.Errorf("corner %d: Score() = %v, want within [0, 1]", i, s)
		}
	}
}
