// Package features derives ratio and interaction columns from the base
// schema. Only the enhanced classifier variant consumes them; the standard
// variant and the heuristic scorer work on base features alone.
package features

import (
	"math"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/schema"
)

// Derived column names, in the order they are appended.
const (
	RepaymentRate         = "repayment_rate"
	DefaultRate           = "default_rate"
	CollateralToLoanRatio = "collateral_to_loan_ratio"
	StabilityScore        = "stability_score"
	ExperienceScore       = "experience_score"
	LoanConcentration     = "loan_concentration"
	RiskPremiumSignal     = "risk_premium_signal"
)

// derivation describes one derived column: its source columns and the
// formula over a feature vector. A derivation is skipped for the whole
// dataset when any source column is absent; it never fails row by row.
type derivation struct {
	name    string
	sources []string
	compute func(fv schema.FeatureVector) float64
}

// The "+1" denominators are intentional: they avoid division by zero and
// dampen small-sample ratios.
var derivations = []derivation{
	{
		name:    RepaymentRate,
		sources: []string{"repaid_loans", "total_loans"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["repaid_loans"] / (fv["total_loans"] + 1)
		},
	},
	{
		name:    DefaultRate,
		sources: []string{"defaulted_loans", "total_loans"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["defaulted_loans"] / (fv["total_loans"] + 1)
		},
	},
	{
		name:    CollateralToLoanRatio,
		sources: []string{"collateral_amount", "loan_amount"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["collateral_amount"] / (fv["loan_amount"] + 1)
		},
	},
	{
		name:    StabilityScore,
		sources: []string{"stablecoin_ratio", "avg_holding_period"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["stablecoin_ratio"] * math.Log1p(fv["avg_holding_period"])
		},
	},
	{
		name:    ExperienceScore,
		sources: []string{"account_age_days", "total_loans"},
		compute: func(fv schema.FeatureVector) float64 {
			return math.Log1p(fv["account_age_days"]) * math.Log1p(fv["total_loans"])
		},
	},
	{
		name:    LoanConcentration,
		sources: []string{"loan_amount", "total_volume"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["loan_amount"] / (fv["total_volume"] + 1)
		},
	},
	{
		name:    RiskPremiumSignal,
		sources: []string{"interest_rate", "loan_to_collateral_ratio"},
		compute: func(fv schema.FeatureVector) float64 {
			return fv["interest_rate"] * fv["loan_to_collateral_ratio"]
		},
	},
}

// DerivedNames returns every derived column name in application order.
func DerivedNames() []string {
	out := make([]string, len(derivations))
	for i, d := range derivations {
		out[i] = d.name
	}
	return out
}

// Transform returns a dataset of equal length with the original columns
// plus every derived column whose source columns all exist. Derivations are
// applied to the whole dataset uniformly, never per row.
func Transform(ds *dataset.Dataset) *dataset.Dataset {
	present := make(map[string]bool, len(ds.FeatureNames))
	for _, name := range ds.FeatureNames {
		present[name] = true
	}

	var active []derivation
	names := append([]string(nil), ds.FeatureNames...)
	for _, d := range derivations {
		ok := true
		for _, src := range d.sources {
			if !present[src] {
				ok = false
				break
			}
		}
		if ok {
			active = append(active, d)
			names = append(names, d.name)
		}
	}

	out := dataset.New(names)
	out.Samples = make([]dataset.Sample, 0, ds.Len())
	for _, s := range ds.Samples {
		fv := s.Features.Clone()
		for _, d := range active {
			fv[d.name] = d.compute(s.Features)
		}
		out.Append(dataset.Sample{
			Features: fv,
			Label:    s.Label,
			Labeled:  s.Labeled,
			GenProb:  s.GenProb,
		})
	}
	return out
}

// Vector applies the same derivations to a single feature vector against an
// explicit target feature list, for inference-time parity with a model
// trained on engineered columns. Derived names not in target are skipped.
func Vector(fv schema.FeatureVector, target []string) schema.FeatureVector {
	wanted := make(map[string]bool, len(target))
	for _, name := range target {
		wanted[name] = true
	}
	out := fv.Clone()
	for _, d := range derivations {
		if !wanted[d.name] {
			continue
		}
		ok := true
		for _, src := range d.sources {
			if !fv.Has(src) {
				ok = false
				break
			}
		}
		if ok {
			out[d.name] = d.compute(fv)
		}
	}
	return out
}
