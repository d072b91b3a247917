package features

import (
	"math"
	"testing"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/schema"
)

const tol = 1e-9

func sampleVector() schema.FeatureVector {
	return schema.FeatureVector{
		"repaid_loans":             8,
		"defaulted_loans":          1,
		"total_loans":              9,
		"collateral_amount":        15000,
		"loan_amount":              10000,
		"stablecoin_ratio":         0.6,
		"avg_holding_period":       45,
		"account_age_days":         400,
		"total_volume":             250000,
		"interest_rate":            850,
		"loan_to_collateral_ratio": 0.66,
	}
}

func TestTransformDerivedValues(t *testing.T) {
	ds := dataset.New(keys(sampleVector()))
	ds.Append(dataset.Sample{Features: sampleVector(), Label: 0, Labeled: true})

	out := Transform(ds)
	fv := out.Samples[0].Features

	tests := []struct {
		name string
		want float64
	}{
		{RepaymentRate, 8.0 / 10.0},
		{DefaultRate, 1.0 / 10.0},
		{CollateralToLoanRatio, 15000.0 / 10001.0},
		{StabilityScore, 0.6 * math.Log1p(45)},
		{ExperienceScore, math.Log1p(400) * math.Log1p(9)},
		{LoanConcentration, 10000.0 / 250001.0},
		{RiskPremiumSignal, 850 * 0.66},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !fv.Has(tt.name) {
				t.Fatalf("derived column %s missing", tt.name)
			}
			if math.Abs(fv.Get(tt.name)-tt.want) > tol {
				t.Errorf("%s = %v, want %v", tt.name, fv.Get(tt.name), tt.want)
			}
		})
	}

	wantCols := len(ds.FeatureNames) + len(derivations)
	if len(out.FeatureNames) != wantCols {
		t.Errorf("column count = %d, want %d", len(out.FeatureNames), wantCols)
	}
}

func TestTransformSkipsWhenSourceMissing(t *testing.T) {
	// No loan history columns: the loan-derived ratios must be skipped for
	// the whole dataset, not zeroed.
	fv := schema.FeatureVector{
		"stablecoin_ratio":   0.5,
		"avg_holding_period": 10,
	}
	ds := dataset.New(keys(fv))
	ds.Append(dataset.Sample{Features: fv})

	out := Transform(ds)
	got := out.Samples[0].Features

	if !got.Has(StabilityScore) {
		t.Error("stability_score should be derivable")
	}
	for _, name := range []string{RepaymentRate, DefaultRate, CollateralToLoanRatio, ExperienceScore} {
		if got.Has(name) {
			t.Errorf("%s derived despite missing sources", name)
		}
	}
	for _, name := range out.FeatureNames {
		if name == RepaymentRate {
			t.Error("skipped derivation still listed in feature names")
		}
	}
}

func TestTransformPreservesLabels(t *testing.T) {
	ds := dataset.New(keys(sampleVector()))
	ds.Append(dataset.Sample{Features: sampleVector(), Label: 1, Labeled: true, GenProb: 0.42})

	out := Transform(ds)
	s := out.Samples[0]
	if s.Label != 1 || !s.Labeled || s.GenProb != 0.42 {
		t.Errorf("sample metadata not preserved: %+v", s)
	}
}

func TestVectorMatchesTransform(t *testing.T) {
	ds := dataset.New(keys(sampleVector()))
	ds.Append(dataset.Sample{Features: sampleVector()})
	bulk := Transform(ds).Samples[0].Features

	target := append(keys(sampleVector()), DerivedNames()...)
	single := Vector(sampleVector(), target)

	for _, name := range DerivedNames() {
		if math.Abs(bulk.Get(name)-single.Get(name)) > tol {
			t.Errorf("%s: bulk %v vs single %v", name, bulk.Get(name), single.Get(name))
		}
	}
}

func TestVectorIgnoresUnwantedDerivations(t *testing.T) {
	out := Vector(sampleVector(), []string{RepaymentRate})
	if !out.Has(RepaymentRate) {
		t.Error("requested derivation missing")
	}
	if out.Has(DefaultRate) {
		t.Error("unrequested derivation was added")
	}
}

func TestVectorDoesNotMutateInput(t *testing.T) {
	in := sampleVector()
	_ = Vector(in, append(keys(in), DerivedNames()...))
	if in.Has(RepaymentRate) {
		t.Error("input vector was mutated")
	}
}

func keys(fv schema.FeatureVector) []string {
	out := make([]string, 0, len(fv))
	for _, name := range schema.BaseFeatures {
		if fv.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
