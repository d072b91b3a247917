package datagen

import (
	"testing"

	"github.com/p2plend/riskengine/schema"
)

func TestGenerateDeterministic(t *testing.T) {
	a, err := New(42).Generate(200)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := New(42).Generate(200)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Samples {
		sa, sb := a.Samples[i], b.Samples[i]
		if sa.Label != sb.Label || sa.GenProb != sb.GenProb {
			t.Fatalf("sample %d labels differ: %v vs %v", i, sa, sb)
		}
		for _, name := range a.FeatureNames {
			if sa.Features[name] != sb.Features[name] {
				t.Fatalf("sample %d feature %s differs: %v vs %v",
					i, name, sa.Features[name], sb.Features[name])
			}
		}
	}
}

func TestGenerateSeedsDiffer(t *testing.T) {
	a, _ := New(1).Generate(50)
	b, _ := New(2).Generate(50)

	same := true
	for i := range a.Samples {
		if a.Samples[i].GenProb != b.Samples[i].GenProb {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical datasets")
	}
}

func TestGenerateSchema(t *testing.T) {
	ds, err := New(7).Generate(100)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(ds.FeatureNames) != len(schema.BaseFeatures) {
		t.Fatalf("feature count = %d, want %d", len(ds.FeatureNames), len(schema.BaseFeatures))
	}
	for i, name := range schema.BaseFeatures {
		if ds.FeatureNames[i] != name {
			t.Errorf("feature %d = %s, want %s", i, ds.FeatureNames[i], name)
		}
	}
	for i, s := range ds.Samples {
		for _, name := range schema.BaseFeatures {
			if !s.Features.Has(name) {
				t.Fatalf("sample %d missing feature %s", i, name)
			}
		}
	}
}

func TestGenerateInvariants(t *testing.T) {
	ds, err := New(42).Generate(500)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i, s := range ds.Samples {
		if !s.Labeled {
			t.Fatalf("sample %d is unlabeled", i)
		}
		if s.Label != 0 && s.Label != 1 {
			t.Fatalf("sample %d label = %d", i, s.Label)
		}
		if s.GenProb < minDefaultProbability || s.GenProb > maxDefaultProbability {
			t.Fatalf("sample %d generating probability %v outside clip bounds", i, s.GenProb)
		}

		fv := s.Features
		total := fv.Get("total_loans")
		repaid := fv.Get("repaid_loans")
		defaulted := fv.Get("defaulted_loans")
		if total == 0 {
			if repaid != 0 || defaulted != 0 {
				t.Fatalf("sample %d has loan counts without loans: repaid=%v defaulted=%v", i, repaid, defaulted)
			}
			if fv.Get("avg_repayment_time") != 0.5 {
				t.Fatalf("sample %d repayment time = %v, want neutral 0.5", i, fv.Get("avg_repayment_time"))
			}
		}
		if repaid+defaulted > total {
			t.Fatalf("sample %d loan counts exceed total: %v + %v > %v", i, repaid, defaulted, total)
		}

		for _, ratio := range []string{"stablecoin_ratio", "volatility_index", "diversity_score", "yield_farming_activity"} {
			if v := fv.Get(ratio); v < 0 || v > 1 {
				t.Fatalf("sample %d %s = %v outside [0, 1]", i, ratio, v)
			}
		}
		ltc := fv.Get("loan_to_collateral_ratio")
		if ltc <= 0 || ltc > 1/1.2+1e-9 {
			t.Fatalf("sample %d loan_to_collateral_ratio = %v outside expected range", i, ltc)
		}
	}
}

func TestGenerateBothClasses(t *testing.T) {
	ds, err := New(42).Generate(1000)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	neg, pos := ds.ClassCounts()
	if neg == 0 || pos == 0 {
		t.Fatalf("degenerate class balance: neg=%d pos=%d", neg, pos)
	}
}

func TestGenerateRejectsBadCount(t *testing.T) {
	if _, err := New(1).Generate(0); err == nil {
		t.Error("expected error for n=0")
	}
	if _, err := New(1).Generate(-5); err == nil {
		t.Error("expected error for negative n")
	}
}

func TestDefaultProbabilityClip(t *testing.T) {
	if p := defaultProbability(1, 0.01, 0.95, 0, 1); p != maxDefaultProbability {
		t.Errorf("worst case probability = %v, want clip at %v", p, maxDefaultProbability)
	}
	if p := defaultProbability(0, 1, 0.3, 1, 1000); p != minDefaultProbability {
		t.Errorf("best case probability = %v, want clip at %v", p, minDefaultProbability)
	}
}
