package dataset

import (
	"bytes"
	"testing"

	"github.com/p2plend/riskengine/schema"
)

func buildDataset(n int) *Dataset {
	names := []string{"loan_amount", "total_loans", "account_age_days"}
	ds := New(names)
	for i := 0; i < n; i++ {
		ds.Append(Sample{
			Features: schema.FeatureVector{
				"loan_amount":      float64(1000 + i),
				"total_loans":      float64(i % 7),
				"account_age_days": float64(i * 10),
			},
			Label:   i % 3 % 2, // mixed classes
			Labeled: true,
			GenProb: float64(i) / float64(n),
		})
	}
	return ds
}

func TestMatrixShapeAndOrder(t *testing.T) {
	ds := buildDataset(5)
	X := ds.Matrix()
	r, c := X.Dims()
	if r != 5 || c != 3 {
		t.Fatalf("Dims() = (%d, %d), want (5, 3)", r, c)
	}
	if X.At(2, 0) != 1002 {
		t.Errorf("At(2,0) = %v, want 1002", X.At(2, 0))
	}
	// Missing features read as 0.
	ds.Samples[0].Features = schema.FeatureVector{"loan_amount": 1}
	if v := ds.Matrix().At(0, 1); v != 0 {
		t.Errorf("missing feature = %v, want 0", v)
	}
}

func TestLabeledFilter(t *testing.T) {
	ds := buildDataset(6)
	ds.Append(Sample{Features: schema.FeatureVector{"loan_amount": 1}})

	labeled := ds.Labeled()
	if labeled.Len() != 6 {
		t.Errorf("Labeled().Len() = %d, want 6", labeled.Len())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ds := buildDataset(10)
	// One unlabeled sample exercises the empty label cell.
	ds.Append(Sample{Features: schema.FeatureVector{
		"loan_amount": 500, "total_loans": 2, "account_age_days": 90,
	}})

	var buf bytes.Buffer
	if err := ds.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if back.Len() != ds.Len() {
		t.Fatalf("Len() = %d, want %d", back.Len(), ds.Len())
	}
	if len(back.FeatureNames) != len(ds.FeatureNames) {
		t.Fatalf("feature count = %d, want %d", len(back.FeatureNames), len(ds.FeatureNames))
	}
	for i := range ds.Samples {
		a, b := ds.Samples[i], back.Samples[i]
		if a.Labeled != b.Labeled || a.Label != b.Label {
			t.Errorf("sample %d labels: got (%v,%d), want (%v,%d)", i, b.Labeled, b.Label, a.Labeled, a.Label)
		}
		if a.GenProb != b.GenProb {
			t.Errorf("sample %d prob: got %v, want %v", i, b.GenProb, a.GenProb)
		}
		for _, name := range ds.FeatureNames {
			if a.Features[name] != b.Features[name] {
				t.Errorf("sample %d %s: got %v, want %v", i, name, b.Features[name], a.Features[name])
			}
		}
	}
}

func TestStratifiedSplitProportions(t *testing.T) {
	ds := buildDataset(100)
	train, test, err := ds.StratifiedSplit(0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit() error = %v", err)
	}

	if train.Len()+test.Len() != ds.Len() {
		t.Errorf("partition sizes: %d + %d != %d", train.Len(), test.Len(), ds.Len())
	}
	if test.Len() < 15 || test.Len() > 25 {
		t.Errorf("test size = %d, want about 20", test.Len())
	}

	trainNeg, trainPos := train.ClassCounts()
	testNeg, testPos := test.ClassCounts()
	if trainNeg == 0 || trainPos == 0 || testNeg == 0 || testPos == 0 {
		t.Error("stratified split lost a class")
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	ds := buildDataset(60)
	_, testA, err := ds.StratifiedSplit(0.25, 7)
	if err != nil {
		t.Fatalf("StratifiedSplit() error = %v", err)
	}
	_, testB, err := ds.StratifiedSplit(0.25, 7)
	if err != nil {
		t.Fatalf("StratifiedSplit() error = %v", err)
	}

	if testA.Len() != testB.Len() {
		t.Fatalf("test sizes differ: %d vs %d", testA.Len(), testB.Len())
	}
	for i := range testA.Samples {
		if testA.Samples[i].Features["loan_amount"] != testB.Samples[i].Features["loan_amount"] {
			t.Fatal("identical seeds produced different splits")
		}
	}
}

func TestStratifiedSplitSingleClass(t *testing.T) {
	ds := New([]string{"x"})
	for i := 0; i < 10; i++ {
		ds.Append(Sample{Features: schema.FeatureVector{"x": float64(i)}, Label: 1, Labeled: true})
	}
	if _, _, err := ds.StratifiedSplit(0.2, 1); err == nil {
		t.Error("expected error for single-class dataset")
	}
}

func TestStratifiedFolds(t *testing.T) {
	ds := buildDataset(90)
	folds, err := ds.StratifiedFolds(5, 42)
	if err != nil {
		t.Fatalf("StratifiedFolds() error = %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("fold count = %d, want 5", len(folds))
	}

	seen := make(map[int]int)
	for _, fold := range folds {
		if len(fold.TrainIndices)+len(fold.TestIndices) != ds.Len() {
			t.Errorf("fold covers %d samples, want %d",
				len(fold.TrainIndices)+len(fold.TestIndices), ds.Len())
		}
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
		testNeg, testPos := ds.Subset(fold.TestIndices).ClassCounts()
		if testNeg == 0 || testPos == 0 {
			t.Error("fold test set lost a class")
		}
	}
	// Every sample appears in exactly one test fold.
	for i := 0; i < ds.Len(); i++ {
		if seen[i] != 1 {
			t.Errorf("sample %d in %d test folds, want 1", i, seen[i])
		}
	}
}

func TestStratifiedFoldsTooFewSamples(t *testing.T) {
	ds := New([]string{"x"})
	for i := 0; i < 6; i++ {
		ds.Append(Sample{Features: schema.FeatureVector{"x": float64(i)}, Label: i % 2, Labeled: true})
	}
	if _, err := ds.StratifiedFolds(5, 1); err == nil {
		t.Error("expected error when a class has fewer samples than folds")
	}
}

func TestIntersectNames(t *testing.T) {
	a := []string{"x", "y", "z"}
	b := []string{"z", "x", "w"}
	got := IntersectNames(a, b)
	want := []string{"x", "z"}
	if len(got) != len(want) {
		t.Fatalf("IntersectNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IntersectNames()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestConcat(t *testing.T) {
	a := buildDataset(3)
	b := buildDataset(2)
	merged := a.Concat(b)
	if merged.Len() != 5 {
		t.Errorf("Concat().Len() = %d, want 5", merged.Len())
	}
	if merged.Samples[3].Features["loan_amount"] != 1000 {
		t.Errorf("concat order wrong: %v", merged.Samples[3].Features["loan_amount"])
	}
}

func TestClassCounts(t *testing.T) {
	ds := New([]string{"x"})
	labels := []int{0, 1, 1, 0, 1}
	for i, l := range labels {
		ds.Append(Sample{Features: schema.FeatureVector{"x": float64(i)}, Label: l, Labeled: true})
	}
	neg, pos := ds.ClassCounts()
	if neg != 2 || pos != 3 {
		t.Errorf("ClassCounts() = (%d, %d), want (2, 3)", neg, pos)
	}
}
