// Package dataset provides the labeled tabular dataset abstraction shared
// by the generator, the feature engineer, the classifier and the retraining
// loop, together with CSV persistence and stratified splitting.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/schema"
)

// Sample is one row: a feature vector, an optional binary label and, for
// synthetic rows, the probability the label was drawn from (diagnostic
// only, never a model input).
type Sample struct {
	Features schema.FeatureVector
	Label    int
	Labeled  bool
	GenProb  float64
}

// Dataset is an ordered sequence of samples sharing one feature name set.
// FeatureNames is the authoritative column order; values missing from a
// row materialize as 0.
type Dataset struct {
	FeatureNames []string
	Samples      []Sample
}

// New creates an empty dataset over the given ordered feature names.
func New(featureNames []string) *Dataset {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return &Dataset{FeatureNames: names}
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Append adds a sample. The sample's feature vector may carry names outside
// FeatureNames; they are simply never materialized.
func (d *Dataset) Append(s Sample) {
	d.Samples = append(d.Samples, s)
}

// Matrix materializes the feature table as an n×p dense matrix in
// FeatureNames order.
func (d *Dataset) Matrix() *mat.Dense {
	n := len(d.Samples)
	p := len(d.FeatureNames)
	X := mat.NewDense(n, p, nil)
	for i, s := range d.Samples {
		for j, name := range d.FeatureNames {
			X.Set(i, j, s.Features[name])
		}
	}
	return X
}

// Labels returns the label column as a vector. Unlabeled samples are a
// contract violation here: callers must Filter to labeled rows first.
func (d *Dataset) Labels() (*mat.VecDense, error) {
	if d.Len() == 0 {
		return nil, errors.NewInsufficientDataError("Dataset.Labels", 0, 0, "empty dataset")
	}
	y := mat.NewVecDense(d.Len(), nil)
	for i, s := range d.Samples {
		if !s.Labeled {
			return nil, errors.NewValueError("Dataset.Labels", "dataset contains unlabeled samples")
		}
		y.SetVec(i, float64(s.Label))
	}
	return y, nil
}

// ClassCounts returns the number of repaid (label 0) and defaulted
// (label 1) samples among labeled rows.
func (d *Dataset) ClassCounts() (negatives, positives int) {
	for _, s := range d.Samples {
		if !s.Labeled {
			continue
		}
		if s.Label == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return negatives, positives
}

// Labeled returns a view containing only samples with a known outcome.
func (d *Dataset) Labeled() *Dataset {
	out := New(d.FeatureNames)
	for _, s := range d.Samples {
		if s.Labeled {
			out.Append(s)
		}
	}
	return out
}

// Subset returns a new dataset containing the rows at the given indices.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := New(d.FeatureNames)
	out.Samples = make([]Sample, 0, len(indices))
	for _, idx := range indices {
		out.Samples = append(out.Samples, d.Samples[idx])
	}
	return out
}

// WithFeatureNames returns a view of the same samples restricted to the
// given ordered feature names.
func (d *Dataset) WithFeatureNames(names []string) *Dataset {
	out := New(names)
	out.Samples = d.Samples
	return out
}

// IntersectNames returns the feature names present in both ordered lists,
// preserving the order of the receiver's list. Used by the retraining loop
// to merge synthetic and collected tables.
func IntersectNames(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, name := range b {
		inB[name] = true
	}
	var out []string
	for _, name := range a {
		if inB[name] {
			out = append(out, name)
		}
	}
	return out
}

// Concat merges datasets that share a feature name set into one. The
// receiver's column order wins.
func (d *Dataset) Concat(other *Dataset) *Dataset {
	out := New(d.FeatureNames)
	out.Samples = make([]Sample, 0, d.Len()+other.Len())
	out.Samples = append(out.Samples, d.Samples...)
	out.Samples = append(out.Samples, other.Samples...)
	return out
}
