package schema

// FeatureVector maps feature names to numeric values. Ordering is imposed
// externally by whichever ordered name list is authoritative for the
// operation (the canonical schema for scoring, the stored list on a trained
// model for prediction). A vector is treated as immutable once built for a
// given row.
type FeatureVector map[string]float64

// Get returns the value for name, defaulting to 0 when absent.
func (fv FeatureVector) Get(name string) float64 {
	return fv[name]
}

// Has reports whether name is present.
func (fv FeatureVector) Has(name string) bool {
	_, ok := fv[name]
	return ok
}

// Clone returns an independent copy.
func (fv FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}

// Ordered materializes the vector as a slice following names; missing
// names become 0 and names outside the list are ignored.
func (fv FeatureVector) Ordered(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = fv[name]
	}
	return out
}
