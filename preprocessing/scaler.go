// Package preprocessing provides the standardization transform fitted on
// training data and reapplied identically at inference time.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

// StandardScaler centers each feature to zero mean and scales it to unit
// variance. Statistics are computed on the training set only; the fitted
// transform is immutable and safe for concurrent Transform calls.
type StandardScaler struct {
	Mean      []float64
	Scale     []float64
	NFeatures int
	Fitted    bool
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes the per-feature mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInsufficientDataError("StandardScaler.Fit", r, 0, "empty matrix")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(r)
	}

	for j := 0; j < c; j++ {
		var ss float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - s.Mean[j]
			ss += d * d
		}
		// Population variance, matching the transform applied at fit time.
		sd := math.Sqrt(ss / float64(r))
		if sd == 0 {
			// Constant feature: leave it centered but unscaled.
			sd = 1
		}
		s.Scale[j] = sd
	}

	s.Fitted = true
	return nil
}

// Transform standardizes X with the fitted statistics and returns a new
// matrix.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.Fitted {
		return nil, errors.NewNotTrainedError("StandardScaler", "Transform")
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits on X and returns the standardized matrix.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// TransformRow standardizes a single row vector in place-free fashion.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, errors.NewNotTrainedError("StandardScaler", "TransformRow")
	}
	if len(row) != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.TransformRow", s.NFeatures, len(row), 1)
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
