package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

const tol = 1e-9

func TestFitTransformStandardizes(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	s := NewStandardScaler()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := Xs.Dims()
	for j := 0; j < c; j++ {
		var sum, ss float64
		for i := 0; i < r; i++ {
			sum += Xs.At(i, j)
		}
		mean := sum / float64(r)
		for i := 0; i < r; i++ {
			d := Xs.At(i, j) - mean
			ss += d * d
		}
		variance := ss / float64(r)

		if math.Abs(mean) > tol {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(variance-1) > tol {
			t.Errorf("column %d variance = %v, want 1", j, variance)
		}
	}
}

func TestFitStatistics(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 6})
	s := NewStandardScaler()
	if err := s.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if s.Mean[0] != 4 {
		t.Errorf("Mean = %v, want 4", s.Mean[0])
	}
	// Population standard deviation.
	if s.Scale[0] != 2 {
		t.Errorf("Scale = %v, want 2", s.Scale[0])
	}
}

func TestConstantFeatureScale(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})
	s := NewStandardScaler()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if Xs.At(i, 0) != 0 {
			t.Errorf("row %d = %v, want centered 0", i, Xs.At(i, 0))
		}
	}
	if s.Scale[0] != 1 {
		t.Errorf("Scale = %v, want fallback 1", s.Scale[0])
	}
}

func TestTransformRequiresFit(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("expected error from unfitted scaler")
	}
	var notTrained *errors.NotTrainedError
	if !errors.As(err, &notTrained) {
		t.Errorf("error type = %T, want NotTrainedError", err)
	}
}

func TestTransformDimensionCheck(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := s.Transform(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("expected dimension error")
	}
	if _, err := s.TransformRow([]float64{1}); err == nil {
		t.Error("expected dimension error for short row")
	}
}

func TestTransformRowMatchesMatrix(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 3, 9})
	s := NewStandardScaler()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	row, err := s.TransformRow([]float64{2, 5})
	if err != nil {
		t.Fatalf("TransformRow() error = %v", err)
	}
	for j := range row {
		if math.Abs(row[j]-Xs.At(1, j)) > tol {
			t.Errorf("column %d: row transform %v vs matrix %v", j, row[j], Xs.At(1, j))
		}
	}
}
