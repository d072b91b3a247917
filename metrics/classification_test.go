package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

const tol = 1e-9

func vec(vals []float64) *mat.VecDense {
	return mat.NewVecDense(len(vals), vals)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := vec([]float64{1, 1, 1, 0, 0, 0, 1, 0})
	yPred := vec([]float64{1, 1, 0, 0, 0, 1, 1, 0})

	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix() error = %v", err)
	}
	want := Confusion{TrueNegatives: 3, FalsePositives: 1, FalseNegatives: 1, TruePositives: 3}
	if c != want {
		t.Errorf("ConfusionMatrix() = %+v, want %+v", c, want)
	}
	if c.Total() != yTrue.Len() {
		t.Errorf("Total() = %d, want %d", c.Total(), yTrue.Len())
	}
}

func TestConfusionMatrixErrors(t *testing.T) {
	// gonum rejects zero-length vectors at construction, so the empty
	// case goes through the slice entry point.
	_, err := ComputeFromSlices(nil, nil, nil)
	var insufficient *errors.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Errorf("ComputeFromSlices(nil) error = %v, want InsufficientDataError", err)
	}
	if _, err := ConfusionMatrix(vec([]float64{1, 0}), vec([]float64{1})); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestDerivedMetrics(t *testing.T) {
	// TP=3, FP=1, FN=1, TN=3.
	yTrue := vec([]float64{1, 1, 1, 0, 0, 0, 1, 0})
	yPred := vec([]float64{1, 1, 0, 0, 0, 1, 1, 0})

	tests := []struct {
		name string
		fn   func(yTrue, yPred *mat.VecDense) (float64, error)
		want float64
	}{
		{"accuracy", Accuracy, 6.0 / 8.0},
		{"precision", Precision, 3.0 / 4.0},
		{"recall", Recall, 3.0 / 4.0},
		{"f1", F1, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			if math.Abs(got-tt.want) > tol {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestZeroDivisionConventions(t *testing.T) {
	// Nothing predicted positive and nothing actually positive.
	yTrue := vec([]float64{0, 0, 0})
	yPred := vec([]float64{0, 0, 0})

	p, err := Precision(yTrue, yPred)
	if err != nil || p != 0 {
		t.Errorf("Precision = %v, %v; want 0, nil", p, err)
	}
	r, err := Recall(yTrue, yPred)
	if err != nil || r != 0 {
		t.Errorf("Recall = %v, %v; want 0, nil", r, err)
	}
	f, err := F1(yTrue, yPred)
	if err != nil || f != 0 {
		t.Errorf("F1 = %v, %v; want 0, nil", f, err)
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		yTrue  []float64
		yScore []float64
		want   float64
	}{
		{
			name:   "perfect ranking",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "inverted ranking",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "all tied scores",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "sklearn reference case",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(vec(tt.yTrue), vec(tt.yScore))
			if err != nil {
				t.Fatalf("ROCAUC() error = %v", err)
			}
			if math.Abs(got-tt.want) > tol {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCAUCSingleClass(t *testing.T) {
	_, err := ROCAUC(vec([]float64{1, 1, 1}), vec([]float64{0.2, 0.5, 0.8}))
	if err == nil {
		t.Fatal("expected error for single-class labels")
	}
	var insufficient *errors.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Errorf("error type = %T, want InsufficientDataError", err)
	}
}

func TestLogLoss(t *testing.T) {
	// Confident correct predictions give a small loss.
	low, err := LogLoss(vec([]float64{1, 0}), vec([]float64{0.9, 0.1}))
	if err != nil {
		t.Fatalf("LogLoss() error = %v", err)
	}
	want := -math.Log(0.9)
	if math.Abs(low-want) > tol {
		t.Errorf("LogLoss() = %v, want %v", low, want)
	}

	// Extreme wrong probabilities stay finite thanks to clipping.
	clipped, err := LogLoss(vec([]float64{1, 0}), vec([]float64{0, 1}))
	if err != nil {
		t.Fatalf("LogLoss() error = %v", err)
	}
	if math.IsInf(clipped, 0) || math.IsNaN(clipped) {
		t.Errorf("LogLoss() = %v, want finite value", clipped)
	}
	if clipped <= low {
		t.Errorf("wrong predictions should cost more: %v <= %v", clipped, low)
	}
}

func TestComputeBundle(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1, 0}
	yProb := []float64{0.9, 0.4, 0.2, 0.6, 0.8, 0.1}

	report, err := ComputeFromSlices(yTrue, yPred, yProb)
	if err != nil {
		t.Fatalf("ComputeFromSlices() error = %v", err)
	}

	if report.Confusion.Total() != len(yTrue) {
		t.Errorf("confusion total = %d, want %d", report.Confusion.Total(), len(yTrue))
	}
	if math.Abs(report.Accuracy-4.0/6.0) > tol {
		t.Errorf("Accuracy = %v, want %v", report.Accuracy, 4.0/6.0)
	}
	if report.Specificity != 2.0/3.0 {
		t.Errorf("Specificity = %v, want %v", report.Specificity, 2.0/3.0)
	}
	if report.ROCAUC <= 0.5 {
		t.Errorf("ROCAUC = %v, want above chance", report.ROCAUC)
	}
	if report.LogLoss <= 0 {
		t.Errorf("LogLoss = %v, want positive", report.LogLoss)
	}
}
