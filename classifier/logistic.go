// Package classifier implements the statistical scoring path: a
// regularized binary logistic regression fitted on standardized features,
// the immutable trained-model artifact, cross-validated hyperparameter
// search for the enhanced variant, and risk categorization of predicted
// probabilities.
package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

// LogisticRegression is the binary regularized logistic solver. The label
// is fixed by contract (0 = repaid, 1 = defaulted), so no multiclass path
// exists. Weights are initialized at zero: the loss is convex and zero
// initialization keeps fitting fully deterministic.
type LogisticRegression struct {
	penalty       string  // "l1" or "l2"
	c             float64 // inverse regularization strength
	maxIter       int
	tol           float64
	classBalanced bool
}

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// WithPenalty sets the regularization kind, "l1" or "l2".
func WithPenalty(penalty string) Option {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithMaxIter sets the iteration cap.
func WithMaxIter(n int) Option {
	return func(lr *LogisticRegression) { lr.maxIter = n }
}

// WithTol sets the gradient-norm stopping tolerance.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithClassBalanced toggles inverse-frequency class weighting so the
// minority class (defaults) does not bias the decision boundary.
func WithClassBalanced(balanced bool) Option {
	return func(lr *LogisticRegression) { lr.classBalanced = balanced }
}

// NewLogisticRegression creates a solver with loan-risk defaults.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		penalty:       "l2",
		c:             1.0,
		maxIter:       1000,
		tol:           1e-4,
		classBalanced: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// fitResult holds the solver output.
type fitResult struct {
	weights   []float64
	intercept float64
	nIter     int
}

// fit runs weighted gradient descent on standardized features. X must
// already be standardized; y holds 0/1 labels.
func (lr *LogisticRegression) fit(X mat.Matrix, y *mat.VecDense) (fitResult, error) {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return fitResult{}, errors.NewInsufficientDataError("LogisticRegression.fit", nSamples, 0, "empty matrix")
	}
	if y.Len() != nSamples {
		return fitResult{}, errors.NewDimensionError("LogisticRegression.fit", nSamples, y.Len(), 0)
	}
	if lr.penalty != "l1" && lr.penalty != "l2" {
		return fitResult{}, errors.NewValueError("LogisticRegression.fit", "penalty must be l1 or l2")
	}

	nPos := 0
	for i := 0; i < nSamples; i++ {
		if y.AtVec(i) >= 0.5 {
			nPos++
		}
	}
	nNeg := nSamples - nPos
	if nPos == 0 || nNeg == 0 {
		return fitResult{}, errors.NewInsufficientDataError("LogisticRegression.fit", nSamples, 1,
			"both classes must be present to fit a classifier")
	}

	// Balanced weighting: w_class = n / (2 * n_class).
	wPos, wNeg := 1.0, 1.0
	if lr.classBalanced {
		wPos = float64(nSamples) / (2 * float64(nPos))
		wNeg = float64(nSamples) / (2 * float64(nNeg))
	}
	var sumW float64
	sampleW := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.AtVec(i) >= 0.5 {
			sampleW[i] = wPos
		} else {
			sampleW[i] = wNeg
		}
		sumW += sampleW[i]
	}

	weights := make([]float64, nFeatures)
	intercept := 0.0

	// The data gradient below is averaged over the total sample weight,
	// so the penalty strength is normalized the same way. One C then
	// regularizes equally hard regardless of dataset size.
	lambda := 1.0 / (lr.c * sumW)

	// Bounding the step by 1/(1+lambda) keeps the L2 shrink factor
	// strictly inside (0, 1) for every C in the search grid, including
	// the strongest regularization.
	const baseLearningRate = 0.5
	learningRate := baseLearningRate / (1.0 + lambda)

	grad := make([]float64, nFeatures)
	res := fitResult{}

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sampleW[i] * (sigmoid(z) - y.AtVec(i))
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				grad[j] += residual * X.At(i, j)
			}
		}

		for j := range grad {
			grad[j] /= sumW
		}
		gradIntercept /= sumW

		if lr.penalty == "l2" {
			for j := range weights {
				grad[j] += lambda * weights[j]
			}
		}

		maxStep := math.Abs(gradIntercept)
		for j := range weights {
			step := learningRate * grad[j]
			weights[j] -= step
			if math.Abs(grad[j]) > maxStep {
				maxStep = math.Abs(grad[j])
			}
		}
		intercept -= learningRate * gradIntercept

		if math.IsNaN(maxStep) || math.IsInf(maxStep, 0) {
			return fitResult{}, errors.NewValueError("LogisticRegression.fit",
				"solver produced a non-finite gradient")
		}

		// L1 is handled by a proximal soft-threshold after the gradient
		// step, which drives genuinely uninformative coefficients to exact
		// zero (the property the selection report depends on). The
		// threshold is the regularization share of the step just taken.
		if lr.penalty == "l1" {
			threshold := learningRate * lambda
			for j := range weights {
				weights[j] = softThreshold(weights[j], threshold)
			}
		}

		res.nIter = iter + 1
		if maxStep < lr.tol {
			break
		}
	}

	if !finite(intercept) {
		return fitResult{}, errors.NewValueError("LogisticRegression.fit",
			"solver produced a non-finite intercept")
	}
	for _, w := range weights {
		if !finite(w) {
			return fitResult{}, errors.NewValueError("LogisticRegression.fit",
				"solver produced non-finite weights")
		}
	}

	res.weights = weights
	res.intercept = intercept
	return res, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func softThreshold(w, t float64) float64 {
	switch {
	case w > t:
		return w - t
	case w < -t:
		return w + t
	default:
		return 0
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
