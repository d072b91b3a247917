// Package metrics computes the fixed classification metric bundle used to
// evaluate every scorer in the system: accuracy, precision, recall, F1,
// ROC-AUC, log-loss, confusion counts and specificity. All functions are
// pure; undefined conditions surface as typed errors rather than silent
// zeros.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

// logLossEps bounds predicted probabilities away from 0 and 1 so the log
// terms stay finite.
const logLossEps = 1e-15

// Confusion holds the binary confusion counts.
type Confusion struct {
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TruePositives  int `json:"true_positives"`
}

// Total returns the number of samples counted.
func (c Confusion) Total() int {
	return c.TrueNegatives + c.FalsePositives + c.FalseNegatives + c.TruePositives
}

// ConfusionMatrix computes the confusion counts from true and predicted
// binary labels.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (Confusion, error) {
	n := yTrue.Len()
	if n == 0 {
		return Confusion{}, errors.NewInsufficientDataError("ConfusionMatrix", 0, 0, "empty label vector")
	}
	if yPred.Len() != n {
		return Confusion{}, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	var c Confusion
	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i) >= 0.5
		predicted := yPred.AtVec(i) >= 0.5
		switch {
		case actual && predicted:
			c.TruePositives++
		case actual && !predicted:
			c.FalseNegatives++
		case !actual && predicted:
			c.FalsePositives++
		default:
			c.TrueNegatives++
		}
	}
	return c, nil
}

// Accuracy is the fraction of correct predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return float64(c.TruePositives+c.TrueNegatives) / float64(c.Total()), nil
}

// Precision is TP/(TP+FP); 0 when nothing was predicted positive.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return c.precision(), nil
}

func (c Confusion) precision() float64 {
	denom := c.TruePositives + c.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Recall is TP/(TP+FN); 0 when no positives exist.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return c.recall(), nil
}

func (c Confusion) recall() float64 {
	denom := c.TruePositives + c.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// F1 is the harmonic mean of precision and recall; 0 when both are 0.
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return c.f1(), nil
}

func (c Confusion) f1() float64 {
	p, r := c.precision(), c.recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (c Confusion) specificity() float64 {
	denom := c.TrueNegatives + c.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(c.TrueNegatives) / float64(denom)
}

// ROCAUC computes the area under the ROC curve from true labels and
// predicted scores using the rank statistic, with midrank correction for
// tied scores. Both classes must be present; otherwise the area is
// undefined and an InsufficientDataError is returned.
func ROCAUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewInsufficientDataError("ROCAUC", 0, 0, "empty label vector")
	}
	if yScore.Len() != n {
		return 0, errors.NewDimensionError("ROCAUC", n, yScore.Len(), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) >= 0.5 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, errors.NewInsufficientDataError("ROCAUC", n, 1,
			"ROC-AUC is undefined with a single class present")
	}

	type scored struct {
		score float64
		pos   bool
	}
	items := make([]scored, n)
	for i := 0; i < n; i++ {
		items[i] = scored{score: yScore.AtVec(i), pos: yTrue.AtVec(i) >= 0.5}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].score < items[j].score })

	// Sum midranks of the positive class.
	var rankSum float64
	i := 0
	for i < n {
		j := i
		for j < n && items[j].score == items[i].score {
			j++
		}
		// Ranks are 1-based; tied scores share the average rank.
		avgRank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if items[k].pos {
				rankSum += avgRank
			}
		}
		i = j
	}

	auc := (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// LogLoss computes the mean negative log-likelihood of the true labels
// under the predicted probabilities, with probabilities clipped to
// [eps, 1-eps] for numerical stability.
func LogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewInsufficientDataError("LogLoss", 0, 0, "empty label vector")
	}
	if yProb.Len() != n {
		return 0, errors.NewDimensionError("LogLoss", n, yProb.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yProb.AtVec(i), logLossEps), 1-logLossEps)
		if yTrue.AtVec(i) >= 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}
