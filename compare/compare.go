// Package compare runs two scorers over the same held-out set and produces
// a structured delta report, so a caller can decide which scoring path to
// trust. The improvement convention is signed percentage of A over B; for
// log-loss a decrease counts as improvement, so its sign is inverted
// relative to the other metrics.
package compare

import (
	"time"

	"github.com/p2plend/riskengine/metrics"
	"github.com/p2plend/riskengine/pkg/errors"
)

// decisionThreshold converts probabilities to binary labels for the
// confusion-based metrics.
const decisionThreshold = 0.5

// Report is the full comparison output: both metric bundles side by side
// plus per-metric signed improvement of A over B.
type Report struct {
	ModelA       metrics.Report     `json:"model_a"`
	ModelB       metrics.Report     `json:"model_b"`
	Improvements map[string]float64 `json:"improvements"`
	ComparedAt   time.Time          `json:"comparison_date"`
}

// Compare evaluates two probability scorers against the same true labels.
// aName/bName label the bundles in the report (e.g. "logistic_regression"
// vs "heuristic").
func Compare(yTrue []float64, aName string, aProbs []float64, bName string, bProbs []float64) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, errors.NewInsufficientDataError("compare.Compare", 0, 0, "empty label slice")
	}
	if len(aProbs) != len(yTrue) || len(bProbs) != len(yTrue) {
		return Report{}, errors.NewDimensionError("compare.Compare", len(yTrue), len(aProbs), 0)
	}

	reportA, err := evaluate(yTrue, aProbs, aName)
	if err != nil {
		return Report{}, err
	}
	reportB, err := evaluate(yTrue, bProbs, bName)
	if err != nil {
		return Report{}, err
	}

	improvements := map[string]float64{
		"accuracy":  improvement(reportA.Accuracy, reportB.Accuracy),
		"precision": improvement(reportA.Precision, reportB.Precision),
		"recall":    improvement(reportA.Recall, reportB.Recall),
		"f1_score":  improvement(reportA.F1Score, reportB.F1Score),
		"roc_auc":   improvement(reportA.ROCAUC, reportB.ROCAUC),
		// Lower is better, so the delta sign is flipped.
		"log_loss": inverted(improvement(reportA.LogLoss, reportB.LogLoss)),
	}

	return Report{
		ModelA:       reportA,
		ModelB:       reportB,
		Improvements: improvements,
		ComparedAt:   time.Now().UTC(),
	}, nil
}

func evaluate(yTrue, probs []float64, name string) (metrics.Report, error) {
	preds := make([]float64, len(probs))
	for i, p := range probs {
		if p >= decisionThreshold {
			preds[i] = 1
		}
	}
	report, err := metrics.ComputeFromSlices(yTrue, preds, probs)
	if err != nil {
		return metrics.Report{}, err
	}
	report.ModelName = name
	return report, nil
}

// improvement returns (a-b)/b × 100, or 0 when b is 0 so a degenerate
// baseline never raises a division error.
func improvement(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// inverted flips the sign without producing a negative zero.
func inverted(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}
