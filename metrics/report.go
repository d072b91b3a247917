package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/pkg/errors"
)

// Report is the fixed-shape metric bundle computed identically for every
// scorer. It is a pure derived value and is never mutated after creation.
type Report struct {
	ModelName   string    `json:"model_name,omitempty"`
	Accuracy    float64   `json:"accuracy"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	F1Score     float64   `json:"f1_score"`
	ROCAUC      float64   `json:"roc_auc"`
	LogLoss     float64   `json:"log_loss"`
	Confusion   Confusion `json:"confusion_matrix"`
	Specificity float64   `json:"specificity"`
}

// Compute derives the full bundle from true labels, thresholded predicted
// labels and predicted probabilities. All three vectors must be the same
// length; both classes must be present in yTrue for the AUC term.
func Compute(yTrue, yPred, yProb *mat.VecDense) (Report, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}

	auc, err := ROCAUC(yTrue, yProb)
	if err != nil {
		return Report{}, err
	}

	loss, err := LogLoss(yTrue, yProb)
	if err != nil {
		return Report{}, err
	}

	total := c.Total()
	if total != yTrue.Len() {
		return Report{}, errors.NewDimensionError("metrics.Compute", yTrue.Len(), total, 0)
	}

	return Report{
		Accuracy:    float64(c.TruePositives+c.TrueNegatives) / float64(total),
		Precision:   c.precision(),
		Recall:      c.recall(),
		F1Score:     c.f1(),
		ROCAUC:      auc,
		LogLoss:     loss,
		Confusion:   c,
		Specificity: c.specificity(),
	}, nil
}

// ComputeFromSlices is a convenience wrapper over Compute for callers
// holding plain slices.
func ComputeFromSlices(yTrue []float64, yPred []float64, yProb []float64) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, errors.NewInsufficientDataError("metrics.ComputeFromSlices", 0, 0, "empty label slice")
	}
	if len(yPred) != len(yTrue) || len(yProb) != len(yTrue) {
		return Report{}, errors.NewDimensionError("metrics.ComputeFromSlices", len(yTrue), len(yPred), 0)
	}
	return Compute(
		mat.NewVecDense(len(yTrue), yTrue),
		mat.NewVecDense(len(yPred), yPred),
		mat.NewVecDense(len(yProb), yProb),
	)
}
