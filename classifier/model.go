package classifier

import (
	"time"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/features"
	"github.com/p2plend/riskengine/metrics"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/preprocessing"
	"github.com/p2plend/riskengine/schema"
)

// Variant names for the two contracted classifier configurations.
const (
	VariantStandard = "standard"
	VariantEnhanced = "enhanced"
)

// TrainedModel is the immutable artifact produced by Train: the fitted
// weight vector and intercept, the standardization transform fitted on the
// training set, and the exact ordered feature list used at fit time.
// Prediction must reproduce that list and transform; any mismatch is a
// contract violation, never silently tolerated. A TrainedModel is safe for
// concurrent read-only prediction.
type TrainedModel struct {
	Variant    string
	Penalty    string
	C          float64
	Weights    []float64
	Intercept  float64
	Iterations int

	FeatureNames []string
	Engineered   bool // derived columns were part of fitting
	Scaler       *preprocessing.StandardScaler

	TrainedAt time.Time
	Metrics   metrics.Report // held-out evaluation recorded after fitting

	Fitted bool
}

// Prediction is the scored output for one loan request.
type Prediction struct {
	DefaultPrediction  int     `json:"default_prediction"`
	DefaultProbability float64 `json:"default_probability"`
	RiskScore          int     `json:"risk_score"`
	RiskCategory       string  `json:"risk_category"`
}

// TrainConfig collects the knobs shared by both variants.
type TrainConfig struct {
	Penalty       string
	C             float64
	MaxIter       int
	Tol           float64
	ClassBalanced bool
	Engineered    bool
}

// DefaultTrainConfig mirrors the standard variant's fixed parameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Penalty:       "l2",
		C:             1.0,
		MaxIter:       1000,
		Tol:           1e-4,
		ClassBalanced: true,
	}
}

// Train standardizes the dataset's features with statistics from this
// dataset only and fits the regularized classifier. The dataset must
// already carry the engineered columns when cfg.Engineered is set; Train
// records the flag so inference can rebuild derived features from base
// input.
func Train(ds *dataset.Dataset, cfg TrainConfig) (*TrainedModel, error) {
	labeled := ds.Labeled()
	if labeled.Len() == 0 {
		return nil, errors.NewInsufficientDataError("classifier.Train", 0, 0, "no labeled samples")
	}
	neg, pos := labeled.ClassCounts()
	if neg == 0 || pos == 0 {
		return nil, errors.NewInsufficientDataError("classifier.Train", labeled.Len(), 1,
			"both outcomes must be present in the training set")
	}

	X := labeled.Matrix()
	y, err := labeled.Labels()
	if err != nil {
		return nil, err
	}

	scaler := preprocessing.NewStandardScaler()
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}

	lr := NewLogisticRegression(
		WithPenalty(cfg.Penalty),
		WithC(cfg.C),
		WithMaxIter(cfg.MaxIter),
		WithTol(cfg.Tol),
		WithClassBalanced(cfg.ClassBalanced),
	)
	res, err := lr.fit(Xs, y)
	if err != nil {
		return nil, err
	}

	variant := VariantStandard
	if cfg.Engineered {
		variant = VariantEnhanced
	}

	names := make([]string, len(ds.FeatureNames))
	copy(names, ds.FeatureNames)

	return &TrainedModel{
		Variant:      variant,
		Penalty:      cfg.Penalty,
		C:            cfg.C,
		Weights:      res.weights,
		Intercept:    res.intercept,
		Iterations:   res.nIter,
		FeatureNames: names,
		Engineered:   cfg.Engineered,
		Scaler:       scaler,
		TrainedAt:    time.Now().UTC(),
		Fitted:       true,
	}, nil
}

// rawScore computes the linear score for an already ordered, standardized
// row.
func (m *TrainedModel) rawScore(row []float64) float64 {
	z := m.Intercept
	for j, w := range m.Weights {
		z += row[j] * w
	}
	return z
}

// PredictVector scores a single loan request. Missing feature names
// default to 0 before standardization; unknown names are ignored. The
// input must overlap the model's feature list in at least one name, or the
// request carries no information and is rejected.
func (m *TrainedModel) PredictVector(fv schema.FeatureVector) (Prediction, error) {
	if m == nil || !m.Fitted {
		return Prediction{}, errors.NewNotTrainedError("LogisticRiskModel", "PredictVector")
	}
	if len(fv) == 0 {
		return Prediction{}, errors.NewInvalidFeatureInputError("PredictVector", "empty feature vector")
	}

	if m.Engineered {
		fv = features.Vector(fv, m.FeatureNames)
	}

	known := 0
	for _, name := range m.FeatureNames {
		if fv.Has(name) {
			known++
		}
	}
	if known == 0 {
		return Prediction{}, errors.NewInvalidFeatureInputError("PredictVector",
			"no supplied feature name matches the model's feature list")
	}

	row, err := m.Scaler.TransformRow(fv.Ordered(m.FeatureNames))
	if err != nil {
		return Prediction{}, err
	}

	p := sigmoid(m.rawScore(row))
	label := 0
	if p >= 0.5 {
		label = 1
	}
	return Prediction{
		DefaultPrediction:  label,
		DefaultProbability: p,
		RiskScore:          RiskScore(p),
		RiskCategory:       RiskCategory(p),
	}, nil
}

// PredictDataset scores every row and returns probabilities and 0/1 labels
// in dataset order. Rows are materialized in the model's stored feature
// order; dataset columns outside that list are ignored and absent ones
// read as 0.
func (m *TrainedModel) PredictDataset(ds *dataset.Dataset) (probs, labels []float64, err error) {
	if m == nil || !m.Fitted {
		return nil, nil, errors.NewNotTrainedError("LogisticRiskModel", "PredictDataset")
	}
	if ds.Len() == 0 {
		return nil, nil, errors.NewInsufficientDataError("PredictDataset", 0, 0, "empty dataset")
	}

	probs = make([]float64, ds.Len())
	labels = make([]float64, ds.Len())
	for i, s := range ds.Samples {
		fv := s.Features
		if m.Engineered {
			fv = features.Vector(fv, m.FeatureNames)
		}
		row, err := m.Scaler.TransformRow(fv.Ordered(m.FeatureNames))
		if err != nil {
			return nil, nil, err
		}
		p := sigmoid(m.rawScore(row))
		probs[i] = p
		if p >= 0.5 {
			labels[i] = 1
		}
	}
	return probs, labels, nil
}

// Evaluate computes the full metric bundle of the model over a labeled
// dataset.
func (m *TrainedModel) Evaluate(ds *dataset.Dataset) (metrics.Report, error) {
	labeled := ds.Labeled()
	probs, predLabels, err := m.PredictDataset(labeled)
	if err != nil {
		return metrics.Report{}, err
	}
	y, err := labeled.Labels()
	if err != nil {
		return metrics.Report{}, err
	}

	yTrue := make([]float64, y.Len())
	for i := range yTrue {
		yTrue[i] = y.AtVec(i)
	}
	return metrics.ComputeFromSlices(yTrue, predLabels, probs)
}

// ValidateSchema fails fast when the stored feature list cannot be
// reconciled with the feature names the model will be asked to score
// against: stored names must be a subset of allowed, and internal
// dimensions must agree.
func (m *TrainedModel) ValidateSchema(allowed []string) error {
	if m == nil || !m.Fitted {
		return errors.NewNotTrainedError("LogisticRiskModel", "ValidateSchema")
	}
	if len(m.FeatureNames) == 0 {
		return errors.NewFeatureMismatchError("ValidateSchema", allowed, nil, "model stores no feature names")
	}
	if len(m.Weights) != len(m.FeatureNames) {
		return errors.NewFeatureMismatchError("ValidateSchema", m.FeatureNames, nil,
			"weight vector length disagrees with the stored feature list")
	}
	if m.Scaler == nil || m.Scaler.NFeatures != len(m.FeatureNames) {
		return errors.NewFeatureMismatchError("ValidateSchema", m.FeatureNames, nil,
			"standardization transform disagrees with the stored feature list")
	}

	ok := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		ok[name] = true
	}
	for _, name := range m.FeatureNames {
		if !ok[name] {
			return errors.NewFeatureMismatchError("ValidateSchema", allowed, m.FeatureNames,
				"stored feature "+name+" is not part of the serving schema")
		}
	}
	return nil
}
