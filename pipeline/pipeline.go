// Package pipeline orchestrates the offline training flow: synthetic data
// generation, feature engineering, fitting the standard and enhanced
// classifier variants, cross-validated scoring, and the comparison against
// the rule-based scorer. It is the programmatic core behind the training
// command and the service's retrain endpoint.
package pipeline

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/classifier"
	"github.com/p2plend/riskengine/compare"
	"github.com/p2plend/riskengine/datagen"
	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/features"
	"github.com/p2plend/riskengine/heuristic"
	"github.com/p2plend/riskengine/metrics"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/pkg/log"
)

// Config collects the knobs of one training run.
type Config struct {
	// Samples is the synthetic dataset size when the pipeline generates
	// its own data.
	Samples int
	// Seed drives the generator and every stratified split, so a run is
	// reproducible end to end.
	Seed uint64
	// TestFraction is the held-out share of the stratified split.
	TestFraction float64
	// CVFolds is the fold count for the cross-validation stats bundle.
	CVFolds int
	// Grid is the enhanced variant's hyperparameter search.
	Grid classifier.GridSearch

	Logger log.Logger
}

// DefaultConfig mirrors the tuned training run: 2000 synthetic borrowers,
// an 80/20 split, 5-fold cross-validation, and the default search grid.
func DefaultConfig() Config {
	return Config{
		Samples:      2000,
		Seed:         42,
		TestFraction: 0.2,
		CVFolds:      5,
		Grid:         classifier.DefaultGridSearch(),
		Logger:       log.GetLogger(),
	}
}

// CVStats summarizes per-fold scores of the final model configuration.
// ROC-AUC is left out on purpose: a small fold can end up single-class and
// the bundle should never fail for that reason.
type CVStats struct {
	Folds        int     `json:"folds"`
	MeanF1       float64 `json:"mean_f1"`
	StdF1        float64 `json:"std_f1"`
	MeanAccuracy float64 `json:"mean_accuracy"`
	StdAccuracy  float64 `json:"std_accuracy"`
}

// VariantReport is everything recorded about one trained variant.
type VariantReport struct {
	Variant         string                      `json:"variant"`
	Metrics         metrics.Report              `json:"metrics"`
	CrossValidation CVStats                     `json:"cross_validation"`
	Search          *classifier.SearchResult    `json:"grid_search,omitempty"`
	Selection       *classifier.SelectionReport `json:"feature_selection,omitempty"`
	Importance      []classifier.Coefficient    `json:"feature_importance,omitempty"`
}

// TrainingReport is the JSON-serializable record of a full run.
type TrainingReport struct {
	Samples      int            `json:"samples"`
	Seed         uint64         `json:"seed"`
	TrainSamples int            `json:"train_samples"`
	TestSamples  int            `json:"test_samples"`
	Standard     VariantReport  `json:"standard"`
	Enhanced     VariantReport  `json:"enhanced"`
	VsHeuristic  compare.Report `json:"model_vs_heuristic"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Result bundles the trained artifacts with the run report.
type Result struct {
	Standard *classifier.TrainedModel
	Enhanced *classifier.TrainedModel
	Report   TrainingReport
}

// Run generates a synthetic dataset and trains both variants on it.
func Run(cfg Config) (*Result, error) {
	if cfg.Samples <= 0 {
		return nil, errors.NewValueError("pipeline.Run", "sample count must be positive")
	}
	logger := cfg.logger()
	logger.Info("generating synthetic training data",
		log.ComponentKey, "pipeline", log.SamplesKey, cfg.Samples, log.SeedKey, cfg.Seed)

	ds, err := datagen.New(cfg.Seed).Generate(cfg.Samples)
	if err != nil {
		return nil, err
	}
	return TrainOn(ds, cfg)
}

// TrainOn runs the full training flow over an already assembled labeled
// dataset: stratified split, standard fit, engineered grid-searched
// enhanced fit, cross-validation stats, and the heuristic comparison on
// the held-out set.
func TrainOn(ds *dataset.Dataset, cfg Config) (*Result, error) {
	logger := cfg.logger()
	start := time.Now()

	train, test, err := ds.StratifiedSplit(cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}

	standard, stdReport, err := trainStandard(train, test, cfg)
	if err != nil {
		return nil, err
	}
	enhanced, enhReport, err := trainEnhanced(train, test, cfg)
	if err != nil {
		return nil, err
	}

	vs, err := compareToHeuristic(enhanced, test)
	if err != nil {
		return nil, err
	}

	logger.Info("training run complete",
		log.ComponentKey, "pipeline",
		log.OperationKey, "fit",
		log.SamplesKey, ds.Len(),
		log.DurationMSKey, time.Since(start).Milliseconds(),
	)

	return &Result{
		Standard: standard,
		Enhanced: enhanced,
		Report: TrainingReport{
			Samples:      ds.Len(),
			Seed:         cfg.Seed,
			TrainSamples: train.Len(),
			TestSamples:  test.Len(),
			Standard:     stdReport,
			Enhanced:     enhReport,
			VsHeuristic:  vs,
			CreatedAt:    time.Now().UTC(),
		},
	}, nil
}

func trainStandard(train, test *dataset.Dataset, cfg Config) (*classifier.TrainedModel, VariantReport, error) {
	tc := classifier.DefaultTrainConfig()
	model, err := classifier.Train(train, tc)
	if err != nil {
		return nil, VariantReport{}, err
	}
	report, err := finishVariant(model, test)
	if err != nil {
		return nil, VariantReport{}, err
	}

	cv, err := crossValidate(train, tc, cfg)
	if err != nil {
		return nil, VariantReport{}, err
	}
	report.CrossValidation = cv
	return model, report, nil
}

func trainEnhanced(train, test *dataset.Dataset, cfg Config) (*classifier.TrainedModel, VariantReport, error) {
	engTrain := features.Transform(train)
	engTest := features.Transform(test)

	tc := classifier.DefaultTrainConfig()
	tc.Engineered = true

	search, err := cfg.searchGrid().Run(engTrain, tc)
	if err != nil {
		return nil, VariantReport{}, err
	}
	tc.C = search.BestC
	tc.Penalty = search.BestPenalty

	model, err := classifier.Train(engTrain, tc)
	if err != nil {
		return nil, VariantReport{}, err
	}
	report, err := finishVariant(model, engTest)
	if err != nil {
		return nil, VariantReport{}, err
	}

	selection, err := model.FeatureSelection()
	if err != nil {
		return nil, VariantReport{}, err
	}

	cv, err := crossValidate(engTrain, tc, cfg)
	if err != nil {
		return nil, VariantReport{}, err
	}

	report.Search = &search
	report.Selection = &selection
	report.CrossValidation = cv
	return model, report, nil
}

// finishVariant evaluates the model on the held-out set, stamps the
// metrics into the artifact, and starts the variant report.
func finishVariant(model *classifier.TrainedModel, test *dataset.Dataset) (VariantReport, error) {
	report, err := model.Evaluate(test)
	if err != nil {
		return VariantReport{}, err
	}
	report.ModelName = "logistic_regression_" + model.Variant
	model.Metrics = report

	importance, err := model.FeatureImportance()
	if err != nil {
		return VariantReport{}, err
	}

	return VariantReport{
		Variant:    model.Variant,
		Metrics:    report,
		Importance: importance,
	}, nil
}

// crossValidate refits the final configuration on each stratified fold and
// returns mean and standard deviation of F1 and accuracy.
func crossValidate(train *dataset.Dataset, tc classifier.TrainConfig, cfg Config) (CVStats, error) {
	folds, err := train.StratifiedFolds(cfg.CVFolds, cfg.Seed)
	if err != nil {
		return CVStats{}, err
	}

	f1s := make([]float64, 0, len(folds))
	accs := make([]float64, 0, len(folds))
	for _, fold := range folds {
		ftrain := train.Subset(fold.TrainIndices)
		ftest := train.Subset(fold.TestIndices)

		m, err := classifier.Train(ftrain, tc)
		if err != nil {
			return CVStats{}, err
		}
		_, predLabels, err := m.PredictDataset(ftest)
		if err != nil {
			return CVStats{}, err
		}
		y, err := ftest.Labels()
		if err != nil {
			return CVStats{}, err
		}
		pred := mat.NewVecDense(len(predLabels), predLabels)

		f1, err := metrics.F1(y, pred)
		if err != nil {
			return CVStats{}, err
		}
		acc, err := metrics.Accuracy(y, pred)
		if err != nil {
			return CVStats{}, err
		}
		f1s = append(f1s, f1)
		accs = append(accs, acc)
	}

	meanF1, stdF1 := meanStd(f1s)
	meanAcc, stdAcc := meanStd(accs)
	return CVStats{
		Folds:        len(folds),
		MeanF1:       meanF1,
		StdF1:        stdF1,
		MeanAccuracy: meanAcc,
		StdAccuracy:  stdAcc,
	}, nil
}

// compareToHeuristic scores the held-out set with both the trained model
// and the rule-based scorer and runs the comparison protocol.
func compareToHeuristic(model *classifier.TrainedModel, test *dataset.Dataset) (compare.Report, error) {
	labeled := test.Labeled()
	probs, _, err := model.PredictDataset(labeled)
	if err != nil {
		return compare.Report{}, err
	}

	heurProbs := make([]float64, labeled.Len())
	for i, s := range labeled.Samples {
		heurProbs[i] = heuristic.Score(s.Features)
	}

	y, err := labeled.Labels()
	if err != nil {
		return compare.Report{}, err
	}
	yTrue := make([]float64, y.Len())
	for i := range yTrue {
		yTrue[i] = y.AtVec(i)
	}

	return compare.Compare(yTrue, "logistic_regression", probs, "heuristic", heurProbs)
}

func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std
}

// searchGrid is the run's hyperparameter search: the configured grid with
// fold assignment driven by the run seed, so one seed reproduces the
// split and the cross-validation alike.
func (c Config) searchGrid() classifier.GridSearch {
	g := c.Grid
	g.Seed = c.Seed
	return g
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.GetLogger()
}
