package pipeline

import (
	"github.com/p2plend/riskengine/datagen"
	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/pkg/log"
)

// Retrain refits both variants from scratch on collected real outcomes
// blended with a synthetic batch. The merge keeps only feature names the
// two tables share, in synthetic column order, so a schema drift in the
// collected data narrows the feature set instead of corrupting the fit.
// When no collected sample carries an outcome yet, the run falls back to
// synthetic data alone.
func Retrain(collected *dataset.Dataset, cfg Config) (*Result, error) {
	if cfg.Samples <= 0 {
		return nil, errors.NewValueError("pipeline.Retrain", "synthetic sample count must be positive")
	}
	logger := cfg.logger()

	synthetic, err := datagen.New(cfg.Seed).Generate(cfg.Samples)
	if err != nil {
		return nil, err
	}

	var real *dataset.Dataset
	if collected != nil {
		real = collected.Labeled()
	}
	if real == nil || real.Len() == 0 {
		logger.Warn("no labeled outcomes collected, retraining on synthetic data only",
			log.ComponentKey, "pipeline", log.OperationKey, "retrain")
		return TrainOn(synthetic, cfg)
	}

	shared := dataset.IntersectNames(synthetic.FeatureNames, real.FeatureNames)
	if len(shared) == 0 {
		return nil, errors.NewFeatureMismatchError("pipeline.Retrain",
			synthetic.FeatureNames, real.FeatureNames,
			"collected data shares no feature with the synthetic schema")
	}

	merged := synthetic.WithFeatureNames(shared).Concat(real.WithFeatureNames(shared))
	logger.Info("retraining on merged dataset",
		log.ComponentKey, "pipeline",
		log.OperationKey, "retrain",
		log.SamplesKey, merged.Len(),
		log.FeaturesKey, len(shared),
		"data.real_samples", real.Len(),
		"data.synthetic_samples", synthetic.Len(),
	)
	return TrainOn(merged, cfg)
}
