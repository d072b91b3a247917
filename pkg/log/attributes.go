package log

// Standard attribute keys. Using these consistently keeps log analysis
// and filtering uniform across the training pipeline and the service.
const (
	// Model and operation context.
	ModelNameKey = "model.name"    // e.g. "LogisticRiskModel"
	OperationKey = "ml.operation"  // "fit", "predict", "evaluate", "retrain"
	ComponentKey = "ml.component"  // "classifier", "datagen", "heuristic"
	VariantKey   = "model.variant" // "standard", "enhanced"

	// Data shape.
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	SeedKey     = "data.seed"

	// Scoring context.
	LoanIDKey       = "loan.id"
	RiskScoreKey    = "risk.score"
	RiskCategoryKey = "risk.category"
	ProbabilityKey  = "risk.probability"

	// Timing.
	DurationMSKey = "duration_ms"
)
