package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/p2plend/riskengine/classifier"
	"github.com/p2plend/riskengine/pipeline"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/pkg/log"
	"github.com/p2plend/riskengine/schema"
)

type predictRequest struct {
	LoanID   string               `json:"loan_id"`
	Features schema.FeatureVector `json:"features" binding:"required"`
}

type predictResponse struct {
	LoanID string `json:"loan_id,omitempty"`
	classifier.Prediction
	ModelVariant string `json:"model_variant"`
}

type outcomeRequest struct {
	LoanID    string `json:"loan_id" binding:"required"`
	Defaulted *bool  `json:"defaulted" binding:"required"`
}

func (s *Server) healthHandler(c *gin.Context) {
	m := s.model.Load()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"model_trained": m != nil && m.Fitted,
	})
}

func (s *Server) predictHandler(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	pred, ok := s.scoreOne(c, req.Features)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, predictResponse{
		LoanID:       req.LoanID,
		Prediction:   pred,
		ModelVariant: s.model.Load().Variant,
	})
}

func (s *Server) predictBatchHandler(c *gin.Context) {
	var reqs []predictRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}

	variant := ""
	if m := s.model.Load(); m != nil {
		variant = m.Variant
	}
	out := make([]predictResponse, 0, len(reqs))
	for _, req := range reqs {
		pred, ok := s.scoreOne(c, req.Features)
		if !ok {
			return
		}
		out = append(out, predictResponse{
			LoanID:       req.LoanID,
			Prediction:   pred,
			ModelVariant: variant,
		})
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

// scoreOne runs one prediction with instrumentation. On failure it writes
// the error response and returns ok=false.
func (s *Server) scoreOne(c *gin.Context, fv schema.FeatureVector) (classifier.Prediction, bool) {
	start := time.Now()
	pred, err := s.model.Load().PredictVector(fv)
	s.metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.PredictionErrors.Inc()
		s.abortWithError(c, err)
		return classifier.Prediction{}, false
	}

	s.metrics.PredictionsTotal.Inc()
	s.metrics.RiskCategories.WithLabelValues(pred.RiskCategory).Inc()
	s.metrics.RiskProbability.Observe(pred.DefaultProbability)
	return pred, true
}

func (s *Server) modelInfoHandler(c *gin.Context) {
	m := s.model.Load()
	if m == nil || !m.Fitted {
		s.abortWithError(c, errors.NewNotTrainedError("LogisticRiskModel", "ModelInfo"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variant":           m.Variant,
		"penalty":           m.Penalty,
		"C":                 m.C,
		"iterations":        m.Iterations,
		"feature_count":     len(m.FeatureNames),
		"features":          m.FeatureNames,
		"engineered":        m.Engineered,
		"trained_at":        m.TrainedAt,
		"model_age_seconds": time.Since(m.TrainedAt).Seconds(),
	})
}

func (s *Server) modelMetricsHandler(c *gin.Context) {
	m := s.model.Load()
	if m == nil || !m.Fitted {
		s.abortWithError(c, errors.NewNotTrainedError("LogisticRiskModel", "ModelMetrics"))
		return
	}
	c.JSON(http.StatusOK, m.Metrics)
}

func (s *Server) comparisonHandler(c *gin.Context) {
	report := s.lastReport.Load()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no comparison available; no training run has completed in this process"})
		return
	}
	c.JSON(http.StatusOK, report.VsHeuristic)
}

func (s *Server) recordHandler(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	pred, ok := s.scoreOne(c, req.Features)
	if !ok {
		return
	}
	id, err := s.store.RecordRequest(req.LoanID, req.Features, pred.DefaultProbability, pred.RiskCategory)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.metrics.RequestsRecorded.Inc()

	s.logger.Info("loan request recorded",
		log.LoanIDKey, id,
		log.ProbabilityKey, pred.DefaultProbability,
		log.RiskCategoryKey, pred.RiskCategory,
	)
	c.JSON(http.StatusOK, predictResponse{
		LoanID:       id,
		Prediction:   pred,
		ModelVariant: s.model.Load().Variant,
	})
}

func (s *Server) updateOutcomeHandler(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := s.store.UpdateOutcome(req.LoanID, *req.Defaulted); err != nil {
		var ve *errors.ValueError
		if errors.As(err, &ve) {
			c.JSON(http.StatusNotFound, gin.H{"error": ve.Error()})
			return
		}
		s.abortWithError(c, err)
		return
	}
	s.metrics.OutcomesRecorded.Inc()
	c.JSON(http.StatusOK, gin.H{"loan_id": req.LoanID, "defaulted": *req.Defaulted})
}

func (s *Server) statisticsHandler(c *gin.Context) {
	stats, err := s.store.Statistics()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) retrainHandler(c *gin.Context) {
	if !s.retraining.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "a retraining run is already in progress"})
		return
	}
	defer s.retraining.Store(false)

	collected, err := s.store.Completed()
	if err != nil {
		s.metrics.RetrainFailures.Inc()
		s.abortWithError(c, err)
		return
	}
	// Below the threshold the collected set is too thin to blend in.
	if collected.Len() < s.settings.RetrainMinOutcomes {
		s.logger.Info("too few outcomes to blend, retraining on synthetic data",
			log.OperationKey, "retrain",
			log.SamplesKey, collected.Len(),
			"retrain.min_outcomes", s.settings.RetrainMinOutcomes,
		)
		collected = nil
	}

	pcfg := pipeline.Config{
		Samples:      s.settings.TrainSamples,
		Seed:         s.settings.Seed,
		TestFraction: s.settings.TestFraction,
		CVFolds:      s.settings.CVFolds,
		Grid:         classifier.DefaultGridSearch(),
		Logger:       s.logger,
	}
	result, err := pipeline.Retrain(collected, pcfg)
	if err != nil {
		s.metrics.RetrainFailures.Inc()
		s.abortWithError(c, err)
		return
	}

	if err := result.Enhanced.Save(s.settings.ModelPath); err != nil {
		s.logger.Error("saving retrained model failed", "error", err, "model.path", s.settings.ModelPath)
	}

	s.SwapModel(result.Enhanced)
	s.lastReport.Store(&result.Report)
	s.metrics.RetrainsTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"variant":       result.Enhanced.Variant,
		"penalty":       result.Enhanced.Penalty,
		"C":             result.Enhanced.C,
		"train_samples": result.Report.TrainSamples,
		"test_samples":  result.Report.TestSamples,
		"metrics":       result.Enhanced.Metrics,
	})
}

// abortWithError maps engine errors to HTTP statuses: schema and value
// problems are the client's fault, an untrained model means the service
// is not ready, anything else is internal.
func (s *Server) abortWithError(c *gin.Context, err error) {
	var (
		notTrained   *errors.NotTrainedError
		invalidInput *errors.InvalidFeatureInputError
		mismatch     *errors.FeatureMismatchError
		valueErr     *errors.ValueError
	)
	switch {
	case errors.As(err, &notTrained):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &invalidInput), errors.As(err, &mismatch), errors.As(err, &valueErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err, "http.path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
