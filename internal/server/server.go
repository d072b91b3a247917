// Package server exposes the risk engine over HTTP: scoring endpoints,
// model introspection, loan outcome collection, and the retraining
// trigger. The serving model is held behind an atomic pointer so a
// retrain swaps it without pausing in-flight predictions.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p2plend/riskengine/classifier"
	"github.com/p2plend/riskengine/internal/cfg"
	"github.com/p2plend/riskengine/internal/metrics"
	"github.com/p2plend/riskengine/internal/storage"
	"github.com/p2plend/riskengine/pipeline"
	"github.com/p2plend/riskengine/pkg/log"
)

// Server wires the HTTP layer to the model, the loan store, and the
// instrumentation.
type Server struct {
	settings cfg.Settings
	store    *storage.Store
	metrics  *metrics.Metrics
	logger   log.Logger

	model      atomic.Pointer[classifier.TrainedModel]
	lastReport atomic.Pointer[pipeline.TrainingReport]
	retraining atomic.Bool

	router  *gin.Engine
	httpSrv *http.Server
}

// New builds the server around an already trained model. report may be
// nil when the model was loaded from disk without a fresh training run.
func New(settings cfg.Settings, store *storage.Store, m *metrics.Metrics, logger log.Logger,
	model *classifier.TrainedModel, report *pipeline.TrainingReport) *Server {

	s := &Server{
		settings: settings,
		store:    store,
		metrics:  m,
		logger:   logger,
	}
	s.model.Store(model)
	if report != nil {
		s.lastReport.Store(report)
	}

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	api.POST("/predict", s.predictHandler)
	api.POST("/predict/batch", s.predictBatchHandler)
	api.GET("/model/info", s.modelInfoHandler)
	api.GET("/model/metrics", s.modelMetricsHandler)
	api.GET("/comparison", s.comparisonHandler)
	api.POST("/data/record", s.recordHandler)
	api.POST("/data/update", s.updateOutcomeHandler)
	api.GET("/data/statistics", s.statisticsHandler)
	api.POST("/retrain", s.retrainHandler)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled",
			"http.method", c.Request.Method,
			"http.path", c.FullPath(),
			"http.status", c.Writer.Status(),
			log.DurationMSKey, time.Since(start).Milliseconds(),
		)
	}
}

// Model returns the current serving model.
func (s *Server) Model() *classifier.TrainedModel {
	return s.model.Load()
}

// SwapModel atomically replaces the serving model.
func (s *Server) SwapModel(m *classifier.TrainedModel) {
	s.model.Store(m)
	s.metrics.ModelAgeSeconds.Set(time.Since(m.TrainedAt).Seconds())
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then drains connections
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logger.Info("risk service listening", "http.addr", s.settings.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.ShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}
