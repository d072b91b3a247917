// Package metrics defines the Prometheus instrumentation of the risk
// service: prediction throughput and latency, risk category distribution,
// data collection counters, and retraining activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the service exposes.
type Metrics struct {
	PredictionsTotal  prometheus.Counter
	PredictionErrors  prometheus.Counter
	PredictionLatency prometheus.Histogram
	RiskCategories    *prometheus.CounterVec
	RiskProbability   prometheus.Histogram

	RequestsRecorded prometheus.Counter
	OutcomesRecorded prometheus.Counter

	RetrainsTotal   prometheus.Counter
	RetrainFailures prometheus.Counter
	ModelAgeSeconds prometheus.Gauge
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on a custom registry, which keeps tests
// isolated from the global state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Total number of loan risk predictions served",
		}),
		PredictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_prediction_errors_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_prediction_latency_seconds",
			Help:    "Prediction request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RiskCategories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_category_total",
			Help: "Predictions per risk category",
		}, []string{"category"}),
		RiskProbability: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_default_probability",
			Help:    "Distribution of predicted default probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		RequestsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_requests_recorded_total",
			Help: "Loan requests persisted for outcome tracking",
		}),
		OutcomesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_outcomes_recorded_total",
			Help: "Loan outcomes recorded against stored requests",
		}),
		RetrainsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_retrains_total",
			Help: "Completed retraining runs",
		}),
		RetrainFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_retrain_failures_total",
			Help: "Failed retraining runs",
		}),
		ModelAgeSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_age_seconds",
			Help: "Seconds since the serving model was trained",
		}),
	}
}
