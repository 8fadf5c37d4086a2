// Package metrics provides Prometheus metrics collection for the risk engine.
// It defines prediction, explainability, artifact and HTTP metrics that are
// exposed via the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the risk service.
type Metrics struct {
	// Prediction metrics
	Predictions       *prometheus.CounterVec   // Predictions served, by model
	Failures          *prometheus.CounterVec   // Failed predictions, by model and error kind
	Latency           prometheus.Histogram     // End-to-end prediction latency in seconds
	PredictionScores  *prometheus.HistogramVec // Distribution of risk scores, by model
	RiskLevels        *prometheus.CounterVec   // Predictions per risk tier
	ExplainFallbacks  *prometheus.CounterVec   // Degraded explanations, by model and fallback level
	BundleLoads       *prometheus.CounterVec   // Model bundles read from disk
	PredictionsStored prometheus.Counter       // Predictions persisted

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests by method, route and status
	HTTPDuration *prometheus.HistogramVec // Request duration by route
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Total number of risk predictions served",
		}, []string{"model"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_prediction_failures_total",
			Help: "Total number of failed risk predictions",
		}, []string{"model", "kind"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_prediction_latency_seconds",
			Help:    "Risk prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "risk_prediction_scores",
			Help:    "Distribution of predicted risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"model"}),
		RiskLevels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_levels_total",
			Help: "Total number of predictions per risk level",
		}, []string{"level"}),
		ExplainFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_explain_fallbacks_total",
			Help: "Total number of explanations served from a fallback",
		}, []string{"model", "level"}),
		BundleLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_bundle_loads_total",
			Help: "Total number of model bundles loaded from disk",
		}, []string{"model"}),
		PredictionsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_predictions_stored_total",
			Help: "Total number of predictions persisted",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
