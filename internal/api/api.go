// Package api holds the JSON bodies exchanged by the HTTP server and client.
package api

import (
	"time"

	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
	"cardiorisk/internal/storage"
)

// Route paths.
const (
	PathHealth      = "/health"
	PathMetrics     = "/metrics"
	PathPredict     = "/api/v1/predict"
	PathPredictions = "/api/v1/predictions"
	PathModels      = "/api/v1/models"
)

// PredictRequest is a profile plus the model to score it with. The profile
// fields sit at the top level of the JSON object.
type PredictRequest struct {
	features.Profile
	ModelType string `json:"model_type,omitempty"`
}

// PredictResponse carries the result and, when persistence is enabled, the
// ID it was stored under.
type PredictResponse struct {
	ID     string            `json:"id,omitempty"`
	Result *predictor.Result `json:"result"`
}

type PredictionList struct {
	Predictions []storage.Record `json:"predictions"`
	Count       int              `json:"count"`
}

// ModelInfo describes a loaded bundle.
type ModelInfo struct {
	ModelType    ml.ModelType     `json:"model_type"`
	Family       string           `json:"family"`
	FeatureNames []string         `json:"feature_names"`
	Version      string           `json:"version,omitempty"`
	TrainedAt    *time.Time       `json:"trained_at,omitempty"`
	Metrics      *ml.ModelMetrics `json:"metrics,omitempty"`
}

type Health struct {
	Status      string    `json:"status"`
	Persistence bool      `json:"persistence"`
	Time        time.Time `json:"time"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// NewModelInfo describes b, adding version, training time and offline
// metrics from m when a manifest is present.
func NewModelInfo(b *ml.Bundle, m *ml.Manifest) ModelInfo {
	info := ModelInfo{
		ModelType:    b.Type,
		Family:       b.Family.String(),
		FeatureNames: append([]string{}, b.FeatureNames...),
		Version:      b.Version,
	}
	if m == nil {
		return info
	}
	info.Version = m.Version
	if !m.TrainedAt.IsZero() {
		trained := m.TrainedAt
		info.TrainedAt = &trained
	}
	if entry, ok := m.Models[b.Type]; ok {
		metrics := entry.Metrics
		info.Metrics = &metrics
	}
	return info
}
