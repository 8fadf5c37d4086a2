package main

import (
	"context"
	"path/filepath"
	"time"

	"cardiorisk/internal/api"
	"cardiorisk/internal/client"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
)

// engine is either the in-process predictor or a remote API.
type engine interface {
	Predict(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error)
	Model(ctx context.Context, modelType string) (*api.ModelInfo, error)
}

type localEngine struct {
	registry  *ml.Registry
	predictor *predictor.Predictor
}

func newLocalEngine(dir string) *localEngine {
	registry := ml.NewRegistry(dir)
	return &localEngine{registry: registry, predictor: predictor.New(registry)}
}

func (e *localEngine) Predict(_ context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	res, err := e.predictor.Predict(req.Profile, req.ModelType)
	if err != nil {
		return nil, err
	}
	return &api.PredictResponse{Result: res}, nil
}

func (e *localEngine) Model(_ context.Context, modelType string) (*api.ModelInfo, error) {
	b, err := e.registry.Load(modelType)
	if err != nil {
		return nil, err
	}
	m, err := e.registry.Manifest()
	if err != nil {
		return nil, err
	}
	info := api.NewModelInfo(b, m)
	return &info, nil
}

func (o *options) engine() engine {
	if o.server != "" {
		return client.New(o.server, 30*time.Second)
	}
	return newLocalEngine(filepath.Join(o.modelsDir, o.modelVersion))
}
