// Package predictor composes feature construction, model scoring, risk
// interpretation and explanation into a single prediction call.
package predictor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cardiorisk/internal/explain"
	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/risk"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionInc(model string)
	FailureInc(model, kind string)
	LatencyObserve(seconds float64)
	ScoreObserve(model string, score float64)
	RiskLevelInc(level string)
	ExplainFallbackInc(model, level string)
}

// Failure kinds reported to metrics.
const (
	KindInput    = "input"
	KindArtifact = "artifact"
	KindInternal = "internal"
)

// Result is the outcome of one prediction. It is never modified after Predict returns.
type Result struct {
	Score          float64          `json:"score"`
	RiskLevel      risk.Level       `json:"risk_level"`
	Drivers        []explain.Driver `json:"drivers"`
	Recommendation string           `json:"recommendation"`
	ModelUsed      ml.ModelType     `json:"model_used"`
}

// Predictor is safe for concurrent use; the only shared state is the registry cache.
type Predictor struct {
	registry *ml.Registry
	metrics  MetricsInterface
	topN     int
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithMetrics reports prediction metrics to m.
func WithMetrics(m MetricsInterface) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithTopDrivers sets how many drivers a result carries.
func WithTopDrivers(n int) Option {
	return func(p *Predictor) { p.topN = n }
}

func New(registry *ml.Registry, opts ...Option) *Predictor {
	p := &Predictor{registry: registry, topN: explain.DefaultTopN}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuilderFor returns the feature builder matching a model family.
func BuilderFor(f ml.Family) features.Builder {
	if f == ml.CalibratedPipeline {
		return features.LipidPanelBuilder{}
	}
	return features.LifestyleBuilder{}
}

// Predict scores profile with the named model. Input and artifact errors are
// returned; explanation problems only degrade the driver list.
func (p *Predictor) Predict(profile features.Profile, modelType string) (*Result, error) {
	start := time.Now()

	mt, err := ml.NormalizeModelType(modelType)
	if err != nil {
		p.fail("unknown", err)
		return nil, err
	}
	model := string(mt)

	res, err := p.predict(profile, mt)
	if err != nil {
		p.fail(model, err)
		log.Error().Err(err).Str("model", model).Msg("Prediction failed")
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.PredictionInc(model)
		p.metrics.LatencyObserve(time.Since(start).Seconds())
		p.metrics.ScoreObserve(model, res.Score)
		p.metrics.RiskLevelInc(string(res.RiskLevel))
	}
	log.Info().
		Str("model", model).
		Float64("score", res.Score).
		Str("level", string(res.RiskLevel)).
		Int("drivers", len(res.Drivers)).
		Dur("took", time.Since(start)).
		Msg("Prediction complete")
	return res, nil
}

func (p *Predictor) predict(profile features.Profile, mt ml.ModelType) (*Result, error) {
	bundle, err := p.registry.Load(string(mt))
	if err != nil {
		return nil, err
	}

	builder := BuilderFor(bundle.Family)
	built, err := builder.Build(profile)
	if err != nil {
		return nil, err
	}

	names := bundle.FeatureNames
	if len(names) == 0 {
		names = builder.Columns()
	}
	aligned := built.Reindex(names, builder.Fill())

	prepared, err := bundle.Prepare(aligned)
	if err != nil {
		return nil, err
	}
	score, err := bundle.Score(prepared)
	if err != nil {
		return nil, err
	}
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("%s: score %v outside [0,1]", mt, score)
	}

	level, recommendation := risk.Interpret(score)

	ex := explain.ForFamily(bundle.Family, p.topN).Explain(bundle, prepared)
	if ex.Fallback != explain.Exact && p.metrics != nil {
		p.metrics.ExplainFallbackInc(string(mt), string(ex.Fallback))
	}
	drivers := ex.Drivers
	if drivers == nil {
		drivers = []explain.Driver{}
	}

	return &Result{
		Score:          score,
		RiskLevel:      level,
		Drivers:        drivers,
		Recommendation: recommendation,
		ModelUsed:      mt,
	}, nil
}

func (p *Predictor) fail(model string, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.FailureInc(model, Kind(err))
}

// Kind classifies a prediction error for metrics and transports.
func Kind(err error) string {
	switch {
	case ml.IsInputError(err):
		return KindInput
	case ml.IsArtifactError(err):
		return KindArtifact
	default:
		return KindInternal
	}
}
