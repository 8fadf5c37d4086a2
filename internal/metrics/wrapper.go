package metrics

// PredictorWrapper adapts Metrics to the narrow interface the predictor
// depends on, keeping Prometheus types out of the engine packages.
type PredictorWrapper struct {
	m *Metrics
}

func NewPredictorWrapper(m *Metrics) *PredictorWrapper {
	return &PredictorWrapper{m: m}
}

func (w *PredictorWrapper) PredictionInc(model string) {
	w.m.Predictions.WithLabelValues(model).Inc()
}

func (w *PredictorWrapper) FailureInc(model, kind string) {
	w.m.Failures.WithLabelValues(model, kind).Inc()
}

func (w *PredictorWrapper) LatencyObserve(seconds float64) {
	w.m.Latency.Observe(seconds)
}

func (w *PredictorWrapper) ScoreObserve(model string, score float64) {
	w.m.PredictionScores.WithLabelValues(model).Observe(score)
}

func (w *PredictorWrapper) RiskLevelInc(level string) {
	w.m.RiskLevels.WithLabelValues(level).Inc()
}

func (w *PredictorWrapper) ExplainFallbackInc(model, level string) {
	w.m.ExplainFallbacks.WithLabelValues(model, level).Inc()
}

// BundleLoaded matches the registry load observer signature.
func (w *PredictorWrapper) BundleLoaded(model string) {
	w.m.BundleLoads.WithLabelValues(model).Inc()
}
