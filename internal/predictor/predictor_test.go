package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiorisk/internal/explain"
	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/risk"
)

const shippedModels = "../../models/v1"

func scenarioA() features.Profile {
	return features.Profile{
		Age:               features.Int(25),
		Sex:               "F",
		HeightCm:          features.Float(165),
		WeightKg:          features.Float(60),
		WaistCm:           features.Float(70),
		SleepHours:        features.Float(8),
		CigarettesPerDay:  features.Float(0),
		ActiveDaysPerWeek: features.Int(5),
	}
}

func scenarioB() features.Profile {
	return features.Profile{
		Age:               features.Int(68),
		Sex:               "M",
		HeightCm:          features.Float(172),
		WeightKg:          features.Float(102),
		WaistCm:           features.Float(115),
		GlucoseMgdl:       features.Float(145),
		HDLMgdl:           features.Float(35),
		LDLMgdl:           features.Float(180),
		TriglyceridesMgdl: features.Float(250),
	}
}

func newPredictor(t *testing.T, dir string) (*Predictor, *MockMetrics) {
	t.Helper()
	m := NewMockMetrics()
	return New(ml.NewRegistry(dir), WithMetrics(m)), m
}

func assertDrivers(t *testing.T, drivers []explain.Driver) {
	t.Helper()
	require.NotEmpty(t, drivers)
	assert.LessOrEqual(t, len(drivers), explain.DefaultTopN)
	for i, d := range drivers {
		assert.NotEmpty(t, d.Description, d.Feature)
		if i > 0 {
			assert.GreaterOrEqual(t, math.Abs(drivers[i-1].Contribution), math.Abs(d.Contribution))
		}
	}
}

func TestPredict_ScenarioA_YoungWomanIsLowRisk(t *testing.T) {
	p, m := newPredictor(t, shippedModels)

	res, err := p.Predict(scenarioA(), "diabetes")
	require.NoError(t, err)
	assert.Equal(t, ml.Diabetes, res.ModelUsed)
	assert.Equal(t, risk.Low, res.RiskLevel)
	assert.Less(t, res.Score, 0.30)
	assert.Equal(t, risk.RecommendMaintain, res.Recommendation)
	assertDrivers(t, res.Drivers)

	assert.Equal(t, 1, m.Count(m.Predictions, "diabetes"))
	assert.Equal(t, 1, m.Count(m.Levels, "low"))
	assert.Zero(t, m.Count(m.Fallbacks, "diabetes/importance"))
}

func TestPredict_ScenarioB_OlderManWithLabsIsHighRisk(t *testing.T) {
	p, _ := newPredictor(t, shippedModels)

	res, err := p.Predict(scenarioB(), "cardiovascular")
	require.NoError(t, err)
	assert.Equal(t, ml.Cardiovascular, res.ModelUsed)
	assert.Equal(t, risk.High, res.RiskLevel)
	assert.GreaterOrEqual(t, res.Score, 0.60)
	assertDrivers(t, res.Drivers)
	assert.Equal(t, explain.Increases, res.Drivers[0].Impact)
	assert.Equal(t, "age", res.Drivers[0].Feature)
	require.NotNil(t, res.Drivers[0].Value)
	assert.Equal(t, 68.0, *res.Drivers[0].Value)
	assert.Contains(t, res.Recommendation, risk.ReferralClause)
}

func TestPredict_ScenarioC_UnknownModelTouchesNoArtifacts(t *testing.T) {
	p, m := newPredictor(t, filepath.Join(t.TempDir(), "missing"))

	_, err := p.Predict(scenarioA(), "unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ml.ErrUnknownModelType))
	assert.True(t, ml.IsInputError(err))
	assert.False(t, ml.IsArtifactError(err))
	assert.Equal(t, 1, m.Count(m.Failures, "unknown/input"))
}

func TestPredict_DefaultsToDiabetes(t *testing.T) {
	p, _ := newPredictor(t, shippedModels)
	res, err := p.Predict(scenarioA(), "")
	require.NoError(t, err)
	assert.Equal(t, ml.Diabetes, res.ModelUsed)
}

func TestPredict_MissingAnthropometricsIsInputError(t *testing.T) {
	p, m := newPredictor(t, shippedModels)
	profile := features.Profile{Age: features.Int(50), Sex: "F", WaistCm: features.Float(90)}

	for _, model := range []string{"diabetes", "cardiovascular"} {
		_, err := p.Predict(profile, model)
		require.Error(t, err, model)
		assert.True(t, errors.Is(err, features.ErrInsufficientAnthropometrics), model)
		assert.True(t, ml.IsInputError(err), model)
		assert.Equal(t, KindInput, Kind(err))
		assert.Equal(t, 1, m.Count(m.Failures, model+"/input"))
	}
}

func TestPredict_MissingArtifactsAreFatal(t *testing.T) {
	p, m := newPredictor(t, t.TempDir())

	_, err := p.Predict(scenarioA(), "diabetes")
	require.Error(t, err)
	assert.True(t, ml.IsArtifactError(err))
	assert.False(t, ml.IsInputError(err))
	assert.Equal(t, KindArtifact, Kind(err))
	assert.Equal(t, 1, m.Count(m.Failures, "diabetes/artifact"))
}

func TestPredict_ScoresStayInRangeAndMatchTiers(t *testing.T) {
	p, _ := newPredictor(t, shippedModels)

	for _, age := range []int{20, 35, 50, 65, 80} {
		for _, weight := range []float64{50, 70, 90, 120} {
			for _, model := range []string{"diabetes", "cardiovascular"} {
				profile := scenarioB()
				profile.Age = features.Int(age)
				profile.WeightKg = features.Float(weight)
				profile.SleepHours = features.Float(6)

				res, err := p.Predict(profile, model)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.Score, 0.0)
				assert.LessOrEqual(t, res.Score, 1.0)

				want, _ := risk.Interpret(res.Score)
				assert.Equal(t, want, res.RiskLevel)
				assertDrivers(t, res.Drivers)
			}
		}
	}
}

func TestPredict_SparseProfileLeansOnImputer(t *testing.T) {
	p, _ := newPredictor(t, shippedModels)
	res, err := p.Predict(features.Profile{BMI: features.Float(24)}, "diabetes")
	require.NoError(t, err)
	assert.Contains(t, []risk.Level{risk.Low, risk.Moderate, risk.High}, res.RiskLevel)

	res, err = p.Predict(features.Profile{BMI: features.Float(24)}, "cardiovascular")
	require.NoError(t, err)
	assertDrivers(t, res.Drivers)
}

func TestPredict_ConcurrentCallsDoNotInterleave(t *testing.T) {
	p, m := newPredictor(t, shippedModels)

	wantA, err := p.Predict(scenarioA(), "diabetes")
	require.NoError(t, err)
	wantB, err := p.Predict(scenarioB(), "cardiovascular")
	require.NoError(t, err)

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				got, err := p.Predict(scenarioA(), "diabetes")
				if assert.NoError(t, err) {
					assert.Equal(t, wantA, got)
				}
				return
			}
			got, err := p.Predict(scenarioB(), "cardiovascular")
			if assert.NoError(t, err) {
				assert.Equal(t, wantB, got)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, workers/2+1, m.Count(m.Predictions, "diabetes"))
	assert.Equal(t, workers/2+1, m.Count(m.Predictions, "cardiovascular"))
}

// copyModels copies the shipped artifacts so a test can corrupt them.
func copyModels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(shippedModels)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(shippedModels, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o600))
	}
	return dir
}

func rewrite(t *testing.T, path string, v interface{}, mutate func()) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
	mutate()
	data, err = json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestPredict_AttributionFailureFallsBack(t *testing.T) {
	dir := copyModels(t)
	var ens ml.Ensemble
	rewrite(t, filepath.Join(dir, "diabetes_model.json"), &ens, func() {
		for ti := range ens.Trees {
			for ni := range ens.Trees[ti].Nodes {
				ens.Trees[ti].Nodes[ni].Cover = 0
			}
		}
	})

	p, m := newPredictor(t, dir)
	res, err := p.Predict(scenarioA(), "diabetes")
	require.NoError(t, err, "explanation failures never fail the prediction")
	assert.Equal(t, risk.Low, res.RiskLevel)
	assertDrivers(t, res.Drivers)
	for _, d := range res.Drivers {
		assert.Zero(t, d.Contribution)
	}
	assert.Equal(t, 1, m.Count(m.Fallbacks, "diabetes/importance"))
}

func TestPredict_UnintrospectablePipelineFallsBack(t *testing.T) {
	dir := copyModels(t)
	var model ml.CalibratedModel
	rewrite(t, filepath.Join(dir, "cardiovascular_model.json"), &model, func() {
		model.Estimator.Steps[0].Name = "preprocessor"
	})

	p, m := newPredictor(t, dir)
	res, err := p.Predict(scenarioB(), "cardiovascular")
	require.NoError(t, err)
	assert.Equal(t, risk.High, res.RiskLevel)
	require.Len(t, res.Drivers, explain.DefaultTopN)
	for i, d := range res.Drivers {
		assert.Equal(t, features.LipidPanelColumns[i], d.Feature)
		assert.Zero(t, d.Contribution)
	}
	assert.Equal(t, 1, m.Count(m.Fallbacks, "cardiovascular/unintrospectable"))
}

func TestPredict_TopDriversOption(t *testing.T) {
	p := New(ml.NewRegistry(shippedModels), WithTopDrivers(2))
	res, err := p.Predict(scenarioB(), "cardiovascular")
	require.NoError(t, err)
	assert.Len(t, res.Drivers, 2)
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindInput, Kind(fmt.Errorf("wrapped: %w", features.ErrInvalidProfile)))
	assert.Equal(t, KindArtifact, Kind(&ml.ArtifactError{ModelType: "diabetes", Path: "x", Err: os.ErrNotExist}))
	assert.Equal(t, KindInternal, Kind(errors.New("boom")))
}
