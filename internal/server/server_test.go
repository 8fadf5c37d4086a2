package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiorisk/internal/api"
	"cardiorisk/internal/features"
	"cardiorisk/internal/metrics"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
	"cardiorisk/internal/risk"
	"cardiorisk/internal/storage"
)

const shippedModels = "../../models/v1"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv     *Server
	store   *storage.Store
	metrics *metrics.Metrics
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	registry := ml.NewRegistry(shippedModels)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	p := predictor.New(registry, predictor.WithMetrics(metrics.NewPredictorWrapper(m)))

	opts := []Option{WithMetrics(m, reg)}
	f := &fixture{metrics: m, reg: reg}
	if withStore {
		store, err := storage.New(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		f.store = store
		opts = append(opts, WithStore(store))
	}
	f.srv = New(Config{Port: 8080, RequestTimeout: 5 * time.Second, HistoryLimit: 3}, p, registry, opts...)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func highRiskRequest() api.PredictRequest {
	return api.PredictRequest{
		Profile: features.Profile{
			Age:               features.Int(68),
			Sex:               "M",
			HeightCm:          features.Float(172),
			WeightKg:          features.Float(102),
			WaistCm:           features.Float(115),
			GlucoseMgdl:       features.Float(145),
			HDLMgdl:           features.Float(35),
			LDLMgdl:           features.Float(180),
			TriglyceridesMgdl: features.Float(250),
		},
		ModelType: "cardiovascular",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, api.PathHealth, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var h api.Health
	decode(t, w, &h)
	assert.Equal(t, "ok", h.Status)
	assert.False(t, h.Persistence)
}

func TestPredict(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(t, http.MethodPost, api.PathPredict, highRiskRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.PredictResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, risk.High, resp.Result.RiskLevel)
	assert.Equal(t, ml.Cardiovascular, resp.Result.ModelUsed)
	assert.NotEmpty(t, resp.Result.Drivers)

	stored, err := f.store.GetPrediction(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Result.Score, stored.Result.Score)
	assert.Equal(t, 68, *stored.Profile.Age)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PredictionsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("POST", api.PathPredict, "200")))
}

func TestPredict_LifestyleAnswersAreTranslated(t *testing.T) {
	f := newFixture(t, false)
	body := `{"age": 45, "sex": "F", "bmi": 27.5, "smoker": true, "activity_level": "light"}`

	w := f.do(t, http.MethodPost, api.PathPredict, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.PredictResponse
	decode(t, w, &resp)
	assert.Empty(t, resp.ID, "no store configured")
	assert.Equal(t, ml.Diabetes, resp.Result.ModelUsed)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{"malformed JSON", `{"age": `, http.StatusBadRequest, predictor.KindInput},
		{"invalid sex", `{"sex": "X", "bmi": 22}`, http.StatusBadRequest, predictor.KindInput},
		{"negative weight", `{"height_cm": 170, "weight_kg": -3}`, http.StatusBadRequest, predictor.KindInput},
		{"missing anthropometrics", `{"age": 50}`, http.StatusBadRequest, predictor.KindInput},
		{"unknown model", `{"bmi": 22, "model_type": "renal"}`, http.StatusBadRequest, predictor.KindInput},
	}

	f := newFixture(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, api.PathPredict, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var e api.ErrorResponse
			decode(t, w, &e)
			assert.Equal(t, "error", e.Status)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestPredict_MissingArtifactsIs500(t *testing.T) {
	registry := ml.NewRegistry(t.TempDir())
	srv := New(Config{RequestTimeout: time.Second}, predictor.New(registry), registry)

	req := httptest.NewRequest(http.MethodPost, api.PathPredict, strings.NewReader(`{"bmi": 22}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var e api.ErrorResponse
	decode(t, w, &e)
	assert.Equal(t, predictor.KindArtifact, e.Kind)
}

type slowPredictor struct{ delay time.Duration }

func (s slowPredictor) Predict(features.Profile, string) (*predictor.Result, error) {
	time.Sleep(s.delay)
	return nil, errors.New("too late")
}

func TestPredict_Timeout(t *testing.T) {
	registry := ml.NewRegistry(shippedModels)
	srv := New(Config{RequestTimeout: 20 * time.Millisecond}, slowPredictor{delay: 200 * time.Millisecond}, registry)

	req := httptest.NewRequest(http.MethodPost, api.PathPredict, strings.NewReader(`{"bmi": 22}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestModelInfo(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, api.PathModels+"/diabetes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info api.ModelInfo
	decode(t, w, &info)
	assert.Equal(t, ml.Diabetes, info.ModelType)
	assert.Equal(t, "tree_ensemble", info.Family)
	assert.Equal(t, features.LifestyleColumns, info.FeatureNames)
	assert.Equal(t, "v1", info.Version)
	require.NotNil(t, info.TrainedAt)
	require.NotNil(t, info.Metrics)
	assert.Greater(t, info.Metrics.AUCScore, 0.5)

	w = f.do(t, http.MethodGet, api.PathModels+"/CARDIOVASCULAR", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &info)
	assert.Equal(t, "calibrated_pipeline", info.Family)
	assert.ElementsMatch(t, features.LipidPanelColumns, info.FeatureNames)
	assert.Equal(t, shippedPipelineInputs(t), info.FeatureNames)

	w = f.do(t, http.MethodGet, api.PathModels+"/renal", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// shippedPipelineInputs reads the preprocessor column order straight from the
// shipped cardiovascular artifact.
func shippedPipelineInputs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(shippedModels, "cardiovascular_model.json"))
	require.NoError(t, err)
	var model ml.CalibratedModel
	require.NoError(t, json.Unmarshal(data, &model))
	pre, _, err := model.Preprocessor()
	require.NoError(t, err)
	return pre.InputNames()
}

func TestPredictionHistory(t *testing.T) {
	f := newFixture(t, true)

	var ids []string
	for i := 0; i < 4; i++ {
		w := f.do(t, http.MethodPost, api.PathPredict, highRiskRequest())
		require.Equal(t, http.StatusOK, w.Code)
		var resp api.PredictResponse
		decode(t, w, &resp)
		ids = append(ids, resp.ID)
	}

	t.Run("list is capped at the history limit", func(t *testing.T) {
		w := f.do(t, http.MethodGet, api.PathPredictions+"?limit=100", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list api.PredictionList
		decode(t, w, &list)
		assert.Equal(t, 3, list.Count)
		assert.Equal(t, ids[3], list.Predictions[0].ID)
	})

	t.Run("explicit limit", func(t *testing.T) {
		w := f.do(t, http.MethodGet, api.PathPredictions+"?limit=1", nil)
		var list api.PredictionList
		decode(t, w, &list)
		assert.Equal(t, 1, list.Count)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := f.do(t, http.MethodGet, api.PathPredictions+"?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := f.do(t, http.MethodGet, api.PathPredictions+"/"+ids[0], nil)
		require.Equal(t, http.StatusOK, w.Code)
		var rec storage.Record
		decode(t, w, &rec)
		assert.Equal(t, ids[0], rec.ID)
		assert.Equal(t, "cardiovascular", rec.ModelType)
	})

	t.Run("delete", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, api.PathPredictions+"/"+ids[0], nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, api.PathPredictions+"/"+ids[0], nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = f.do(t, http.MethodDelete, api.PathPredictions+"/"+ids[0], nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPredictionHistory_DisabledWithoutStore(t *testing.T) {
	f := newFixture(t, false)
	for _, path := range []string{api.PathPredictions, api.PathPredictions + "/abc"} {
		w := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, api.PathPredict, highRiskRequest())

	w := f.do(t, http.MethodGet, api.PathMetrics, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "risk_predictions_total")
	assert.Contains(t, w.Body.String(), `model="cardiovascular"`)
}

func TestUnmatchedRoute(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
