package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// twoStumps splits on bmi (feature 0) and age (feature 1).
func twoStumps() *Ensemble {
	return &Ensemble{
		BaseScore: -1,
		Trees: []Tree{
			{Nodes: []Node{
				{Feature: 0, Threshold: 30, Left: 1, Right: 2, DefaultLeft: true, Cover: 10},
				{Left: -1, Right: -1, Value: -0.5, Cover: 6},
				{Left: -1, Right: -1, Value: 0.8, Cover: 4},
			}},
			{Nodes: []Node{
				{Feature: 1, Threshold: 45, Left: 1, Right: 2, Cover: 10},
				{Left: -1, Right: -1, Value: -0.2, Cover: 7},
				{Left: -1, Right: -1, Value: 0.4, Cover: 3},
			}},
		},
		FeatureImportances: []float64{0.7, 0.3},
	}
}

func smallPipeline() *CalibratedModel {
	return &CalibratedModel{
		Estimator: Pipeline{Steps: []Step{
			{Name: "pre", ColumnTransformer: &ColumnTransformer{Groups: []ColumnGroup{
				{
					Name:    "num",
					Columns: []string{"age", "bmi"},
					Imputer: &Imputer{Strategy: "median", Statistics: []float64{50, 27}},
					Scaler:  &Scaler{Mean: []float64{50, 27}, Scale: []float64{10, 5}},
				},
			}}},
			{Name: "clf", LogisticRegression: &LogisticRegression{Coef: []float64{0.8, 0.5}, Intercept: -0.2}},
		}},
		Calibration: Calibration{A: -1, B: 0},
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// writeArtifacts lays out a split diabetes bundle and a cardiovascular pipeline in dir.
func writeArtifacts(t *testing.T, dir string) {
	t.Helper()
	writeJSON(t, filepath.Join(dir, "diabetes_model.json"), twoStumps())
	writeJSON(t, filepath.Join(dir, "diabetes_imputer.json"), Imputer{Strategy: "median", Statistics: []float64{26, 40}})
	writeJSON(t, filepath.Join(dir, "diabetes_feature_names.json"), []string{"bmi", "age"})
	writeJSON(t, filepath.Join(dir, "cardiovascular_model.json"), smallPipeline())
}
