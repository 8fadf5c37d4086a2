package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the optional index of an artifact version directory.
const ManifestFile = "manifest.json"

// ModelMetrics contains offline evaluation metrics recorded at training time
type ModelMetrics struct {
	AUCScore        float64 `json:"auc_score,omitempty"`
	BrierScore      float64 `json:"brier_score,omitempty"`
	Recall          float64 `json:"recall,omitempty"`
	Precision       float64 `json:"precision,omitempty"`
	TrainingSamples int     `json:"training_samples,omitempty"`
}

// ModelEntry names the artifact files of one model type
type ModelEntry struct {
	Model        string       `json:"model"`
	Imputer      string       `json:"imputer,omitempty"`
	FeatureNames string       `json:"feature_names,omitempty"`
	Metrics      ModelMetrics `json:"metrics"`
}

// Manifest describes one versioned artifact set
type Manifest struct {
	Version   string                   `json:"version"`
	TrainedAt time.Time                `json:"trained_at"`
	Models    map[ModelType]ModelEntry `json:"models"`
}

// defaultEntry returns the conventional file names for a model type.
func defaultEntry(t ModelType) ModelEntry {
	e := ModelEntry{Model: string(t) + "_model.json"}
	if t == Diabetes {
		e.Imputer = string(t) + "_imputer.json"
		e.FeatureNames = string(t) + "_feature_names.json"
	}
	return e
}

// Entry returns the files for t, falling back to the conventional names
// for any field the manifest leaves empty.
func (m *Manifest) Entry(t ModelType) ModelEntry {
	def := defaultEntry(t)
	if m == nil {
		return def
	}
	e, ok := m.Models[t]
	if !ok {
		return def
	}
	if e.Model == "" {
		e.Model = def.Model
	}
	if e.Imputer == "" {
		e.Imputer = def.Imputer
	}
	if e.FeatureNames == "" {
		e.FeatureNames = def.FeatureNames
	}
	return e
}

// LoadManifest reads dir/manifest.json. A missing manifest is not an error
// and yields nil.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}
