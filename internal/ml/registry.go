package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// LoadObserver is notified after a bundle is deserialized from disk.
type LoadObserver func(t ModelType)

// Registry loads model bundles from a versioned artifact directory and
// caches them for the life of the process. Concurrent first calls for the
// same model type share a single disk read.
type Registry struct {
	dir      string
	onLoad   LoadObserver
	group    singleflight.Group
	mu       sync.RWMutex
	bundles  map[ModelType]*Bundle
	manifest *Manifest
	mfLoaded bool
}

// NewRegistry creates a registry reading artifacts from dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		bundles: make(map[ModelType]*Bundle),
	}
}

// OnLoad registers a callback invoked once per bundle deserialization.
func (r *Registry) OnLoad(fn LoadObserver) { r.onLoad = fn }

// Dir returns the artifact directory.
func (r *Registry) Dir() string { return r.dir }

// Load returns the bundle for modelType, reading it from disk on first use.
func (r *Registry) Load(modelType string) (*Bundle, error) {
	t, err := NormalizeModelType(modelType)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	b, ok := r.bundles[t]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	v, err, _ := r.group.Do(string(t), func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.bundles[t]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		b, err := r.read(t)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.bundles[t] = b
		r.mu.Unlock()

		log.Info().
			Str("model", string(t)).
			Str("family", b.Family.String()).
			Int("features", len(b.FeatureNames)).
			Str("dir", r.dir).
			Msg("Model bundle loaded")
		if r.onLoad != nil {
			r.onLoad(t)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// Warm loads every known model type concurrently.
func (r *Registry) Warm(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, t := range ModelTypes {
		t := t
		g.Go(func() error {
			_, err := r.Load(string(t))
			return err
		})
	}
	return g.Wait()
}

// Reset drops every cached bundle and the cached manifest. Loads already in
// flight are forgotten, so the next Load reads from disk again; such a load
// can still finish into the fresh cache.
func (r *Registry) Reset() {
	for _, t := range ModelTypes {
		r.group.Forget(string(t))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles = make(map[ModelType]*Bundle)
	r.manifest = nil
	r.mfLoaded = false
}

// Manifest returns the version manifest, or nil when the directory has none.
func (r *Registry) Manifest() (*Manifest, error) {
	r.mu.RLock()
	if r.mfLoaded {
		m := r.manifest
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	m, err := LoadManifest(r.dir)
	if err != nil {
		return nil, &ArtifactError{ModelType: "manifest", Path: filepath.Join(r.dir, ManifestFile), Err: err}
	}
	r.mu.Lock()
	r.manifest, r.mfLoaded = m, true
	r.mu.Unlock()
	return m, nil
}

func (r *Registry) read(t ModelType) (*Bundle, error) {
	m, err := r.Manifest()
	if err != nil {
		return nil, err
	}
	entry := m.Entry(t)

	var b *Bundle
	switch FamilyOf(t) {
	case TreeEnsemble:
		b, err = r.readEnsemble(t, entry)
	case CalibratedPipeline:
		b, err = r.readPipeline(t, entry)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownModelType, t)
	}
	if err != nil {
		return nil, err
	}
	if m != nil {
		b.Version = m.Version
	}
	return b, nil
}

// combinedArchive is the single-file layout holding all three diabetes artifacts.
type combinedArchive struct {
	Model        *Ensemble `json:"model"`
	Imputer      *Imputer  `json:"imputer"`
	FeatureNames []string  `json:"feature_names"`
}

func (r *Registry) readEnsemble(t ModelType, entry ModelEntry) (*Bundle, error) {
	modelPath := filepath.Join(r.dir, entry.Model)
	raw, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: err}
	}

	b := &Bundle{Type: t, Family: TreeEnsemble}

	var archive combinedArchive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: err}
	}
	if archive.Model != nil {
		if archive.Imputer == nil {
			return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: errors.New("combined archive has no imputer")}
		}
		b.Ensemble, b.Imputer, b.FeatureNames = archive.Model, archive.Imputer, archive.FeatureNames
	} else {
		var ens Ensemble
		if err := json.Unmarshal(raw, &ens); err != nil {
			return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: err}
		}
		b.Ensemble = &ens

		var imp Imputer
		if err := readJSON(t, filepath.Join(r.dir, entry.Imputer), &imp); err != nil {
			return nil, err
		}
		b.Imputer = &imp
		if err := readJSON(t, filepath.Join(r.dir, entry.FeatureNames), &b.FeatureNames); err != nil {
			return nil, err
		}
	}

	if len(b.FeatureNames) == 0 {
		return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: errors.New("no feature names")}
	}
	if len(b.Imputer.Statistics) != len(b.FeatureNames) {
		return nil, &ArtifactError{ModelType: string(t), Path: modelPath,
			Err: fmt.Errorf("imputer has %d statistics for %d features", len(b.Imputer.Statistics), len(b.FeatureNames))}
	}
	if err := b.Ensemble.Validate(len(b.FeatureNames)); err != nil {
		return nil, &ArtifactError{ModelType: string(t), Path: modelPath, Err: err}
	}
	return b, nil
}

func (r *Registry) readPipeline(t ModelType, entry ModelEntry) (*Bundle, error) {
	path := filepath.Join(r.dir, entry.Model)
	var model CalibratedModel
	if err := readJSON(t, path, &model); err != nil {
		return nil, err
	}
	if len(model.Estimator.Steps) == 0 {
		return nil, &ArtifactError{ModelType: string(t), Path: path, Err: errors.New("pipeline has no steps")}
	}
	if err := model.Calibration.Validate(); err != nil {
		return nil, &ArtifactError{ModelType: string(t), Path: path, Err: err}
	}

	b := &Bundle{Type: t, Family: CalibratedPipeline, Calibrated: &model}
	if pre, _, err := model.Preprocessor(); err == nil {
		b.FeatureNames = pre.InputNames()
	} else {
		log.Warn().Err(err).Str("model", string(t)).Msg("Cannot introspect pipeline feature names")
	}
	return b, nil
}

func readJSON(t ModelType, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ArtifactError{ModelType: string(t), Path: path, Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ArtifactError{ModelType: string(t), Path: path, Err: err}
	}
	return nil
}
