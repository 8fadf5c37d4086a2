package ml

import (
	"fmt"
	"math"

	"cardiorisk/internal/features"
)

// Bundle is an immutable set of fitted artifacts for one model type.
// Exactly one of Ensemble and Calibrated is set, matching Family.
type Bundle struct {
	Type         ModelType
	Family       Family
	Ensemble     *Ensemble
	Imputer      *Imputer
	Calibrated   *CalibratedModel
	FeatureNames []string
	Version      string
}

// Prepare returns the vector the model scores. The tree family applies the
// companion imputer; the pipeline family imputes internally and gets v as-is.
func (b *Bundle) Prepare(v features.Vector) (features.Vector, error) {
	if b.Family != TreeEnsemble || b.Imputer == nil {
		return v, nil
	}
	values, err := b.Imputer.Transform(v.Values())
	if err != nil {
		return features.Vector{}, fmt.Errorf("%s imputer: %w", b.Type, err)
	}
	return v.WithValues(values)
}

// Score returns the positive-class probability for a prepared vector.
func (b *Bundle) Score(v features.Vector) (float64, error) {
	var (
		p   float64
		err error
	)
	switch b.Family {
	case TreeEnsemble:
		if len(b.FeatureNames) > 0 && v.Len() != len(b.FeatureNames) {
			return 0, fmt.Errorf("%s: got %d features, want %d", b.Type, v.Len(), len(b.FeatureNames))
		}
		p = b.Ensemble.Probability(v.Values())
	case CalibratedPipeline:
		p, err = b.Calibrated.Probability(v)
	default:
		return 0, fmt.Errorf("%s: unsupported model family %s", b.Type, b.Family)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", b.Type, err)
	}
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%s: model produced NaN", b.Type)
	}
	return p, nil
}
