package explain

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
)

// LinearStrategy decomposes a calibrated linear pipeline into per-feature
// terms: the preprocessed value times its coefficient.
type LinearStrategy struct {
	TopN int
}

func (s LinearStrategy) Explain(b *ml.Bundle, v features.Vector) Explanation {
	n := topN(s.TopN)
	drivers, err := s.exact(b, v, n)
	if err == nil {
		return Explanation{Drivers: drivers}
	}
	log.Warn().Err(err).Str("model", string(b.Type)).Msg("Unable to compute linear contributions precisely")

	names := b.FeatureNames
	if len(names) == 0 {
		names = v.Names()
	}
	return Explanation{Drivers: zeroDrivers(names, v, n), Fallback: Unintrospectable, Err: err}
}

func (s LinearStrategy) exact(b *ml.Bundle, v features.Vector, n int) ([]Driver, error) {
	if b.Calibrated == nil {
		return nil, errors.New("bundle has no pipeline")
	}
	pre, clf, err := b.Calibrated.Preprocessor()
	if err != nil {
		return nil, err
	}
	scaled, err := pre.Transform(v)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	if scaled.Len() != len(clf.Coef) {
		return nil, fmt.Errorf("%d transformed features for %d coefficients", scaled.Len(), len(clf.Coef))
	}

	cs := make([]contribution, scaled.Len())
	for i, out := range scaled.Names() {
		name := ml.StripGroup(out)
		raw, _ := v.Value(name)
		cs[i] = contribution{feature: name, value: raw, amount: scaled.At(i) * clf.Coef[i]}
	}
	return rank(cs, n), nil
}
