package explain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
)

// StaticFeatures are reported when neither attribution nor global
// importances are available.
var StaticFeatures = []string{"bmi", "age", "waist_height_ratio", "lifestyle_risk_score", "central_obesity"}

// AttributeFunc computes a local attribution for one row.
type AttributeFunc func(e *ml.Ensemble, x []float64) (Attribution, error)

// TreeStrategy explains tree ensembles with exact TreeSHAP.
type TreeStrategy struct {
	TopN int
	// Attribute overrides the attribution engine; nil means TreeSHAP.
	Attribute AttributeFunc
}

func (s TreeStrategy) Explain(b *ml.Bundle, v features.Vector) Explanation {
	n := topN(s.TopN)
	drivers, err := s.exact(b, v, n)
	if err == nil {
		return Explanation{Drivers: drivers}
	}
	log.Warn().Err(err).Str("model", string(b.Type)).Msg("Attribution failed, falling back to global importances")

	if b.Ensemble != nil && v.Len() > 0 && len(b.Ensemble.FeatureImportances) == v.Len() {
		return Explanation{Drivers: importanceDrivers(b.Ensemble.FeatureImportances, v, n), Fallback: Importance, Err: err}
	}

	log.Warn().Str("model", string(b.Type)).Msg("No feature importances, using static driver list")
	return Explanation{Drivers: staticDrivers(v, n), Fallback: Static, Err: err}
}

func (s TreeStrategy) exact(b *ml.Bundle, v features.Vector, n int) ([]Driver, error) {
	if b.Ensemble == nil {
		return nil, errors.New("bundle has no ensemble")
	}
	attribute := s.Attribute
	if attribute == nil {
		attribute = TreeSHAP
	}
	a, err := attribute(b.Ensemble, v.Values())
	if err != nil {
		return nil, err
	}
	if len(a.Phi) != v.Len() {
		return nil, fmt.Errorf("attribution has %d values for %d features", len(a.Phi), v.Len())
	}
	cs := make([]contribution, v.Len())
	for i, name := range v.Names() {
		cs[i] = contribution{feature: name, value: v.At(i), amount: a.Phi[i]}
	}
	return rank(cs, n), nil
}

// importanceDrivers ranks features by global importance. Contribution is
// zero since importances say nothing about this row.
func importanceDrivers(importances []float64, v features.Vector, n int) []Driver {
	order := make([]int, len(importances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return importances[order[i]] > importances[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	names := v.Names()
	out := make([]Driver, len(order))
	for i, idx := range order {
		out[i] = newDriver(names[idx], v.At(idx), 0, impactOf(importances[idx]))
	}
	return out
}

func staticDrivers(v features.Vector, n int) []Driver {
	var present []string
	for _, name := range StaticFeatures {
		if _, ok := v.Value(name); ok {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		present = v.Names()
	}
	if len(present) == 0 {
		present = StaticFeatures
	}
	return zeroDrivers(present, v, n)
}
