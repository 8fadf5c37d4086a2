// Package explain turns a scored feature vector into a ranked list of the
// features that drove the score. Each model family has its own strategy;
// all of them degrade to a fallback list instead of failing the prediction.
package explain

import (
	"math"
	"sort"

	"cardiorisk/internal/features"
	"cardiorisk/internal/ml"
)

// DefaultTopN is the number of drivers reported per prediction.
const DefaultTopN = 5

// Impact is the direction in which a driver moves the score.
type Impact string

const (
	Increases Impact = "increases"
	Reduces   Impact = "reduces"
)

// Level names the fallback that produced an explanation. The empty level
// means the exact strategy succeeded.
type Level string

const (
	Exact            Level = ""
	Importance       Level = "importance"
	Static           Level = "static"
	Unintrospectable Level = "unintrospectable"
)

// Driver is one feature's contribution to a score.
type Driver struct {
	Feature      string   `json:"feature"`
	Description  string   `json:"description"`
	Value        *float64 `json:"value"`
	Contribution float64  `json:"contribution"`
	Impact       Impact   `json:"impact"`
}

// Explanation is the outcome of a strategy. Err holds the failure that
// caused a fallback and is never returned to callers of the predictor.
type Explanation struct {
	Drivers  []Driver
	Fallback Level
	Err      error
}

// Strategy explains a prepared vector scored by a bundle.
type Strategy interface {
	Explain(b *ml.Bundle, v features.Vector) Explanation
}

// ForFamily returns the strategy for a model family.
func ForFamily(f ml.Family, topN int) Strategy {
	switch f {
	case ml.CalibratedPipeline:
		return LinearStrategy{TopN: topN}
	default:
		return TreeStrategy{TopN: topN}
	}
}

func topN(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	return n
}

type contribution struct {
	feature string
	value   float64
	amount  float64
}

// rank orders contributions by absolute amount, descending, keeping the
// original feature order for ties, and converts the first n to drivers.
func rank(cs []contribution, n int) []Driver {
	sorted := append([]contribution(nil), cs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].amount) > math.Abs(sorted[j].amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Driver, len(sorted))
	for i, c := range sorted {
		out[i] = newDriver(c.feature, c.value, c.amount, impactOf(c.amount))
	}
	return out
}

func impactOf(amount float64) Impact {
	if amount > 0 {
		return Increases
	}
	return Reduces
}

func newDriver(feature string, value, amount float64, impact Impact) Driver {
	d := Driver{
		Feature:      feature,
		Description:  features.Describe(feature),
		Contribution: amount,
		Impact:       impact,
	}
	if !math.IsNaN(value) {
		v := value
		d.Value = &v
	}
	return d
}

// zeroDrivers reports up to n names with zero contribution.
func zeroDrivers(names []string, v features.Vector, n int) []Driver {
	var out []Driver
	for _, name := range names {
		if len(out) == n {
			break
		}
		x, _ := v.Value(name)
		out = append(out, newDriver(name, x, 0, Increases))
	}
	return out
}
