package ml

import (
	"fmt"
	"math"
)

// Imputer replaces missing values with per-feature statistics fitted at training time.
type Imputer struct {
	Strategy   string    `json:"strategy"`
	Statistics []float64 `json:"statistics"`
}

// Transform returns a copy of x with NaN entries replaced.
func (im *Imputer) Transform(x []float64) ([]float64, error) {
	if len(x) != len(im.Statistics) {
		return nil, fmt.Errorf("imputer fitted on %d features, got %d", len(im.Statistics), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			v = im.Statistics[i]
		}
		out[i] = v
	}
	return out, nil
}
