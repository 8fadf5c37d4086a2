package ml

import (
	"errors"
	"fmt"
	"math"
)

// Node is one node of a regression tree. Leaves have Left == Right == -1
// and carry the leaf margin in Value.
type Node struct {
	Feature     int     `json:"feature"`
	Threshold   float64 `json:"threshold"`
	Left        int     `json:"left"`
	Right       int     `json:"right"`
	DefaultLeft bool    `json:"default_left"`
	Value       float64 `json:"value"`
	Cover       float64 `json:"cover"`
}

// IsLeaf reports whether n has no children.
func (n Node) IsLeaf() bool { return n.Left < 0 && n.Right < 0 }

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Leaf walks x down the tree and returns the index of the leaf reached.
// Missing values (NaN) follow the node's default direction.
func (t Tree) Leaf(x []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return i
		}
		i = n.Next(x[n.Feature])
	}
}

// Next returns the child index a value is routed to.
func (n Node) Next(v float64) int {
	if math.IsNaN(v) {
		if n.DefaultLeft {
			return n.Left
		}
		return n.Right
	}
	if v < n.Threshold {
		return n.Left
	}
	return n.Right
}

// Calibration is a Platt sigmoid applied to a raw margin.
type Calibration struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Apply maps a margin to a probability: 1 / (1 + exp(a*m + b)).
func (c Calibration) Apply(margin float64) float64 {
	return 1 / (1 + math.Exp(c.A*margin+c.B))
}

// Validate rejects a non-negative slope. Drivers read the sign of margin
// attributions, which only matches the probability direction when a < 0.
func (c Calibration) Validate() error {
	if !(c.A < 0) {
		return fmt.Errorf("calibration slope a must be negative, got %v", c.A)
	}
	return nil
}

// Ensemble is a gradient boosted binary classifier.
type Ensemble struct {
	BaseScore          float64      `json:"base_score"`
	Trees              []Tree       `json:"trees"`
	FeatureImportances []float64    `json:"feature_importances,omitempty"`
	Calibration        *Calibration `json:"calibration,omitempty"`
}

// Validate checks the structural integrity of every tree against a feature count.
func (e *Ensemble) Validate(nFeatures int) error {
	if len(e.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	if len(e.FeatureImportances) > 0 && len(e.FeatureImportances) != nFeatures {
		return fmt.Errorf("feature_importances has %d entries, want %d", len(e.FeatureImportances), nFeatures)
	}
	if e.Calibration != nil {
		if err := e.Calibration.Validate(); err != nil {
			return err
		}
	}
	for ti, t := range e.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				continue
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: bad children %d/%d", ti, ni, n.Left, n.Right)
			}
			if n.Feature < 0 || n.Feature >= nFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
		}
	}
	return nil
}

// Margin returns the raw additive score for x.
func (e *Ensemble) Margin(x []float64) float64 {
	m := e.BaseScore
	for _, t := range e.Trees {
		m += t.Nodes[t.Leaf(x)].Value
	}
	return m
}

// Probability maps x to the positive-class probability.
func (e *Ensemble) Probability(x []float64) float64 {
	m := e.Margin(x)
	if e.Calibration != nil {
		return e.Calibration.Apply(m)
	}
	return logistic(m)
}

func logistic(m float64) float64 {
	return 1 / (1 + math.Exp(-m))
}
