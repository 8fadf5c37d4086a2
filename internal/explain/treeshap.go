package explain

import (
	"errors"
	"fmt"
	"math"

	"cardiorisk/internal/ml"
)

// Attribution is an additive decomposition of an ensemble margin:
// sum(Phi) + ExpectedValue equals the margin for the explained row.
type Attribution struct {
	Phi           []float64
	ExpectedValue float64
}

// ErrMissingCover is returned when a tree carries no node covers, which
// path-dependent attribution needs to weight unseen branches.
var ErrMissingCover = errors.New("tree node has no cover")

type pathElement struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

// TreeSHAP computes exact path-dependent SHAP values of the margin of e for x.
func TreeSHAP(e *ml.Ensemble, x []float64) (Attribution, error) {
	if e == nil || len(e.Trees) == 0 {
		return Attribution{}, errors.New("no trees to attribute")
	}
	a := Attribution{Phi: make([]float64, len(x)), ExpectedValue: e.BaseScore}
	for ti, t := range e.Trees {
		if err := checkTree(t, len(x)); err != nil {
			return Attribution{}, fmt.Errorf("tree %d: %w", ti, err)
		}
		a.ExpectedValue += expectedValue(t, 0)
		recurse(t, x, a.Phi, 0, nil, 1, 1, -1)
	}
	for i, p := range a.Phi {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Attribution{}, fmt.Errorf("non-finite attribution for feature %d", i)
		}
	}
	return a, nil
}

func checkTree(t ml.Tree, n int) error {
	for i, node := range t.Nodes {
		if !(node.Cover > 0) {
			return fmt.Errorf("node %d: %w", i, ErrMissingCover)
		}
		if !node.IsLeaf() && (node.Feature < 0 || node.Feature >= n) {
			return fmt.Errorf("node %d: feature %d out of range", i, node.Feature)
		}
	}
	return nil
}

// expectedValue is the cover-weighted mean leaf value below node i.
func expectedValue(t ml.Tree, i int) float64 {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return n.Value
	}
	l, r := t.Nodes[n.Left], t.Nodes[n.Right]
	return (l.Cover*expectedValue(t, n.Left) + r.Cover*expectedValue(t, n.Right)) / (l.Cover + r.Cover)
}

func recurse(t ml.Tree, x, phi []float64, node int, parent []pathElement, pz, po float64, pi int) {
	depth := len(parent)
	path := make([]pathElement, depth+1)
	copy(path, parent)
	extendPath(path, depth, pz, po, pi)

	n := t.Nodes[node]
	if n.IsLeaf() {
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.feature] += w * (el.one - el.zero) * n.Value
		}
		return
	}

	hot := n.Next(x[n.Feature])
	cold := n.Right
	if hot == n.Right {
		cold = n.Left
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover

	iz, io := 1.0, 1.0
	for k := 0; k <= depth; k++ {
		if path[k].feature == n.Feature {
			iz, io = path[k].zero, path[k].one
			unwindPath(path, depth, k)
			path = path[:depth]
			break
		}
	}

	recurse(t, x, phi, hot, path, hotZero*iz, io, n.Feature)
	recurse(t, x, phi, cold, path, coldZero*iz, 0, n.Feature)
}

func extendPath(path []pathElement, depth int, zero, one float64, feature int) {
	path[depth] = pathElement{feature: feature, zero: zero, one: one}
	if depth == 0 {
		path[depth].weight = 1
	}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / d
		path[i].weight = zero * path[i].weight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElement, depth, idx int) {
	one, zero := path[idx].one, path[idx].zero
	next := path[depth].weight
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * d / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/d
		} else {
			path[i].weight = path[i].weight * d / (zero * float64(depth-i))
		}
	}
	for i := idx; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
}

func unwoundPathSum(path []pathElement, depth, idx int) float64 {
	one, zero := path[idx].one, path[idx].zero
	next := path[depth].weight
	total := 0.0
	if one != 0 {
		for i := depth - 1; i >= 0; i-- {
			tmp := next / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)
		}
	} else {
		for i := depth - 1; i >= 0; i-- {
			total += path[i].weight / (zero * float64(depth-i))
		}
	}
	return total * float64(depth+1)
}
