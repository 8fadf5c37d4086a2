package ml

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cardiorisk/internal/features"
)

// OutputSeparator joins a column group name and a column in transformed feature names.
const OutputSeparator = "__"

// Scaler standardizes values as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ColumnGroup selects input columns by name and runs them through an
// optional imputer and an optional scaler.
type ColumnGroup struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Imputer *Imputer `json:"imputer,omitempty"`
	Scaler  *Scaler  `json:"scaler,omitempty"`
}

func (g ColumnGroup) validate() error {
	n := len(g.Columns)
	if n == 0 {
		return fmt.Errorf("group %q selects no columns", g.Name)
	}
	if g.Imputer != nil && len(g.Imputer.Statistics) != n {
		return fmt.Errorf("group %q: imputer has %d statistics for %d columns", g.Name, len(g.Imputer.Statistics), n)
	}
	if g.Scaler != nil && (len(g.Scaler.Mean) != n || len(g.Scaler.Scale) != n) {
		return fmt.Errorf("group %q: scaler shape does not match %d columns", g.Name, n)
	}
	return nil
}

// ColumnTransformer concatenates the outputs of its groups in order.
type ColumnTransformer struct {
	Groups []ColumnGroup `json:"groups"`
}

// OutputNames returns the transformed feature names as group__column.
func (ct *ColumnTransformer) OutputNames() []string {
	var names []string
	for _, g := range ct.Groups {
		for _, c := range g.Columns {
			names = append(names, g.Name+OutputSeparator+c)
		}
	}
	return names
}

// InputNames returns the output names with their group prefix stripped.
func (ct *ColumnTransformer) InputNames() []string {
	out := ct.OutputNames()
	for i, n := range out {
		out[i] = StripGroup(n)
	}
	return out
}

// StripGroup removes the leading group__ prefix from a transformed name.
func StripGroup(name string) string {
	if _, col, ok := strings.Cut(name, OutputSeparator); ok {
		return col
	}
	return name
}

// Transform selects each group's columns from v by name; absent columns
// are treated as missing.
func (ct *ColumnTransformer) Transform(v features.Vector) (features.Vector, error) {
	var values []float64
	for _, g := range ct.Groups {
		if err := g.validate(); err != nil {
			return features.Vector{}, err
		}
		for i, c := range g.Columns {
			x, ok := v.Value(c)
			if !ok {
				x = math.NaN()
			}
			if math.IsNaN(x) && g.Imputer != nil {
				x = g.Imputer.Statistics[i]
			}
			if g.Scaler != nil {
				scale := g.Scaler.Scale[i]
				if scale == 0 {
					scale = 1
				}
				x = (x - g.Scaler.Mean[i]) / scale
			}
			values = append(values, x)
		}
	}
	return features.NewVector(ct.OutputNames(), values)
}

// LogisticRegression is a fitted binary linear classifier.
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Decision returns the linear margin for x.
func (lr *LogisticRegression) Decision(x []float64) (float64, error) {
	if len(x) != len(lr.Coef) {
		return 0, fmt.Errorf("classifier has %d coefficients, got %d features", len(lr.Coef), len(x))
	}
	m := lr.Intercept
	for i, c := range lr.Coef {
		m += c * x[i]
	}
	return m, nil
}

// Step is one named stage of a pipeline. Exactly one of its fields is set.
type Step struct {
	Name               string              `json:"name"`
	ColumnTransformer  *ColumnTransformer  `json:"column_transformer,omitempty"`
	LogisticRegression *LogisticRegression `json:"logistic_regression,omitempty"`
}

// Pipeline is a chain of transformers ending in a classifier.
type Pipeline struct {
	Steps []Step `json:"steps"`
}

// NamedStep returns the step with the given name.
func (p *Pipeline) NamedStep(name string) (Step, bool) {
	for _, s := range p.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Margin runs v through every transformer and returns the classifier margin.
func (p *Pipeline) Margin(v features.Vector) (float64, error) {
	if len(p.Steps) == 0 {
		return 0, errors.New("pipeline has no steps")
	}
	last := p.Steps[len(p.Steps)-1]
	if last.LogisticRegression == nil {
		return 0, fmt.Errorf("final step %q is not a classifier", last.Name)
	}
	x := v
	for _, s := range p.Steps[:len(p.Steps)-1] {
		if s.ColumnTransformer == nil {
			return 0, fmt.Errorf("step %q is not a transformer", s.Name)
		}
		var err error
		if x, err = s.ColumnTransformer.Transform(x); err != nil {
			return 0, fmt.Errorf("step %q: %w", s.Name, err)
		}
	}
	return last.LogisticRegression.Decision(x.Values())
}

// CalibratedModel wraps a pipeline with a Platt calibrator on its margin.
type CalibratedModel struct {
	Estimator   Pipeline    `json:"estimator"`
	Calibration Calibration `json:"calibration"`
}

// Probability scores a named feature vector.
func (c *CalibratedModel) Probability(v features.Vector) (float64, error) {
	m, err := c.Estimator.Margin(v)
	if err != nil {
		return 0, err
	}
	return c.Calibration.Apply(m), nil
}

// Preprocessor returns the "pre" column transformer and the "clf"
// classifier when the pipeline has the expected layout.
func (c *CalibratedModel) Preprocessor() (*ColumnTransformer, *LogisticRegression, error) {
	pre, ok := c.Estimator.NamedStep("pre")
	if !ok || pre.ColumnTransformer == nil {
		return nil, nil, errors.New("pipeline has no pre column transformer")
	}
	clf, ok := c.Estimator.NamedStep("clf")
	if !ok || clf.LogisticRegression == nil {
		return nil, nil, errors.New("pipeline has no clf classifier")
	}
	return pre.ColumnTransformer, clf.LogisticRegression, nil
}
