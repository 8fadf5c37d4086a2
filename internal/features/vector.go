package features

import (
	"fmt"
	"math"
)

// Vector is an ordered name -> value mapping. A NaN value means missing.
// Vectors are never mutated after construction; every method returns copies.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

// NewVector pairs names with values. Duplicate names are rejected.
func NewVector(names []string, values []float64) (Vector, error) {
	if len(names) != len(values) {
		return Vector{}, fmt.Errorf("vector: %d names but %d values", len(names), len(values))
	}
	v := Vector{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
		index:  make(map[string]int, len(names)),
	}
	for i, n := range names {
		if _, dup := v.index[n]; dup {
			return Vector{}, fmt.Errorf("vector: duplicate column %q", n)
		}
		v.index[n] = i
	}
	return v, nil
}

// fromMap orders values by columns; columns absent from m become NaN.
func fromMap(columns []string, m map[string]float64) Vector {
	values := make([]float64, len(columns))
	for i, c := range columns {
		if x, ok := m[c]; ok {
			values[i] = x
		} else {
			values[i] = math.NaN()
		}
	}
	v, _ := NewVector(columns, values)
	return v
}

func (v Vector) Len() int { return len(v.names) }

func (v Vector) Names() []string { return append([]string(nil), v.names...) }

func (v Vector) Values() []float64 { return append([]float64(nil), v.values...) }

// At returns the value at position i.
func (v Vector) At(i int) float64 { return v.values[i] }

// Value looks a column up by name.
func (v Vector) Value(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return math.NaN(), false
	}
	return v.values[i], true
}

// Missing lists the columns holding NaN, in column order.
func (v Vector) Missing() []string {
	var out []string
	for i, x := range v.values {
		if math.IsNaN(x) {
			out = append(out, v.names[i])
		}
	}
	return out
}

// Reindex aligns the vector to names: unknown columns are dropped and
// declared columns missing from v are set to fill.
func (v Vector) Reindex(names []string, fill float64) Vector {
	out := Vector{
		names:  append([]string(nil), names...),
		values: make([]float64, len(names)),
		index:  make(map[string]int, len(names)),
	}
	for i, n := range names {
		if x, ok := v.Value(n); ok {
			out.values[i] = x
		} else {
			out.values[i] = fill
		}
		if _, seen := out.index[n]; !seen {
			out.index[n] = i
		}
	}
	return out
}

// WithValues returns a vector with the same columns and new values.
func (v Vector) WithValues(values []float64) (Vector, error) {
	if len(values) != len(v.names) {
		return Vector{}, fmt.Errorf("vector: expected %d values, got %d", len(v.names), len(values))
	}
	return NewVector(v.names, values)
}

// IsMissing reports whether x is the missing marker.
func IsMissing(x float64) bool { return math.IsNaN(x) }

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
