// Package ml deserializes and scores the fitted risk models. Each model
// type resolves to an immutable Bundle loaded once per process.
package ml

import (
	"fmt"
	"strings"
)

// ModelType identifies one bundle in the registry.
type ModelType string

const (
	Diabetes       ModelType = "diabetes"
	Cardiovascular ModelType = "cardiovascular"
)

// DefaultModelType is used when the caller does not name a model.
const DefaultModelType = Diabetes

// ModelTypes lists every model type the registry can load.
var ModelTypes = []ModelType{Diabetes, Cardiovascular}

// NormalizeModelType lower-cases s and rejects unknown values. An empty
// string resolves to DefaultModelType.
func NormalizeModelType(s string) (ModelType, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return DefaultModelType, nil
	}
	for _, mt := range ModelTypes {
		if ModelType(t) == mt {
			return mt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModelType, s)
}

// Family is the structural kind of a fitted model.
type Family int

const (
	// TreeEnsemble is a boosted tree model that needs an external imputer.
	TreeEnsemble Family = iota + 1
	// CalibratedPipeline is a calibrated linear pipeline with embedded preprocessing.
	CalibratedPipeline
)

func (f Family) String() string {
	switch f {
	case TreeEnsemble:
		return "tree_ensemble"
	case CalibratedPipeline:
		return "calibrated_pipeline"
	default:
		return "unknown"
	}
}

// FamilyOf returns the model family served for a model type.
func FamilyOf(t ModelType) Family {
	switch t {
	case Diabetes:
		return TreeEnsemble
	case Cardiovascular:
		return CalibratedPipeline
	default:
		return 0
	}
}
