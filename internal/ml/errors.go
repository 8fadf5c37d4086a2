package ml

import (
	"errors"
	"fmt"

	"cardiorisk/internal/features"
)

var (
	// ErrInvalidInput is the umbrella for caller-fixable errors.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownModelType is returned for model types outside the registry.
	ErrUnknownModelType = fmt.Errorf("%w: unknown model type", ErrInvalidInput)
)

// ArtifactError reports a model artifact that is missing or cannot be decoded.
// It is fatal: there is no default model to fall back to.
type ArtifactError struct {
	ModelType string
	Path      string
	Err       error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s artifact %s: %v", e.ModelType, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// IsInputError reports whether err is caller-fixable (bad model type,
// insufficient or invalid profile data) rather than an infrastructure failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, features.ErrInsufficientAnthropometrics) ||
		errors.Is(err, features.ErrInvalidProfile)
}

// IsArtifactError reports whether err stems from a model artifact.
func IsArtifactError(err error) bool {
	var ae *ArtifactError
	return errors.As(err, &ae)
}
