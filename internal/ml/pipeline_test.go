package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiorisk/internal/features"
)

func TestCalibratedModel_Probability(t *testing.T) {
	m := smallPipeline()
	v, err := features.NewVector([]string{"bmi", "age", "ignored"}, []float64{math.NaN(), 60, 5})
	require.NoError(t, err)

	// age scales to 1, bmi imputes to its mean and scales to 0
	p, err := m.Probability(v)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-0.6)), p, 1e-12)
}

func TestColumnTransformer_Names(t *testing.T) {
	pre, clf, err := smallPipeline().Preprocessor()
	require.NoError(t, err)
	assert.Len(t, clf.Coef, 2)
	assert.Equal(t, []string{"num__age", "num__bmi"}, pre.OutputNames())
	assert.Equal(t, []string{"age", "bmi"}, pre.InputNames())

	assert.Equal(t, "age", StripGroup("num__age"))
	assert.Equal(t, "hdl__ldl", StripGroup("lab__hdl__ldl"))
	assert.Equal(t, "plain", StripGroup("plain"))
}

func TestColumnTransformer_ZeroScaleIsIdentity(t *testing.T) {
	ct := ColumnTransformer{Groups: []ColumnGroup{
		{Name: "num", Columns: []string{"x"}, Scaler: &Scaler{Mean: []float64{1}, Scale: []float64{0}}},
	}}
	v, err := features.NewVector([]string{"x"}, []float64{4})
	require.NoError(t, err)
	out, err := ct.Transform(v)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.At(0))
}

func TestPipeline_Structure(t *testing.T) {
	v, err := features.NewVector([]string{"age", "bmi"}, []float64{50, 27})
	require.NoError(t, err)

	m := smallPipeline()
	m.Estimator.Steps = m.Estimator.Steps[:1]
	_, err = m.Probability(v)
	assert.Error(t, err, "pipeline without classifier")

	m = smallPipeline()
	m.Estimator.Steps[0].Name = "preprocess"
	_, _, err = m.Preprocessor()
	assert.Error(t, err)
	_, err = m.Probability(v)
	assert.NoError(t, err, "scoring does not depend on step names")

	m = smallPipeline()
	m.Estimator.Steps[1].LogisticRegression.Coef = []float64{1}
	_, err = m.Probability(v)
	assert.Error(t, err)

	m = smallPipeline()
	m.Estimator.Steps[0].ColumnTransformer.Groups[0].Scaler.Mean = []float64{1}
	_, err = m.Probability(v)
	assert.Error(t, err)
}
