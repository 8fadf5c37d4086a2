package features

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Input sanity bounds: exceeding them is logged, never rejected.
const (
	SuspiciousBMI              = 60.0
	SuspiciousWaistHeightRatio = 1.0
)

// LipidPanelColumns is the column contract of the fitted cardiovascular pipeline.
// education, income_poverty_ratio and the ethnicity indicators are not
// collected; they exist so the pipeline sees exactly the columns it was fitted on.
var LipidPanelColumns = []string{
	"age",
	"sex",
	"education",
	"income_poverty_ratio",
	"bmi",
	"waist_cm",
	"waist_height_ratio",
	"glucose_mgdl",
	"hdl_mgdl",
	"triglycerides_mgdl",
	"ldl_mgdl",
	"bmi_squared",
	"bmi_x_age",
	"hdl_ldl_ratio",
	"triglycerides_log",
	"ethnicity_2",
	"ethnicity_3",
	"ethnicity_4",
	"ethnicity_5",
}

// LipidPanelBuilder builds the lab-augmented vector for the linear pipeline.
type LipidPanelBuilder struct{}

func (LipidPanelBuilder) Columns() []string { return append([]string(nil), LipidPanelColumns...) }

// Fill is NaN: the pipeline's own imputer handles undeclared columns.
func (LipidPanelBuilder) Fill() float64 { return math.NaN() }

func (LipidPanelBuilder) Build(p Profile) (Vector, error) {
	bmi, err := p.ResolveBMI()
	if err != nil {
		return Vector{}, err
	}

	nan := math.NaN()

	age := nan
	if p.Age != nil {
		age = float64(*p.Age)
	}

	// 0 = male, 1 = female.
	sex := nan
	switch p.NormalizedSex() {
	case SexMale:
		sex = 0
	case SexFemale:
		sex = 1
	}

	whr := nan
	if p.WaistCm != nil && p.HeightCm != nil && *p.HeightCm > 0 {
		whr = *p.WaistCm / *p.HeightCm
	}

	hdlLDL := nan
	if p.HDLMgdl != nil && p.LDLMgdl != nil && *p.HDLMgdl != 0 && *p.LDLMgdl != 0 {
		hdlLDL = *p.HDLMgdl / *p.LDLMgdl
	}

	trigLog := nan
	if p.TriglyceridesMgdl != nil {
		trigLog = math.Log1p(*p.TriglyceridesMgdl)
	}

	log.Debug().
		Float64("age", age).
		Str("sex", p.Sex).
		Float64("bmi", bmi).
		Float64("waist_height_ratio", whr).
		Bool("hdl_missing", p.HDLMgdl == nil).
		Bool("ldl_missing", p.LDLMgdl == nil).
		Bool("triglycerides_missing", p.TriglyceridesMgdl == nil).
		Msg("building lipid panel features")

	if bmi > SuspiciousBMI {
		log.Warn().Float64("bmi", bmi).Msg("extremely high BMI, check the input data")
	}
	if !math.IsNaN(whr) && whr > SuspiciousWaistHeightRatio {
		log.Warn().Float64("waist_height_ratio", whr).Msg("extremely high waist-to-height ratio, check the input data")
	}

	values := map[string]float64{
		"age":                  age,
		"sex":                  sex,
		"education":            nan,
		"income_poverty_ratio": nan,
		"bmi":                  bmi,
		"waist_cm":             optional(p.WaistCm),
		"waist_height_ratio":   whr,
		"glucose_mgdl":         optional(p.GlucoseMgdl),
		"hdl_mgdl":             optional(p.HDLMgdl),
		"triglycerides_mgdl":   optional(p.TriglyceridesMgdl),
		"ldl_mgdl":             optional(p.LDLMgdl),
		"bmi_squared":          bmi * bmi,
		"bmi_x_age":            bmi * age,
		"hdl_ldl_ratio":        hdlLDL,
		"triglycerides_log":    trigLog,
		"ethnicity_2":          0,
		"ethnicity_3":          0,
		"ethnicity_4":          0,
		"ethnicity_5":          0,
	}

	return fromMap(LipidPanelColumns, values), nil
}
