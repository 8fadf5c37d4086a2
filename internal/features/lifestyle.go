package features

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Thresholds used by the lifestyle builder.
const (
	CentralObesityRatio    = 0.5
	HighWaistHeightRatio   = 0.6
	MaleWaistThresholdCm   = 102.0
	FemaleWaistThresholdCm = 88.0
	ObesityBMI             = 30.0
	HighRiskAge            = 45.0
	MinHealthySleep        = 7.0
	MaxHealthySleep        = 9.0
	ActivityGuidelineDays  = 5.0
	ElevatedSystolicBP     = 130.0
	ElevatedCholesterol    = 240.0
	MaxLifestyleRiskScore  = 3.0
)

// LifestyleColumns is the column order produced by the lifestyle builder.
var LifestyleColumns = []string{
	"age",
	"age_squared",
	"sex_male",
	"bmi",
	"bmi_squared",
	"waist_height_ratio",
	"waist_height_ratio_squared",
	"high_waist_height_ratio",
	"central_obesity",
	"high_risk_profile",
	"sleep_hours",
	"poor_sleep",
	"cigarettes_per_day",
	"current_smoker",
	"ever_smoker",
	"total_active_days",
	"meets_activity_guidelines",
	"sedentary_flag",
	"lifestyle_risk_score",
	"bmi_age_interaction",
	"waist_age_interaction",
	"bmi_age_sex_interaction",
	"obesity_sedentary_combo",
	"age_poor_sleep",
	"triple_risk",
}

// Builder turns a profile into one model family's vector shape.
type Builder interface {
	Build(p Profile) (Vector, error)
	Columns() []string
	// Fill is the placeholder for declared columns the builder does not produce.
	Fill() float64
}

// LifestyleBuilder builds the anthropometric/lifestyle vector for the tree ensemble.
type LifestyleBuilder struct{}

func (LifestyleBuilder) Columns() []string { return append([]string(nil), LifestyleColumns...) }

// Fill is zero. NaN produced by Build is left for the companion imputer.
func (LifestyleBuilder) Fill() float64 { return 0 }

func (LifestyleBuilder) Build(p Profile) (Vector, error) {
	bmi, err := p.ResolveBMI()
	if err != nil {
		return Vector{}, err
	}

	nan := math.NaN()
	sex := p.NormalizedSex()

	age := nan
	if p.Age != nil {
		age = float64(*p.Age)
	}
	sexMale := nan
	if sex != "" {
		sexMale = boolFloat(sex == SexMale)
	}

	waist := optional(p.WaistCm)
	whr := nan
	if p.WaistCm != nil && p.HeightCm != nil && *p.HeightCm > 0 {
		whr = *p.WaistCm / *p.HeightCm
	}

	centralObesity, highWHR := nan, nan
	switch {
	case !math.IsNaN(whr):
		centralObesity = boolFloat(whr > CentralObesityRatio)
		highWHR = boolFloat(whr > HighWaistHeightRatio)
	case p.WaistCm != nil && sex != "":
		// No usable height: fall back to the absolute waist rule.
		threshold := FemaleWaistThresholdCm
		if sex == SexMale {
			threshold = MaleWaistThresholdCm
		}
		centralObesity = boolFloat(*p.WaistCm >= threshold)
		highWHR = centralObesity
	}

	obesity := boolFloat(bmi >= ObesityBMI)
	highRisk := nan
	if !math.IsNaN(age) {
		highRisk = boolFloat(bmi >= ObesityBMI && age >= HighRiskAge)
	}

	sleep := optional(p.SleepHours)
	poorSleep := nan
	if !math.IsNaN(sleep) {
		poorSleep = boolFloat(sleep < MinHealthySleep || sleep > MaxHealthySleep)
	}

	cigarettes, currentSmoker := nan, nan
	if c, ok := p.Cigarettes(); ok {
		cigarettes = c
		currentSmoker = boolFloat(c > 0)
	}

	activeDays, meetsGuidelines, sedentary := nan, nan, nan
	if d, ok := p.ActiveDays(); ok {
		activeDays = d
		meetsGuidelines = boolFloat(d >= ActivityGuidelineDays)
		sedentary = boolFloat(d < ActivityGuidelineDays)
	}

	bpFlag := nan
	if p.SystolicBP != nil {
		bpFlag = boolFloat(*p.SystolicBP >= ElevatedSystolicBP)
	}
	cholFlag := nan
	if p.TotalCholesterol != nil {
		cholFlag = boolFloat(*p.TotalCholesterol >= ElevatedCholesterol)
	}

	lifestyleScore := nan
	var sum float64
	var known int
	for _, c := range []float64{poorSleep, currentSmoker, sedentary, bpFlag, cholFlag} {
		if !math.IsNaN(c) {
			sum += c
			known++
		}
	}
	if known > 0 {
		lifestyleScore = math.Min(MaxLifestyleRiskScore, sum)
	}

	obesitySedentary, tripleRisk := nan, nan
	if !math.IsNaN(sedentary) {
		obesitySedentary = boolFloat(obesity == 1 && sedentary == 1)
		if !math.IsNaN(currentSmoker) {
			tripleRisk = boolFloat(obesity+sedentary+currentSmoker >= 2)
		}
	}

	values := map[string]float64{
		"age":                        age,
		"age_squared":                age * age,
		"sex_male":                   sexMale,
		"bmi":                        bmi,
		"bmi_squared":                bmi * bmi,
		"waist_height_ratio":         whr,
		"waist_height_ratio_squared": whr * whr,
		"high_waist_height_ratio":    highWHR,
		"central_obesity":            centralObesity,
		"high_risk_profile":          highRisk,
		"sleep_hours":                sleep,
		"poor_sleep":                 poorSleep,
		"cigarettes_per_day":         cigarettes,
		"current_smoker":             currentSmoker,
		"ever_smoker":                currentSmoker,
		"total_active_days":          activeDays,
		"meets_activity_guidelines":  meetsGuidelines,
		"sedentary_flag":             sedentary,
		"lifestyle_risk_score":       lifestyleScore,
		"bmi_age_interaction":        bmi * age,
		"waist_age_interaction":      waist * age,
		"bmi_age_sex_interaction":    bmi * age * sexMale,
		"obesity_sedentary_combo":    obesitySedentary,
		"age_poor_sleep":             age * poorSleep,
		"triple_risk":                tripleRisk,
	}

	v := fromMap(LifestyleColumns, values)
	if missing := v.Missing(); len(missing) > 0 {
		log.Info().Strs("features", missing).Msg("engineered features missing, deferring to imputer")
	}
	log.Debug().
		Float64("bmi", bmi).
		Float64("lifestyle_risk_score", lifestyleScore).
		Float64("waist_height_ratio", whr).
		Float64("bp_flag", bpFlag).
		Float64("chol_flag", cholFlag).
		Msg("lifestyle features built")

	return v, nil
}

func optional(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
