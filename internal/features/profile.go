// Package features turns a raw health profile into the fixed-order numeric
// vectors expected by the fitted risk models.
//
// Two shapes exist: the lifestyle vector consumed by the tree ensemble and the
// lipid-panel vector consumed by the calibrated linear pipeline. Builders are
// pure and deterministic. Missing optional inputs propagate as NaN so that the
// model-side imputation decides the fill value.
package features

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientAnthropometrics is returned when BMI cannot be derived:
// neither BMI nor both height and weight (with height > 0) were supplied.
var ErrInsufficientAnthropometrics = errors.New("insufficient anthropometric data: provide bmi or height_cm and weight_kg")

// ErrInvalidProfile marks a profile rejected by Validate.
var ErrInvalidProfile = errors.New("invalid profile")

const (
	SexMale   = "M"
	SexFemale = "F"
)

// Profile is the raw input gathered upstream. Every field is optional.
type Profile struct {
	Age              *int     `json:"age,omitempty"`
	Sex              string   `json:"sex,omitempty"`
	HeightCm         *float64 `json:"height_cm,omitempty"`
	WeightKg         *float64 `json:"weight_kg,omitempty"`
	WaistCm          *float64 `json:"waist_cm,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	SystolicBP       *float64 `json:"systolic_bp,omitempty"`
	TotalCholesterol *float64 `json:"total_cholesterol,omitempty"`
	SleepHours       *float64 `json:"sleep_hours,omitempty"`

	// CigarettesPerDay wins over Smoker when both are set.
	CigarettesPerDay *float64 `json:"cigarettes_per_day,omitempty"`
	Smoker           *bool    `json:"smoker,omitempty"`

	// ActiveDaysPerWeek wins over ActivityLevel when both are set.
	ActiveDaysPerWeek *int   `json:"active_days_per_week,omitempty"`
	ActivityLevel     string `json:"activity_level,omitempty"`

	GlucoseMgdl       *float64 `json:"glucose_mgdl,omitempty"`
	HDLMgdl           *float64 `json:"hdl_mgdl,omitempty"`
	LDLMgdl           *float64 `json:"ldl_mgdl,omitempty"`
	TriglyceridesMgdl *float64 `json:"triglycerides_mgdl,omitempty"`
}

// Float returns a pointer to v. Handy for building profiles in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// NormalizedSex returns "M", "F" or "" for anything else.
func (p Profile) NormalizedSex() string {
	switch strings.ToUpper(strings.TrimSpace(p.Sex)) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	default:
		return ""
	}
}

// ResolveBMI returns the supplied BMI or derives it from height and weight.
func (p Profile) ResolveBMI() (float64, error) {
	if p.BMI != nil {
		return *p.BMI, nil
	}
	if p.HeightCm == nil || p.WeightKg == nil || *p.HeightCm <= 0 {
		return 0, ErrInsufficientAnthropometrics
	}
	h := *p.HeightCm / 100
	return *p.WeightKg / (h * h), nil
}

// Cigarettes resolves the smoking proxy from either the count or the yes/no answer.
func (p Profile) Cigarettes() (float64, bool) {
	if p.CigarettesPerDay != nil {
		return *p.CigarettesPerDay, true
	}
	if p.Smoker != nil {
		return CigarettesForSmoker(*p.Smoker), true
	}
	return 0, false
}

// ActiveDays resolves the activity proxy from either the count or the category.
func (p Profile) ActiveDays() (float64, bool) {
	if p.ActiveDaysPerWeek != nil {
		return float64(*p.ActiveDaysPerWeek), true
	}
	if strings.TrimSpace(p.ActivityLevel) != "" {
		return float64(ActiveDaysForCategory(p.ActivityLevel)), true
	}
	return 0, false
}

// Validate checks the value ranges a transport should reject before
// prediction. It does not enforce the BMI precondition; builders do.
func (p Profile) Validate() error {
	if p.Sex != "" && p.NormalizedSex() == "" {
		return fmt.Errorf("%w: sex must be %q or %q, got %q", ErrInvalidProfile, SexMale, SexFemale, p.Sex)
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 130) {
		return fmt.Errorf("%w: age must be between 0 and 130, got %d", ErrInvalidProfile, *p.Age)
	}
	if p.ActiveDaysPerWeek != nil && (*p.ActiveDaysPerWeek < 0 || *p.ActiveDaysPerWeek > 7) {
		return fmt.Errorf("%w: active_days_per_week must be between 0 and 7, got %d", ErrInvalidProfile, *p.ActiveDaysPerWeek)
	}
	if p.SleepHours != nil && *p.SleepHours > 24 {
		return fmt.Errorf("%w: sleep_hours must not exceed 24, got %g", ErrInvalidProfile, *p.SleepHours)
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"height_cm", p.HeightCm},
		{"weight_kg", p.WeightKg},
		{"waist_cm", p.WaistCm},
		{"bmi", p.BMI},
		{"systolic_bp", p.SystolicBP},
		{"total_cholesterol", p.TotalCholesterol},
		{"sleep_hours", p.SleepHours},
		{"cigarettes_per_day", p.CigarettesPerDay},
		{"glucose_mgdl", p.GlucoseMgdl},
		{"hdl_mgdl", p.HDLMgdl},
		{"ldl_mgdl", p.LDLMgdl},
		{"triglycerides_mgdl", p.TriglyceridesMgdl},
	}
	for _, f := range nonNegative {
		if f.v != nil && *f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidProfile, f.name, *f.v)
		}
	}
	return nil
}
