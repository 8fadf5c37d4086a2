package features

import "strings"

var descriptions = map[string]string{
	// lifestyle vector
	"age":                        "Age",
	"age_squared":                "Age squared",
	"sex_male":                   "Male sex",
	"bmi":                        "Body mass index",
	"bmi_squared":                "Body mass index squared",
	"waist_height_ratio":         "Waist-to-height ratio",
	"waist_height_ratio_squared": "Waist-to-height ratio squared",
	"high_waist_height_ratio":    "Elevated waist-to-height ratio",
	"central_obesity":            "Abdominal obesity",
	"high_risk_profile":          "Age 45+ with BMI 30+",
	"sleep_hours":                "Sleep hours per night",
	"poor_sleep":                 "Too little or too much sleep",
	"cigarettes_per_day":         "Cigarettes per day",
	"current_smoker":             "Current smoker",
	"ever_smoker":                "Smoking history",
	"total_active_days":          "Active days per week",
	"meets_activity_guidelines":  "Meets physical activity guidelines",
	"sedentary_flag":             "Sedentary lifestyle",
	"lifestyle_risk_score":       "Lifestyle risk score",
	"bmi_age_interaction":        "BMI x age interaction",
	"waist_age_interaction":      "Waist x age interaction",
	"bmi_age_sex_interaction":    "BMI x age x sex interaction",
	"obesity_sedentary_combo":    "Obesity with sedentary lifestyle",
	"age_poor_sleep":             "Age x poor sleep interaction",
	"triple_risk":                "Two or more of obesity, inactivity, smoking",

	// lipid panel vector
	"sex":                  "Sex (0=male, 1=female)",
	"education":            "Education level",
	"income_poverty_ratio": "Income-to-poverty ratio",
	"waist_cm":             "Waist circumference (cm)",
	"glucose_mgdl":         "Fasting glucose (mg/dL)",
	"hdl_mgdl":             "HDL cholesterol (mg/dL)",
	"ldl_mgdl":             "LDL cholesterol (mg/dL)",
	"triglycerides_mgdl":   "Triglycerides (mg/dL)",
	"bmi_x_age":            "BMI x age interaction",
	"hdl_ldl_ratio":        "HDL / LDL ratio",
	"triglycerides_log":    "Log triglycerides",
	"ethnicity_2":          "Ethnicity (category 2)",
	"ethnicity_3":          "Ethnicity (category 3)",
	"ethnicity_4":          "Ethnicity (category 4)",
	"ethnicity_5":          "Ethnicity (category 5)",
}

// Describe returns the human-readable label for a feature, or the name itself.
func Describe(name string) string {
	if d, ok := descriptions[name]; ok {
		return d
	}
	return name
}

// Smoking and activity proxies used when upstream only has categorical answers.
const CigarettesPerSmoker = 10

var activityDays = map[string]int{
	"sedentary":   0,
	"light":       2,
	"moderate":    4,
	"active":      6,
	"very_active": 7,
}

// CigarettesForSmoker maps a yes/no smoking answer to cigarettes per day.
func CigarettesForSmoker(smoker bool) float64 {
	if smoker {
		return CigarettesPerSmoker
	}
	return 0
}

// ActiveDaysForCategory maps an activity category to active days per week.
// Unknown categories count as sedentary.
func ActiveDaysForCategory(category string) int {
	key := strings.ToLower(strings.TrimSpace(category))
	key = strings.ReplaceAll(strings.ReplaceAll(key, " ", "_"), "-", "_")
	return activityDays[key]
}
