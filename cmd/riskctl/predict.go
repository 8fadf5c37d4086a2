package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cardiorisk/internal/api"
	"cardiorisk/internal/features"
)

// profileFlags maps command-line flags onto optional profile fields. Only
// flags the user actually set are copied.
type profileFlags struct {
	file     string
	model    string
	sex      string
	activity string
	age      int
	active   int
	smoker   bool
	floats   map[string]*float64
}

var floatFlags = []struct {
	name, usage string
	field       func(p *features.Profile) **float64
}{
	{"height", "height in cm", func(p *features.Profile) **float64 { return &p.HeightCm }},
	{"weight", "weight in kg", func(p *features.Profile) **float64 { return &p.WeightKg }},
	{"waist", "waist circumference in cm", func(p *features.Profile) **float64 { return &p.WaistCm }},
	{"bmi", "body-mass index", func(p *features.Profile) **float64 { return &p.BMI }},
	{"systolic-bp", "systolic blood pressure (mmHg)", func(p *features.Profile) **float64 { return &p.SystolicBP }},
	{"cholesterol", "total cholesterol (mg/dL)", func(p *features.Profile) **float64 { return &p.TotalCholesterol }},
	{"sleep", "sleep hours per night", func(p *features.Profile) **float64 { return &p.SleepHours }},
	{"cigarettes", "cigarettes per day", func(p *features.Profile) **float64 { return &p.CigarettesPerDay }},
	{"glucose", "fasting glucose (mg/dL)", func(p *features.Profile) **float64 { return &p.GlucoseMgdl }},
	{"hdl", "HDL cholesterol (mg/dL)", func(p *features.Profile) **float64 { return &p.HDLMgdl }},
	{"ldl", "LDL cholesterol (mg/dL)", func(p *features.Profile) **float64 { return &p.LDLMgdl }},
	{"triglycerides", "triglycerides (mg/dL)", func(p *features.Profile) **float64 { return &p.TriglyceridesMgdl }},
}

func (pf *profileFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&pf.file, "file", "f", "", "JSON profile to start from (- reads stdin)")
	fs.StringVarP(&pf.model, "model", "m", "", "model type: diabetes or cardiovascular")
	fs.StringVar(&pf.sex, "sex", "", "biological sex: M or F")
	fs.StringVar(&pf.activity, "activity", "", "activity level: sedentary, light, moderate, active, very_active")
	fs.IntVar(&pf.age, "age", 0, "age in years")
	fs.IntVar(&pf.active, "active-days", 0, "active days per week")
	fs.BoolVar(&pf.smoker, "smoker", false, "current smoker")

	pf.floats = make(map[string]*float64, len(floatFlags))
	for _, f := range floatFlags {
		pf.floats[f.name] = fs.Float64(f.name, 0, f.usage)
	}
}

// request builds the prediction request from the optional file and the set flags.
func (pf *profileFlags) request(fs *pflag.FlagSet, stdin io.Reader) (api.PredictRequest, error) {
	var req api.PredictRequest
	if pf.file != "" {
		r := stdin
		if pf.file != "-" {
			f, err := os.Open(pf.file)
			if err != nil {
				return req, err
			}
			defer f.Close()
			r = f
		}
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			return req, fmt.Errorf("decode profile: %w", err)
		}
	}

	p := &req.Profile
	if fs.Changed("model") {
		req.ModelType = pf.model
	}
	if fs.Changed("sex") {
		p.Sex = pf.sex
	}
	if fs.Changed("activity") {
		p.ActivityLevel = pf.activity
	}
	if fs.Changed("age") {
		p.Age = features.Int(pf.age)
	}
	if fs.Changed("active-days") {
		p.ActiveDaysPerWeek = features.Int(pf.active)
	}
	if fs.Changed("smoker") {
		p.Smoker = features.Bool(pf.smoker)
	}
	for _, f := range floatFlags {
		if fs.Changed(f.name) {
			*f.field(p) = features.Float(*pf.floats[f.name])
		}
	}
	return req, nil
}

func newPredictCommand(opts *options) *cobra.Command {
	pf := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a profile and explain the result",
		Example: `  riskctl predict --age 52 --sex M --height 178 --weight 96 --waist 104
  riskctl predict -m cardiovascular -f profile.json --hdl 38
  riskctl predict --server http://localhost:8080 -f - < profile.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pf.request(cmd.Flags(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := opts.engine().Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderResult(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}
