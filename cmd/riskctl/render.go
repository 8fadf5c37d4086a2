package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cardiorisk/internal/api"
	"cardiorisk/internal/explain"
	"cardiorisk/internal/risk"
)

func levelLabel(l risk.Level) string {
	label := strings.ToUpper(string(l))
	switch l {
	case risk.Low:
		return green(label)
	case risk.Moderate:
		return yellow(label)
	default:
		return red(label)
	}
}

func renderResult(w io.Writer, resp *api.PredictResponse) {
	res := resp.Result
	fmt.Fprintf(w, "%s %s  %s %.1f%%  %s\n",
		bold("Risk:"), levelLabel(res.RiskLevel), bold("Score:"), res.Score*100, gray("("+string(res.ModelUsed)+")"))
	fmt.Fprintf(w, "%s %s\n", bold("Recommendation:"), res.Recommendation)
	if resp.ID != "" {
		fmt.Fprintf(w, "%s %s\n", bold("Stored as:"), resp.ID)
	}
	if len(res.Drivers) == 0 {
		return
	}

	fmt.Fprintln(w, bold("Top drivers:"))
	for i, d := range res.Drivers {
		value := "n/a"
		if d.Value != nil {
			value = fmt.Sprintf("%.4g", *d.Value)
		}
		arrow := red("↑")
		if d.Impact == explain.Reduces {
			arrow = green("↓")
		}
		fmt.Fprintf(w, "  %d. %s %s %s %s\n", i+1, arrow, d.Description, gray("= "+value), gray(fmt.Sprintf("(%+.3f)", d.Contribution)))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
