package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardiorisk/internal/ml"
)

func newModelCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect model bundles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "info [type]",
		Short:     "Show family, version and declared features of a model",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(ml.Diabetes), string(ml.Cardiovascular)},
		RunE: func(cmd *cobra.Command, args []string) error {
			modelType := string(ml.DefaultModelType)
			if len(args) == 1 {
				modelType = args[0]
			}
			info, err := opts.engine().Model(cmd.Context(), modelType)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", bold("Model:"), info.ModelType)
			fmt.Fprintf(out, "%s %s\n", bold("Family:"), info.Family)
			if info.Version != "" {
				fmt.Fprintf(out, "%s %s\n", bold("Version:"), info.Version)
			}
			if info.TrainedAt != nil {
				fmt.Fprintf(out, "%s %s\n", bold("Trained:"), info.TrainedAt.Format("2006-01-02"))
			}
			if m := info.Metrics; m != nil {
				fmt.Fprintf(out, "%s AUC %.3f, Brier %.3f, recall %.2f, precision %.2f (n=%d)\n",
					bold("Metrics:"), m.AUCScore, m.BrierScore, m.Recall, m.Precision, m.TrainingSamples)
			}
			fmt.Fprintf(out, "%s %d\n", bold("Features:"), len(info.FeatureNames))
			if len(info.FeatureNames) > 0 {
				fmt.Fprintf(out, "  %s\n", gray(strings.Join(info.FeatureNames, ", ")))
			}
			return nil
		},
	})
	return cmd
}
