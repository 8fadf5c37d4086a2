package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cardiorisk/internal/client"
	"cardiorisk/internal/common"
	"cardiorisk/internal/storage"
)

func newHistoryCommand(opts *options) *cobra.Command {
	var (
		dataPath string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored predictions, newest first",
		Long: `List stored predictions. With --server the API is queried; otherwise the
prediction database under --data is opened read-write, so stop riskd first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []storage.Record
			switch {
			case opts.server != "":
				list, err := client.New(opts.server, 0).Predictions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				records = list.Predictions
			case dataPath != "":
				store, err := storage.New(dataPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if records, err = store.ListPredictions(limit); err != nil {
					return err
				}
			default:
				return errors.New("history needs --server or --data")
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, gray("no stored predictions"))
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %s  %-14s %s %.3f\n",
					gray(rec.CreatedAt.Local().Format("2006-01-02 15:04")),
					rec.ID, rec.ModelType, levelLabel(rec.Result.RiskLevel), rec.Result.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", envOr(common.EnvDataPath, ""), "prediction database directory (local mode)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show")
	return cmd
}
