package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cardiorisk/internal/common"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// options are the persistent flags shared by every subcommand.
type options struct {
	server       string
	modelsDir    string
	modelVersion string
	logLevel     string
	jsonOutput   bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Cardiometabolic risk predictions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			common.SetupLogging(opts.logLevel, true)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.server, "server", "s", os.Getenv(common.EnvServerURL), "risk API base URL; empty runs the engine locally")
	flags.StringVar(&opts.modelsDir, "models-dir", envOr(common.EnvModelsDir, common.DefaultModelsDir), "model artifact root (local mode)")
	flags.StringVar(&opts.modelVersion, "model-version", envOr(common.EnvModelVersion, common.DefaultModelVersion), "artifact version directory (local mode)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print raw JSON")

	root.AddCommand(newPredictCommand(opts))
	root.AddCommand(newModelCommand(opts))
	root.AddCommand(newHistoryCommand(opts))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
