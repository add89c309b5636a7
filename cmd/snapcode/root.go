package main

import (
	"github.com/spf13/cobra"

	"github.com/faeln1/snapcode/internal/app/bootstrap"
	"github.com/faeln1/snapcode/internal/config"
	"github.com/faeln1/snapcode/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "snapcode",
		Short:         "Generate and decode QR codes from the command line.",
		Long:          "snapcode renders URLs, text and contact cards as QR codes and reads codes back from image files, using the same render tiers and decode strategies as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error (default LOG_LEVEL or warn)")

	root.AddCommand(newGenerateCmd(), newDecodeCmd())
	return root
}

// pipelineFor loads the environment configuration and builds the pipeline.
func pipelineFor(cmd *cobra.Command) (*bootstrap.Pipeline, error) {
	cfg := config.Load()
	level, _ := cmd.Flags().GetString("loglevel")
	if level == "" {
		level = "WARN"
	}
	log := logger.New(level)
	return bootstrap.NewPipeline(cfg, log.Component("Pipeline"))
}
