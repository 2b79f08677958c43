package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnemet/gridview/logging"
)

type rootOptions struct {
	config   string
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "gridctl",
		Short:         "Render data grids on the console",
		Long:          `Render sorted, filtered and paged data grids from YAML or JSON files, and export the last view as CSV, Excel or PDF.`,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = logging.New(cmd.ErrOrStderr(), opts.logLevel, logging.FormatText)
			slog.SetDefault(opts.logger)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "options file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	cmd.AddCommand(newRenderCmd(opts))
	return cmd
}
