package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nearmatch/internal/config"
	"nearmatch/internal/infra"
)

// rootOptions is shared by every subcommand. cfg and log are populated in
// PersistentPreRunE.
type rootOptions struct {
	logLevel string
	cfg      config.Config
	log      *zap.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nearmatch",
		Short:         "Proximity-triggered matchmaking engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			log, err := infra.NewLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override NEARMATCH_LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newScoreCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}
