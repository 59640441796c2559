package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nearmatch/internal/infra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := infra.NewDB(ctx, opts.cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := infra.ApplyMigrationFile(ctx, db, path)
			if err != nil {
				return err
			}
			opts.log.Info("migration applied", zap.String("path", path), zap.Int("statements", n))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements from %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "migrations/0001_init.sql", "migration SQL path")
	return cmd
}
