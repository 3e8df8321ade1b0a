package commands

import (
	"github.com/spf13/cobra"

	"github.com/amaironohi/shop/internal/cli/ui"
	"github.com/amaironohi/shop/internal/store"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long:  "Create every table and index the shop needs. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			s, err := store.Open(ctx, store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(ctx); err != nil {
				ui.Error(cmd.ErrOrStderr(), "migration failed")
				return err
			}
			ui.Success(cmd.OutOrStdout(), "schema up to date (%s)", s.Dialect())
			return nil
		},
	}
}
