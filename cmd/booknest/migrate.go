// cmd/booknest/migrate.go
package main

import (
	"github.com/spf13/cobra"

	"booknest/internal/platform/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Open(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Infow("Schema applied")
		return nil
	},
}
