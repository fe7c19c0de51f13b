package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-management-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		slog.Info("migrations applied", "driver", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
