package main

import (
	"github.com/spf13/cobra"

	"lexiq-backend/internal/db"
	"lexiq-backend/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer db.Close(conn)
		defer logger.Close()

		if err := db.Migrate(conn); err != nil {
			return err
		}
		logger.Info("schema is up to date")
		return nil
	},
}
