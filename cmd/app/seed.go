package main

import (
	"github.com/spf13/cobra"

	"lexiq-backend/internal/db"
	"lexiq-backend/internal/repository"
	"lexiq-backend/internal/seed"
	"lexiq-backend/pkg/logging"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in question bank",
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
		force, _ := cmd.Flags().GetBool("force")
		n, err := seed.Seed(cmd.Context(), repository.NewStore(conn), force)
		if err != nil {
			return err
		}
		logger.Info("seed finished, %d questions inserted", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("force", false, "Insert the catalog even if the bank already has questions")
}
