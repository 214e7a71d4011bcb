package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"lexiq-backend/internal/config"
	"lexiq-backend/internal/db"
	"lexiq-backend/pkg/logging"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "lexiq",
	Short: "English proficiency testing API",
	Long:  "Lexiq serves adaptive CEFR English tests: diagnostic placement, progression and level upgrades.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.xml", "Path to the XML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration, sets up logging and connects to the
// database. The caller closes the returned connection.
func bootstrap(cmd *cobra.Command) (*config.APIConfig, *gorm.DB, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	err = logger.Setup(logger.Options{
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.InitDBFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.Initialize {
		if err := db.Migrate(conn); err != nil {
			_ = db.Close(conn)
			return nil, nil, err
		}
	}
	return cfg, conn, nil
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("LEXIQ", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("LEXIQ English Test API (v%s)\n\n", version)
}
