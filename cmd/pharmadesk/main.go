package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pharmadesk/m/internal/config"
	"pharmadesk/m/internal/logging"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pharmadesk",
	Short: "Pharmacy back office: onboarding, inventory, customers and sales",
	Long: `pharmadesk serves the pharmacy back-office API.

Configuration comes from the environment; a .env file in the working
directory is loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	reportCmd.Flags().Bool("summary", false, "print the reports summary instead of the dashboard")
	reportCmd.Flags().Int("days", 0, "days of daily sales in the summary (default 7)")
	reportCmd.Flags().Int("top", 0, "number of top sellers in the summary (default 5)")

	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
