package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "company-lookup",
	Short: "Japanese company metadata lookup service",
	Long:  "Resolves company names to postal code, address, and representative via web search and model-backed extraction, with batch progress streaming and CSV/XLSX export.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is how the original deployment was configured; missing is fine.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
