package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "estimator",
	Short: "Construction cost estimation from quantity takeoffs",
	Long:  "Prices takeoff line items through labor productivity tables and vendor catalogs, cascades phase contingency, overhead, and profit, and rolls costs up by phase, trade, room, and cost class.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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
