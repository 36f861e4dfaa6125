package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sdi",
	Short: "Social distancing index toolkit",
	Long:  "Encodes coordinates to hierarchical hex tiles, ingests vendor mobility drops, aggregates hourly activity profiles, and serves and exports the results.",
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
