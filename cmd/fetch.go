package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/dataset"
	"github.com/aryanshah2441/social-distancing-index/internal/resilience"
)

var (
	fetchDropURL string
	fetchDest    string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror the vendor FTP drop into the local data tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil && fetchDropURL == "" {
			return err
		}

		dropURL := fetchDropURL
		if dropURL == "" {
			dropURL = cfg.Fetch.DropURL
		}
		dest := fetchDest
		if dest == "" {
			dest = cfg.Data.Root
		}

		opts := dataset.MirrorOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			Retry: resilience.RetryConfig{
				MaxAttempts: cfg.Fetch.MaxRetries,
			},
		}

		downloaded, err := dataset.Mirror(cmd.Context(), dropURL, dest, opts)
		if err != nil {
			return err
		}

		zap.L().Info("mirror complete",
			zap.String("drop", dropURL),
			zap.Int("downloaded", downloaded))
		fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d file(s) to %s\n", downloaded, dest)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDropURL, "drop-url", "", "FTP drop URL (default from config)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "destination directory (default data.root)")
	rootCmd.AddCommand(fetchCmd)
}
