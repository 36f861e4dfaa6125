package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/dataset"
	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
	"github.com/aryanshah2441/social-distancing-index/internal/store"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load vendor drops, aggregate hourly profiles, and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}
		ctx := cmd.Context()

		manifest, err := dataset.LoadManifest(cfg.Data.Manifest)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var saved int
		for _, source := range manifest.Sources {
			if ingestSource != "" && source.Name != ingestSource {
				continue
			}

			tables, err := loadSource(cmd, manifest.City, source)
			if err != nil {
				return eris.Wrapf(err, "load source %s", source.Name)
			}

			for _, table := range tables {
				profile, err := mobility.HourlyMean(table, source.Features)
				if err != nil {
					return eris.Wrapf(err, "aggregate %s %s",
						source.Name, table.Date.Format("2006-01-02"))
				}
				if err := st.SaveProfile(ctx, profile); err != nil {
					return err
				}
				saved++
			}

			zap.L().Info("source ingested",
				zap.String("source", source.Name),
				zap.Int("days", len(tables)))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d day profile(s)\n", saved)
		return nil
	},
}

func loadSource(cmd *cobra.Command, city string, source dataset.Source) ([]dataset.Table, error) {
	switch source.Kind {
	case dataset.KindDaily:
		return dataset.LoadDaily(cmd.Context(), source.Path, city, source.TileColumn)
	case dataset.KindPartitioned:
		return dataset.LoadPartitioned(cmd.Context(), source.Path, city, source.TileColumn)
	default:
		return nil, eris.Errorf("unknown source kind %q", source.Kind)
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "ingest only the named manifest source")
	rootCmd.AddCommand(ingestCmd)
}
