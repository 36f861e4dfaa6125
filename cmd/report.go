package main

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/aryanshah2441/social-distancing-index/internal/report"
	"github.com/aryanshah2441/social-distancing-index/internal/store"
)

var (
	reportFormat string
	reportOut    string
	reportTile   string
)

var reportCmd = &cobra.Command{
	Use:   "report <city> [date]",
	Short: "Export a stored day profile or a tile's cross-date series",
	Long: "Exports the aggregated profile for a city and date (csv, xlsx, geojson, or shapefile), " +
		"or with --tile the full date series for one tile as csv.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		ctx := cmd.Context()
		city := args[0]

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
		if err != nil {
			return err
		}
		defer st.Close()

		if reportTile != "" {
			series, err := st.TileSeries(ctx, city, reportTile)
			if err != nil {
				return err
			}
			if len(series) == 0 {
				return eris.Errorf("no stored data for tile %s in %s", reportTile, city)
			}
			out, closeOut, err := openOut()
			if err != nil {
				return err
			}
			defer closeOut()
			return report.WriteSeriesCSV(out, series)
		}

		if len(args) < 2 {
			return eris.New("a date is required unless --tile is set")
		}
		date, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return eris.Wrapf(err, "parse date %q", args[1])
		}

		profile, err := st.GetProfile(ctx, city, date)
		if err != nil {
			return err
		}
		if profile == nil {
			return eris.Errorf("no stored profile for %s on %s", city, args[1])
		}

		if reportFormat == "shapefile" {
			if reportOut == "" {
				return eris.New("--out is required for shapefile export")
			}
			return report.WriteShapefile(reportOut, *profile)
		}

		out, closeOut, err := openOut()
		if err != nil {
			return err
		}
		defer closeOut()

		switch reportFormat {
		case "csv":
			return report.WriteCSV(out, *profile)
		case "xlsx":
			return report.WriteXLSX(out, *profile)
		case "geojson":
			return report.WriteGeoJSON(out, *profile)
		default:
			return eris.Errorf("unknown format %q (want csv, xlsx, geojson, or shapefile)", reportFormat)
		}
	},
}

// openOut returns the report destination, defaulting to stdout.
func openOut() (io.Writer, func(), error) {
	if reportOut == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(reportOut)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create output file")
	}
	return f, func() { f.Close() }, nil
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "csv", "output format: csv, xlsx, geojson, or shapefile")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (default stdout)")
	reportCmd.Flags().StringVar(&reportTile, "tile", "", "export the cross-date series for one tile id")
	rootCmd.AddCommand(reportCmd)
}
