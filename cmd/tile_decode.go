package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryanshah2441/social-distancing-index/internal/tile"
)

var (
	decodeCentroid bool
	decodeGeoJSON  bool
)

var tileDecodeCmd = &cobra.Command{
	Use:   "decode <tile-id>",
	Short: "Decode a tile id to its bounding box or centroid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		if decodeCentroid {
			center, err := tile.DecodeCentroid(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g %g\n", center.Lat, center.Lon)
			return nil
		}

		bbox, err := tile.DecodeBBox(id)
		if err != nil {
			return err
		}

		if decodeGeoJSON {
			return printFeature(cmd, id, bbox)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "min %g %g max %g %g\n",
			bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
		return nil
	},
}

func init() {
	tileDecodeCmd.Flags().BoolVar(&decodeCentroid, "centroid", false, "print the cell center instead of the bounding box")
	tileDecodeCmd.Flags().BoolVar(&decodeGeoJSON, "geojson", false, "print the tile footprint as GeoJSON")
	tileCmd.AddCommand(tileDecodeCmd)
}
