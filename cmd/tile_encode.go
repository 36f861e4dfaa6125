package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/aryanshah2441/social-distancing-index/internal/tile"
)

var (
	encodeLevel   int
	encodeGeoJSON bool
)

var tileEncodeCmd = &cobra.Command{
	Use:   "encode <lat> <lon>",
	Short: "Encode a coordinate to a tile id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "parse latitude %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "parse longitude %q", args[1])
		}

		id, err := tile.Encode(lat, lon, encodeLevel)
		if err != nil {
			return err
		}

		if !encodeGeoJSON {
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}

		bbox, err := tile.DecodeBBox(id)
		if err != nil {
			return err
		}
		return printFeature(cmd, id, bbox)
	},
}

// printFeature writes a tile's footprint as a single GeoJSON feature.
func printFeature(cmd *cobra.Command, id string, bbox tile.BBox) error {
	feature := geojson.Feature{
		ID:         id,
		Geometry:   bbox.Polygon(),
		Properties: map[string]any{"tile_id": id, "level": len(id) - 4},
	}
	data, err := feature.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "marshal feature")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	tileEncodeCmd.Flags().IntVar(&encodeLevel, "level", 0, "subdivision level (0-28)")
	tileEncodeCmd.Flags().BoolVar(&encodeGeoJSON, "geojson", false, "print the tile footprint as GeoJSON")
	tileCmd.AddCommand(tileEncodeCmd)
}
