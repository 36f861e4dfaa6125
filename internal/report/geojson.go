package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
	"github.com/aryanshah2441/social-distancing-index/internal/tile"
)

// WriteGeoJSON writes a FeatureCollection with one polygon feature per tile,
// carrying the per-tile daily feature means as properties.
func WriteGeoJSON(w io.Writer, profile mobility.DayProfile) error {
	summaries := Summarize(profile)

	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(summaries))}
	for _, summary := range summaries {
		bbox, err := tile.DecodeBBox(summary.TileID)
		if err != nil {
			return eris.Wrapf(err, "report: decode tile %s", summary.TileID)
		}

		props := map[string]any{
			"tile_id": summary.TileID,
			"samples": summary.Samples,
		}
		for feature, mean := range summary.Features {
			props[feature] = mean
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         summary.TileID,
			Geometry:   bbox.Polygon(),
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "report: marshal feature collection")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write geojson")
	}
	return nil
}
