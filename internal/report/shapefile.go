package report

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
	"github.com/aryanshah2441/social-distancing-index/internal/tile"
)

// WriteShapefile writes tile polygons with per-tile daily means as DBF
// attributes. The path names the .shp file; go-shp creates the .shx and .dbf
// siblings.
func WriteShapefile(path string, profile mobility.DayProfile) error {
	summaries := Summarize(profile)
	features := featureNames(summaries)

	writer, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrap(err, "report: create shapefile")
	}
	defer writer.Close()

	fields := []shp.Field{
		shp.StringField("TILE_ID", 32),
		shp.NumberField("SAMPLES", 12),
	}
	for _, feature := range features {
		fields = append(fields, shp.FloatField(dbfFieldName(feature), 18, 6))
	}
	if err := writer.SetFields(fields); err != nil {
		return eris.Wrap(err, "report: set attribute fields")
	}

	for i, summary := range summaries {
		bbox, err := tile.DecodeBBox(summary.TileID)
		if err != nil {
			return eris.Wrapf(err, "report: decode tile %s", summary.TileID)
		}
		writer.Write(tilePolygon(bbox))

		if err := writer.WriteAttribute(i, 0, summary.TileID); err != nil {
			return eris.Wrap(err, "report: write tile id attribute")
		}
		if err := writer.WriteAttribute(i, 1, summary.Samples); err != nil {
			return eris.Wrap(err, "report: write samples attribute")
		}
		for j, feature := range features {
			if err := writer.WriteAttribute(i, 2+j, summary.Features[feature]); err != nil {
				return eris.Wrapf(err, "report: write %s attribute", feature)
			}
		}
	}
	return nil
}

// tilePolygon builds a closed, clockwise ring; ESRI readers require that
// winding for outer rings.
func tilePolygon(bbox tile.BBox) *shp.Polygon {
	ring := []shp.Point{
		{X: bbox.MinLon, Y: bbox.MinLat},
		{X: bbox.MinLon, Y: bbox.MaxLat},
		{X: bbox.MaxLon, Y: bbox.MaxLat},
		{X: bbox.MaxLon, Y: bbox.MinLat},
		{X: bbox.MinLon, Y: bbox.MinLat},
	}
	return (*shp.Polygon)(shp.NewPolyLine([][]shp.Point{ring}))
}

// dbfFieldName fits an attribute name into DBF's 10-character uppercase
// limit.
func dbfFieldName(name string) string {
	upper := strings.ToUpper(name)
	if len(upper) > 10 {
		upper = upper[:10]
	}
	return upper
}
