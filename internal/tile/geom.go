package tile

import "github.com/twpayne/go-geom"

// Polygon converts the box to a go-geom polygon in lon/lat (x/y) order with
// a closed counter-clockwise exterior ring, SRID 4326.
func (b BBox) Polygon() *geom.Polygon {
	c := b.Corners()
	flat := []float64{
		c[0].Lon, c[0].Lat,
		c[1].Lon, c[1].Lat,
		c[2].Lon, c[2].Lat,
		c[3].Lon, c[3].Lat,
		c[0].Lon, c[0].Lat,
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
}

// Geom converts the point to a go-geom point in lon/lat order, SRID 4326.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(4326)
}
