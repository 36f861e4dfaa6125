package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBox_Polygon(t *testing.T) {
	bbox, err := DecodeBBox("7F44")
	require.NoError(t, err)

	poly := bbox.Polygon()
	assert.Equal(t, 4326, poly.SRID())

	flat := poly.FlatCoords()
	require.Len(t, flat, 10)

	// Closed ring: first pair equals last pair, lon/lat order.
	assert.Equal(t, flat[0], flat[8])
	assert.Equal(t, flat[1], flat[9])
	assert.Equal(t, bbox.MinLon, flat[0])
	assert.Equal(t, bbox.MinLat, flat[1])
}

func TestPoint_Geom(t *testing.T) {
	centroid, err := DecodeCentroid("7F44")
	require.NoError(t, err)

	pt := centroid.Geom()
	assert.Equal(t, 4326, pt.SRID())
	assert.Equal(t, centroid.Lon, pt.X())
	assert.Equal(t, centroid.Lat, pt.Y())
}
