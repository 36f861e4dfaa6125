// Package tile implements the hierarchical hexadecimal tile addressing
// scheme used by mobility data vendors. A tile id is a hex string whose
// first four digits identify a 1°x1° base cell and whose remaining digits
// each encode one quadtree subdivision step, so a level-L tile spans
// 1/4^L degrees in both axes.
//
// Encoding floors fixed-precision fractions, so a point that sits within
// floating-point rounding distance of a tile boundary may land in either
// neighboring tile at fine levels. That is inherent to the scheme and is
// not corrected here.
package tile

import (
	"math"

	"github.com/rotisserie/eris"
)

// MaxLevel is the deepest supported subdivision level. At MaxLevel each
// fractional offset is a 2*MaxLevel = 56 bit integer, which keeps the
// packing arithmetic inside a uint64 and 4^level exactly representable
// as a float64.
const MaxLevel = 28

var (
	// ErrInvalidLevel is returned by Encode for a level outside [0, MaxLevel].
	ErrInvalidLevel = eris.New("tile: invalid level")

	// ErrInvalidTileID is returned when a tile id is malformed: shorter than
	// the four-digit whole field, ends deeper than MaxLevel, or contains
	// non-hexadecimal characters.
	ErrInvalidTileID = eris.New("tile: invalid tile id")

	// ErrCoordinateRange is returned by Encode for non-finite coordinates or
	// coordinates outside the addressable grid (lat in [-90,90), lon in
	// [-180,180)).
	ErrCoordinateRange = eris.New("tile: coordinate out of range")
)

const hexUpper = "0123456789ABCDEF"

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is the rectangular extent of a tile.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Corners returns the corner points as a closed rectangular path starting
// at the southwest corner and proceeding counter-clockwise: SW, SE, NE, NW.
func (b BBox) Corners() [4]Point {
	return [4]Point{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MinLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MinLon},
	}
}

// Contains reports whether p lies inside the box. The southern and western
// edges are inclusive, matching the floor semantics of Encode.
func (b BBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat < b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon < b.MaxLon
}

// Width returns the longitude extent in degrees.
func (b BBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitude extent in degrees.
func (b BBox) Height() float64 { return b.MaxLat - b.MinLat }

// Encode returns the id of the level-L tile containing the given point.
// The result has level+4 uppercase hex digits and is deterministic:
// identical inputs always produce byte-identical ids.
func Encode(lat, lon float64, level int) (string, error) {
	if level < 0 || level > MaxLevel {
		return "", eris.Wrapf(ErrInvalidLevel, "level %d not in [0, %d]", level, MaxLevel)
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return "", eris.Wrapf(ErrCoordinateRange, "non-finite coordinate (%v, %v)", lat, lon)
	}
	if lat < -90 || lat >= 90 || lon < -180 || lon >= 180 {
		return "", eris.Wrapf(ErrCoordinateRange, "coordinate (%v, %v)", lat, lon)
	}

	// The whole field indexes the 1x1 degree base cell: 180 latitude rows of
	// 360 cells each.
	whole := 360*int(math.Floor(90+lat)) + int(math.Floor(180+lon))

	// Fractional offsets within the base cell at full resolution. Each is a
	// 2*level bit unsigned integer; the mask discards a carry produced when
	// a fraction infinitesimally below 1.0 rounds up to 1.0.
	div := uint64(1) << (2 * uint(level))
	latFrac := uint64((lat-math.Floor(lat))*float64(div)) & (div - 1)
	lonFrac := uint64((lon-math.Floor(lon))*float64(div)) & (div - 1)

	buf := make([]byte, level+4)
	for i, w := 3, whole; i >= 0; i-- {
		buf[i] = hexUpper[w&15]
		w >>= 4
	}
	// Consume the low-order (deepest) bit pairs first; they fill the lowest
	// nibble of the fractional field, i.e. the last character of the id.
	for i := level + 3; i >= 4; i-- {
		buf[i] = hexUpper[(latFrac&3)<<2|lonFrac&3]
		latFrac >>= 2
		lonFrac >>= 2
	}
	return string(buf), nil
}

// DecodeBBox returns the rectangular extent of the tile identified by id.
func DecodeBBox(id string) (BBox, error) {
	wholeLat, wholeLon, latFrac, lonFrac, level, err := unpack(id)
	if err != nil {
		return BBox{}, err
	}
	div := float64(uint64(1) << (2 * uint(level)))
	return BBox{
		MinLat: float64(wholeLat) + float64(latFrac)/div,
		MinLon: float64(wholeLon) + float64(lonFrac)/div,
		MaxLat: float64(wholeLat) + (float64(latFrac)+1)/div,
		MaxLon: float64(wholeLon) + (float64(lonFrac)+1)/div,
	}, nil
}

// DecodeCentroid returns the center point of the tile identified by id.
func DecodeCentroid(id string) (Point, error) {
	wholeLat, wholeLon, latFrac, lonFrac, level, err := unpack(id)
	if err != nil {
		return Point{}, err
	}
	div := float64(uint64(1) << (2 * uint(level)))
	return Point{
		Lat: float64(wholeLat) + (float64(latFrac)+0.5)/div,
		Lon: float64(wholeLon) + (float64(lonFrac)+0.5)/div,
	}, nil
}

// Level returns the subdivision level encoded in id.
func Level(id string) (int, error) {
	_, _, _, _, level, err := unpack(id)
	if err != nil {
		return 0, err
	}
	return level, nil
}

// Parent returns the id of the tile one level up that contains id.
func Parent(id string) (string, error) {
	level, err := Level(id)
	if err != nil {
		return "", err
	}
	if level == 0 {
		return "", eris.Errorf("tile: level 0 tile %q has no parent", id)
	}
	return id[:len(id)-1], nil
}

// Ancestor returns the containing tile of id at the given coarser level.
// Truncating the fractional field preserves containment: the result is the
// unique level-L ancestor whose extent covers id.
func Ancestor(id string, level int) (string, error) {
	idLevel, err := Level(id)
	if err != nil {
		return "", err
	}
	if level < 0 || level > idLevel {
		return "", eris.Wrapf(ErrInvalidLevel, "ancestor level %d not in [0, %d]", level, idLevel)
	}
	return id[:level+4], nil
}

// unpack splits a tile id into its base cell coordinates and fractional
// quadrant offsets. Both DecodeBBox and DecodeCentroid build on it so the
// bit arithmetic cannot diverge between them.
func unpack(id string) (wholeLat, wholeLon int, latFrac, lonFrac uint64, level int, err error) {
	if len(id) < 4 {
		err = eris.Wrapf(ErrInvalidTileID, "id %q shorter than whole field", id)
		return
	}
	level = len(id) - 4
	if level > MaxLevel {
		err = eris.Wrapf(ErrInvalidTileID, "id %q deeper than level %d", id, MaxLevel)
		return
	}

	var whole uint64
	for i := 0; i < 4; i++ {
		v, ok := hexVal(id[i])
		if !ok {
			err = eris.Wrapf(ErrInvalidTileID, "id %q has non-hex digit %q", id, id[i])
			return
		}
		whole = whole<<4 | uint64(v)
	}
	wholeLat = int(whole/360) - 90
	wholeLon = int(whole%360) - 180

	// Fractional digits from least to most significant: the last character
	// holds the deepest subdivision and contributes the lowest bit pair,
	// mirroring the placement used by Encode.
	for k := 0; k < level; k++ {
		v, ok := hexVal(id[len(id)-1-k])
		if !ok {
			err = eris.Wrapf(ErrInvalidTileID, "id %q has non-hex digit %q", id, id[len(id)-1-k])
			return
		}
		latFrac |= uint64(v>>2) << (2 * uint(k))
		lonFrac |= uint64(v&3) << (2 * uint(k))
	}
	return
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
