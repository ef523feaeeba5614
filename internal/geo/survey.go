package geo

import (
	"errors"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrTooFewCorners is returned when a polygon survey has fewer than three
// usable corner points.
var ErrTooFewCorners = errors.New("survey polygon needs at least 3 corners")

// SurveyPolygon builds a closed polygon from ordered corner coordinates.
// The ring is closed automatically; callers pass corners in the order the
// user gave them.
func SurveyPolygon(lats, lons []float64) (geom.Polygon, error) {
	if len(lats) < 3 || len(lats) != len(lons) {
		return geom.Polygon{}, ErrTooFewCorners
	}

	// Ring coordinates in lon/lat (X/Y) order, closed back to the start.
	coords := make([]float64, 0, (len(lats)+1)*2)
	for i := range lats {
		coords = append(coords, lons[i], lats[i])
	}
	coords = append(coords, lons[0], lats[0])

	seq := geom.NewSequence(coords, geom.DimXY)
	ring, err := geom.NewLineString(seq)
	if err != nil {
		return geom.Polygon{}, err
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, err
	}
	return poly, nil
}

// PolygonCentroid returns the centroid of a survey polygon as lat/lon, used
// as the display position of a polygon-mode survey item.
func PolygonCentroid(poly geom.Polygon) (lat, lon float64, ok bool) {
	centroid := poly.Centroid()
	xy, ok := centroid.XY()
	if !ok {
		return 0, 0, false
	}
	return xy.Y, xy.X, true
}
