// Package geo computes absolute coordinates from relative positioning
// descriptions. Projections use a spherical earth model, which is accurate
// to well under a meter over the distances a small UAS mission covers.
package geo

import (
	"math"
	"strings"

	"github.com/scferro/px4-agent/internal/units"
)

// EarthRadiusMeters is the equatorial earth radius used for the spherical
// destination-point projection.
const EarthRadiusMeters = 6378137.0

// bearings maps the 8-point compass onto bearings in degrees, north = 0,
// clockwise in 45 degree steps.
var bearings = map[string]float64{
	"north":     0,
	"northeast": 45,
	"east":      90,
	"southeast": 135,
	"south":     180,
	"southwest": 225,
	"west":      270,
	"northwest": 315,

	"n":  0,
	"ne": 45,
	"e":  90,
	"se": 135,
	"s":  180,
	"sw": 225,
	"w":  270,
	"nw": 315,
}

// BearingDegrees maps a compass direction name onto a bearing in degrees.
// Unrecognized headings reduce to 0 (north); a garbage heading is a soft
// default, not an error.
func BearingDegrees(heading string) float64 {
	if b, ok := bearings[strings.ToLower(strings.TrimSpace(heading))]; ok {
		return b
	}
	return 0
}

// IsKnownHeading reports whether the heading names one of the 8 compass
// directions (long or short form).
func IsKnownHeading(heading string) bool {
	_, ok := bearings[strings.ToLower(strings.TrimSpace(heading))]
	return ok
}

// DestinationPoint projects a destination latitude/longitude from a
// reference point, a distance in the given units, and a compass heading
// name. The projection is the standard spherical destination-point formula.
// It is deterministic and has no failure path.
func DestinationPoint(refLat, refLon, distance float64, heading, distanceUnits string) (lat, lon float64) {
	distMeters := units.ToMeters(distance, distanceUnits)
	bearing := BearingDegrees(heading) * math.Pi / 180

	angular := distMeters / EarthRadiusMeters
	latRad := refLat * math.Pi / 180
	lonRad := refLon * math.Pi / 180

	newLat := math.Asin(
		math.Sin(latRad)*math.Cos(angular) +
			math.Cos(latRad)*math.Sin(angular)*math.Cos(bearing))
	newLon := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLat))

	return newLat * 180 / math.Pi, newLon * 180 / math.Pi
}
