// Package units normalizes distance unit names and converts values between
// them via a common base unit (meters).
package units

import (
	"math"
	"sort"
	"strings"
)

// Canonical unit names. Meters is the base unit; all factors below are
// "meters per one of this unit".
const (
	Meters        = "meters"
	Feet          = "feet"
	Kilometers    = "kilometers"
	Miles         = "miles"
	NauticalMiles = "nautical_miles"
)

var toMeters = map[string]float64{
	Meters:        1.0,
	Feet:          0.3048,
	Kilometers:    1000.0,
	Miles:         1609.344,
	NauticalMiles: 1852.0,
}

var aliases = map[string]string{
	"meter": Meters,
	"m":     Meters,

	"foot": Feet,
	"ft":   Feet,
	"'":    Feet,

	"kilometer": Kilometers,
	"km":        Kilometers,
	"kms":       Kilometers,

	"mile": Miles,
	"mi":   Miles,
	"mil":  Miles,

	"nautical_mile": NauticalMiles,
	"nauticalmiles": NauticalMiles,
	"nm":            NauticalMiles,
	"nmi":           NauticalMiles,
}

// Normalize maps a free-form unit string onto its canonical name. Empty and
// unrecognized strings normalize to meters so that downstream math never
// fails on a bad unit.
func Normalize(unit string) string {
	if unit == "" {
		return Meters
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if _, ok := toMeters[u]; ok {
		return u
	}
	if canonical, ok := aliases[u]; ok {
		return canonical
	}
	return Meters
}

// ConversionFactor returns the multiplier that converts a value in from into
// a value in to. Both unit names are normalized first.
func ConversionFactor(from, to string) float64 {
	f := Normalize(from)
	t := Normalize(to)
	if f == t {
		return 1.0
	}
	return toMeters[f] / toMeters[t]
}

// Convert converts value from one unit to another, rounding to 6 decimal
// places to suppress floating-point artifacts. Conversion never fails; both
// unit arguments fall back to meters when unrecognized.
func Convert(value float64, from, to string) float64 {
	result := value * ConversionFactor(from, to)
	return round6(result)
}

// ToMeters converts value from the given unit into meters.
func ToMeters(value float64, from string) float64 {
	return Convert(value, from, Meters)
}

// FromMeters converts a meter value into the given unit.
func FromMeters(value float64, to string) float64 {
	return Convert(value, Meters, to)
}

// IsValid reports whether the unit string is recognized. The empty string is
// valid because it defaults to meters.
func IsValid(unit string) bool {
	if unit == "" {
		return true
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if _, ok := toMeters[u]; ok {
		return true
	}
	_, ok := aliases[u]
	return ok
}

// Supported returns the sorted list of canonical unit names and aliases.
func Supported() []string {
	out := make([]string, 0, len(toMeters)+len(aliases))
	for u := range toMeters {
		out = append(out, u)
	}
	for a := range aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
