// Package parsing extracts measurements and coordinate pairs from the
// free-form strings a language model produces. All helpers are fail-soft:
// unparseable input yields nil results, never an error.
package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scferro/px4-agent/internal/units"
)

// measurementRe matches a leading numeric token followed by optional unit
// text, e.g. "150", "150.5 feet", "2miles".
var measurementRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(.*)$`)

// unitPatterns map trailing unit phrases onto canonical unit names. Ordered
// with the most common phrases first.
var unitPatterns = []struct {
	re   *regexp.Regexp
	unit string
}{
	{regexp.MustCompile(`(?i)^(feet|ft|foot|')$`), units.Feet},
	{regexp.MustCompile(`(?i)^(meters?|m)$`), units.Meters},
	{regexp.MustCompile(`(?i)^(miles?|mi)$`), units.Miles},
	{regexp.MustCompile(`(?i)^(kilometers?|km|kms?)$`), units.Kilometers},
	{regexp.MustCompile(`(?i)^(nautical[_ ]?miles?|nm|nmi)$`), units.NauticalMiles},
}

// ParseMeasurement parses a measurement string into a value and a canonical
// unit name. A bare number takes defaultUnit; a recognized trailing unit
// phrase overrides it; an unrecognized phrase keeps the number and falls back
// to defaultUnit rather than discarding a valid value. Empty or unparseable
// input returns (nil, "").
func ParseMeasurement(text, defaultUnit string) (*float64, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ""
	}

	m := measurementRe.FindStringSubmatch(text)
	if m == nil {
		return nil, ""
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, ""
	}

	unitText := strings.ToLower(strings.TrimSpace(m[2]))
	if unitText == "" {
		return &value, units.Normalize(defaultUnit)
	}
	for _, p := range unitPatterns {
		if p.re.MatchString(unitText) {
			return &value, p.unit
		}
	}
	// Unit text present but unrecognized: keep the number, use the default.
	return &value, units.Normalize(defaultUnit)
}

// ParseValue wraps an already-numeric input, pairing it with the default
// unit the way ParseMeasurement does for bare numbers.
func ParseValue(value float64, defaultUnit string) (*float64, string) {
	return &value, units.Normalize(defaultUnit)
}

// ParseAltitude parses an altitude measurement, defaulting to meters.
func ParseAltitude(text string) (*float64, string) {
	return ParseMeasurement(text, units.Meters)
}

// ParseDistance parses a distance measurement, defaulting to meters.
func ParseDistance(text string) (*float64, string) {
	return ParseMeasurement(text, units.Meters)
}

// ParseRadius parses a radius measurement, defaulting to meters.
func ParseRadius(text string) (*float64, string) {
	return ParseMeasurement(text, units.Meters)
}

var coordLabelRe = regexp.MustCompile(`(?i)(lat|latitude|lon|lng|longitude)\s*[:=]\s*`)

// ParseCoordinates parses a "lat,lon" pair, tolerating "lat: 40.7, lon: -74"
// style labels. A lone number yields (lat, nil), an incomplete pair that
// callers treat as a parse failure. Unparseable input returns (nil, nil).
func ParseCoordinates(text string) (*float64, *float64) {
	text = strings.TrimSpace(coordLabelRe.ReplaceAllString(text, ""))
	if text == "" {
		return nil, nil
	}

	parts := strings.Split(text, ",")
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, nil
	}
	if len(parts) < 2 {
		return &lat, nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return &lat, nil
	}
	return &lat, &lon
}
