package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeasurement(t *testing.T) {
	v, u := ParseMeasurement("150.0 feet", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 150.0, *v)
	assert.Equal(t, "feet", u)

	v, u = ParseMeasurement("500 ft", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 500.0, *v)
	assert.Equal(t, "feet", u)

	v, u = ParseMeasurement("2 miles", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 2.0, *v)
	assert.Equal(t, "miles", u)

	v, u = ParseMeasurement("1.5km", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 1.5, *v)
	assert.Equal(t, "kilometers", u)

	v, u = ParseMeasurement("3 nmi", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 3.0, *v)
	assert.Equal(t, "nautical_miles", u)
}

func TestParseMeasurement_BareNumberUsesDefault(t *testing.T) {
	v, u := ParseMeasurement("100", "feet")
	require.NotNil(t, v)
	assert.Equal(t, 100.0, *v)
	assert.Equal(t, "feet", u)
}

func TestParseMeasurement_UnknownUnitKeepsNumber(t *testing.T) {
	v, u := ParseMeasurement("150 xyz", "meters")
	require.NotNil(t, v)
	assert.Equal(t, 150.0, *v)
	assert.Equal(t, "meters", u)
}

func TestParseMeasurement_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "feet 100"} {
		v, u := ParseMeasurement(in, "meters")
		assert.Nil(t, v, "input %q", in)
		assert.Empty(t, u, "input %q", in)
	}
}

func TestParseValue(t *testing.T) {
	v, u := ParseValue(42.5, "ft")
	require.NotNil(t, v)
	assert.Equal(t, 42.5, *v)
	assert.Equal(t, "feet", u)
}

func TestParseCoordinates(t *testing.T) {
	lat, lon := ParseCoordinates("40.7128,-74.0060")
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 40.7128, *lat)
	assert.Equal(t, -74.0060, *lon)
}

func TestParseCoordinates_Labels(t *testing.T) {
	lat, lon := ParseCoordinates("lat: 40.7, lon: -74.0")
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 40.7, *lat)
	assert.Equal(t, -74.0, *lon)
}

func TestParseCoordinates_LoneNumberIsIncomplete(t *testing.T) {
	lat, lon := ParseCoordinates("40.7")
	require.NotNil(t, lat)
	assert.Nil(t, lon)
}

func TestParseCoordinates_Invalid(t *testing.T) {
	lat, lon := ParseCoordinates("not a coordinate")
	assert.Nil(t, lat)
	assert.Nil(t, lon)

	lat, lon = ParseCoordinates("")
	assert.Nil(t, lat)
	assert.Nil(t, lon)
}
