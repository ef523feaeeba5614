package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scferro/px4-agent/internal/geo"
)

var testOrigin = Origin{Latitude: 40.7128, Longitude: -74.0060}

func TestResolvePositions_ChainsThroughRelativeItems(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandTakeoff})
	m.Append(&Item{
		Command: CommandWaypoint, Distance: Float(1), DistanceUnits: "miles",
		Heading: "north", Frame: FrameLastWaypoint,
	})
	m.Append(&Item{
		Command: CommandWaypoint, Distance: Float(1), DistanceUnits: "miles",
		Heading: "north", Frame: FrameLastWaypoint,
	})

	positions := m.ResolvePositions(testOrigin)
	require.Len(t, positions, 3)
	require.NotNil(t, positions[0])
	require.NotNil(t, positions[1])
	require.NotNil(t, positions[2])

	// Takeoff resolves to the origin; each waypoint steps a mile further
	// north of the previously resolved point, not the raw prior item.
	assert.Equal(t, testOrigin.Latitude, positions[0].Lat)
	assert.Greater(t, positions[1].Lat, positions[0].Lat)
	assert.Greater(t, positions[2].Lat, positions[1].Lat)

	step1 := positions[1].Lat - positions[0].Lat
	step2 := positions[2].Lat - positions[1].Lat
	assert.InDelta(t, step1, step2, 1e-6)
}

func TestResolvePositions_OriginFrame(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandTakeoff})
	m.Append(&Item{Command: CommandWaypoint, Latitude: Float(41.0), Longitude: Float(-73.0)})
	m.Append(&Item{
		Command: CommandLoiter, Distance: Float(500), DistanceUnits: "meters",
		Heading: "east", Frame: FrameOrigin,
	})

	positions := m.ResolvePositions(testOrigin)
	wantLat, wantLon := geo.DestinationPoint(testOrigin.Latitude, testOrigin.Longitude, 500, "east", "meters")
	require.NotNil(t, positions[2])
	assert.InDelta(t, wantLat, positions[2].Lat, 1e-12)
	assert.InDelta(t, wantLon, positions[2].Lon, 1e-12)
}

func TestResolvePositions_LastWaypointFallsBackToOrigin(t *testing.T) {
	m := New()
	m.Append(&Item{
		Command: CommandWaypoint, Distance: Float(100), DistanceUnits: "meters",
		Heading: "east", Frame: FrameLastWaypoint,
	})
	positions := m.ResolvePositions(testOrigin)
	require.NotNil(t, positions[0])
	assert.Greater(t, positions[0].Lon, testOrigin.Longitude)
}

func TestResolvePositions_RTLAndMGRSUnresolved(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandWaypoint, MGRS: "11SMT1234567890"})
	m.Append(&Item{Command: CommandRTL})
	positions := m.ResolvePositions(testOrigin)
	assert.Nil(t, positions[0])
	assert.Nil(t, positions[1])
}

func TestResolvePositions_PolygonSurveyCentroid(t *testing.T) {
	m := New()
	m.Append(&Item{
		Command:    CommandSurvey,
		SurveyMode: SurveyPolygon,
		Corners: []Corner{
			{Latitude: Float(40.0), Longitude: Float(-74.0)},
			{Latitude: Float(40.0), Longitude: Float(-73.0)},
			{Latitude: Float(41.0), Longitude: Float(-73.0)},
			{Latitude: Float(41.0), Longitude: Float(-74.0)},
		},
	})
	positions := m.ResolvePositions(testOrigin)
	require.NotNil(t, positions[0])
	assert.InDelta(t, 40.5, positions[0].Lat, 1e-9)
	assert.InDelta(t, -73.5, positions[0].Lon, 1e-9)
}

func TestResolvePositions_SelfWithoutCoordinatesUnresolved(t *testing.T) {
	m := New()
	m.Append(&Item{
		Command: CommandWaypoint, Distance: Float(2), DistanceUnits: "miles",
		Heading: "west", Frame: FrameSelf,
	})
	positions := m.ResolvePositions(testOrigin)
	assert.Nil(t, positions[0])
}

func TestLastNavPosition(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandTakeoff, Latitude: Float(40.0), Longitude: Float(-74.0)})
	m.Append(&Item{Command: CommandWaypoint, Distance: Float(1), Heading: "north"})
	m.Append(&Item{Command: CommandLoiter, Latitude: Float(41.0), Longitude: Float(-73.0)})
	m.Append(&Item{Command: CommandRTL})

	// Relative-only waypoint is skipped; RTL never anchors.
	pos := m.LastNavPosition(2)
	require.NotNil(t, pos)
	assert.Equal(t, 40.0, pos.Lat)

	pos = m.LastNavPosition(4)
	require.NotNil(t, pos)
	assert.Equal(t, 41.0, pos.Lat)

	assert.Nil(t, m.LastNavPosition(0))
}

func TestLastNavAltitude(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandTakeoff, Altitude: Float(50), AltitudeUnits: "meters"})
	m.Append(&Item{Command: CommandWaypoint})
	alt, units := m.LastNavAltitude(2)
	require.NotNil(t, alt)
	assert.Equal(t, 50.0, *alt)
	assert.Equal(t, "meters", units)

	alt, _ = m.LastNavAltitude(0)
	assert.Nil(t, alt)
}

func TestTakeoffAltitude(t *testing.T) {
	m := New()
	m.Append(&Item{Command: CommandWaypoint, Altitude: Float(100)})
	alt, _ := m.TakeoffAltitude()
	assert.Nil(t, alt)

	m.InsertAt(&Item{Command: CommandTakeoff, Altitude: Float(60), AltitudeUnits: "feet"}, 1)
	alt, units := m.TakeoffAltitude()
	require.NotNil(t, alt)
	assert.Equal(t, 60.0, *alt)
	assert.Equal(t, "feet", units)
}
