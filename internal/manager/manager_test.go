package manager

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scferro/px4-agent/internal/config"
	"github.com/scferro/px4-agent/internal/geo"
	"github.com/scferro/px4-agent/internal/model"
	"github.com/scferro/px4-agent/internal/validator"
)

const (
	homeLat = 47.397971
	homeLon = 8.546164
)

func testSettings() config.Agent {
	s := config.DefaultAgent()
	s.TakeoffLatitude = homeLat
	s.TakeoffLongitude = homeLon
	return s
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := New(logger, testSettings(), validator.ModeMission)
	require.NoError(t, err)
	return m
}

func commands(m *model.Mission) []model.CommandType {
	out := make([]model.CommandType, len(m.Items))
	for i, it := range m.Items {
		out[i] = it.Command
	}
	return out
}

func assertSequences(t *testing.T, m *model.Mission) {
	t.Helper()
	for i, it := range m.Items {
		assert.Equal(t, i, it.Sequence, "item %d sequence", i)
	}
}

func TestLifecycle(t *testing.T) {
	m := newTestManager(t)

	assert.False(t, m.HasMission())
	assert.Nil(t, m.GetMission())
	assert.False(t, m.ClearMission())

	mission := m.CreateMission()
	require.NotNil(t, mission)
	assert.True(t, m.HasMission())
	assert.Same(t, mission, m.GetMission())

	assert.True(t, m.ClearMission())
	assert.False(t, m.HasMission())
}

func TestAddTakeoff_AlwaysFirst(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddWaypoint(WaypointParams{Altitude: model.Float(100)})
	require.NoError(t, err)

	res, err := m.AddTakeoff(TakeoffParams{Altitude: model.Float(40), Heading: "east"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Item.Sequence)

	mission := m.GetMission()
	assert.Equal(t, []model.CommandType{model.CommandTakeoff, model.CommandWaypoint}, commands(mission))
	assertSequences(t, mission)
}

func TestAddRTL_AlwaysLast(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)
	res, err := m.AddRTL(RTLParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Item.Sequence)

	// A waypoint added afterwards displaces the RTL, which the validator
	// moves back to the end.
	res, err = m.AddWaypoint(WaypointParams{})
	require.NoError(t, err)
	assert.Contains(t, res.Fixes, "Moved RTL command to the end of mission")
	assert.Equal(t,
		[]model.CommandType{model.CommandTakeoff, model.CommandWaypoint, model.CommandRTL},
		commands(m.GetMission()))
}

func TestSecondTakeoff_RollsBack(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddTakeoff(TakeoffParams{Altitude: model.Float(50)})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{Altitude: model.Float(100)})
	require.NoError(t, err)

	before := m.GetMission().ToMap()

	_, err = m.AddTakeoff(TakeoffParams{Altitude: model.Float(60)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takeoff commands")

	// The mission is identical to its pre-mutation state.
	assert.Equal(t, before, m.GetMission().ToMap())
	assertSequences(t, m.GetMission())
}

func TestCommandMode_SingleCommandOnly(t *testing.T) {
	m := newTestManager(t)
	m.SetMode(validator.ModeCommand)

	_, err := m.AddWaypoint(WaypointParams{Altitude: model.Float(100)})
	require.NoError(t, err)

	_, err = m.AddLoiter(LoiterParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single command")
	assert.Equal(t, 1, m.GetMission().Len())
}

func TestUpdateItem_ClearsCompetingPositionGroups(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(40.0), Longitude: model.Float(-74.0)},
	})
	require.NoError(t, err)

	// Switching to a relative description drops the absolute coordinates.
	frame := model.FrameLastWaypoint
	res, err := m.UpdateItem(2, UpdateParams{
		Distance: model.Float(250),
		Heading:  model.String("north"),
		Frame:    &frame,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Changes)

	wp := m.GetMission().Items[1]
	assert.Nil(t, wp.Latitude)
	assert.Nil(t, wp.Longitude)
	require.NotNil(t, wp.Distance)
	assert.Equal(t, 250.0, *wp.Distance)
	assert.Equal(t, model.FrameLastWaypoint, wp.Frame)

	// And back again: absolute coordinates drop the relative description.
	_, err = m.UpdateItem(2, UpdateParams{
		Latitude:  model.Float(41.0),
		Longitude: model.Float(-75.0),
	})
	require.NoError(t, err)
	assert.Nil(t, wp.Distance)
	assert.Equal(t, 41.0, *wp.Latitude)
}

func TestUpdateItem_CapabilityViolations(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{})
	require.NoError(t, err)

	// Takeoff cannot be positioned.
	_, err = m.UpdateItem(1, UpdateParams{Latitude: model.Float(40), Longitude: model.Float(-74)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be positioned")

	// But its heading may be updated.
	_, err = m.UpdateItem(1, UpdateParams{Heading: model.String("west")})
	require.NoError(t, err)
	assert.Equal(t, "west", m.GetMission().Items[0].Heading)

	// Waypoints carry no radius.
	_, err = m.UpdateItem(2, UpdateParams{Radius: model.Float(80)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "radius")
}

func TestUpdateItem_OutOfRange(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{})
	require.NoError(t, err)

	_, err = m.UpdateItem(5, UpdateParams{Altitude: model.Float(100)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestDeleteItem(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{})
	require.NoError(t, err)
	_, err = m.AddRTL(RTLParams{})
	require.NoError(t, err)

	res, err := m.DeleteItem(2)
	require.NoError(t, err)
	assert.Equal(t, model.CommandWaypoint, res.Item.Command)
	assert.Equal(t, []model.CommandType{model.CommandTakeoff, model.CommandRTL}, commands(m.GetMission()))
	assertSequences(t, m.GetMission())

	_, err = m.DeleteItem(9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestFailedFirstAdd_LeavesNoMission(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddSurvey(SurveyParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPosition))
	assert.False(t, m.HasMission())
	assert.Nil(t, m.GetMission())
}

func TestEditWithoutMission(t *testing.T) {
	m := newTestManager(t)

	_, err := m.DeleteItem(1)
	assert.True(t, errors.Is(err, ErrNoMission))
	_, err = m.UpdateItem(1, UpdateParams{Altitude: model.Float(80)})
	assert.True(t, errors.Is(err, ErrNoMission))
	_, err = m.MoveItem(1, MoveParams{Latitude: model.Float(40), Longitude: model.Float(-74)})
	assert.True(t, errors.Is(err, ErrNoMission))
	_, err = m.ReorderItem(1, 2)
	assert.True(t, errors.Is(err, ErrNoMission))
	assert.False(t, m.HasMission())
}

func TestMoveItem_Absolute(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{
		Position: PositionParams{
			Distance: model.Float(100), DistanceUnits: "meters",
			Heading: "north", Frame: model.FrameOrigin,
		},
	})
	require.NoError(t, err)

	_, err = m.MoveItem(1, MoveParams{Latitude: model.Float(40.5), Longitude: model.Float(-74.5)})
	require.NoError(t, err)

	wp := m.GetMission().Items[0]
	assert.Equal(t, 40.5, *wp.Latitude)
	assert.Nil(t, wp.Distance, "relative description cleared by absolute move")
}

func TestMoveItem_RelativeToLastWaypoint(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(40.0), Longitude: model.Float(-74.0)},
	})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(41.0), Longitude: model.Float(-75.0)},
	})
	require.NoError(t, err)

	_, err = m.MoveItem(2, MoveParams{
		Distance: model.Float(1), DistanceUnits: "kilometers",
		Heading: "east", Frame: model.FrameLastWaypoint,
	})
	require.NoError(t, err)

	// Anchored at the first waypoint, not at the item's own position.
	wantLat, wantLon := geo.DestinationPoint(40.0, -74.0, 1, "east", "kilometers")
	wp := m.GetMission().Items[1]
	assert.InDelta(t, wantLat, *wp.Latitude, 1e-9)
	assert.InDelta(t, wantLon, *wp.Longitude, 1e-9)
}

// Repeated self-relative moves apply each offset to the previously
// computed position exactly once: the move flattens to absolute
// coordinates, so display-time resolution can never re-apply an offset.
func TestMoveItemSelfChains(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(40.0), Longitude: model.Float(-74.0)},
	})
	require.NoError(t, err)

	move := MoveParams{
		Distance: model.Float(1000), DistanceUnits: "meters",
		Heading: "north", Frame: model.FrameSelf,
	}
	_, err = m.MoveItem(1, move)
	require.NoError(t, err)
	_, err = m.MoveItem(1, move)
	require.NoError(t, err)

	lat1, lon1 := geo.DestinationPoint(40.0, -74.0, 1000, "north", "meters")
	wantLat, wantLon := geo.DestinationPoint(lat1, lon1, 1000, "north", "meters")

	wp := m.GetMission().Items[0]
	require.NotNil(t, wp.Latitude)
	assert.InDelta(t, wantLat, *wp.Latitude, 1e-9)
	assert.InDelta(t, wantLon, *wp.Longitude, 1e-9)
	assert.Nil(t, wp.Distance, "offset must not survive the move")

	// Display-time resolution returns the stored coordinates unchanged,
	// however many times it runs.
	for i := 0; i < 3; i++ {
		positions := m.GetMission().ResolvePositions(m.Origin())
		assert.InDelta(t, wantLat, positions[0].Lat, 1e-9)
	}
}

func TestMoveItem_SelfWithoutCoordinates(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{
		Position: PositionParams{
			Distance: model.Float(100), DistanceUnits: "meters",
			Heading: "west", Frame: model.FrameOrigin,
		},
	})
	require.NoError(t, err)

	before := m.GetMission().ToMap()
	_, err = m.MoveItem(1, MoveParams{
		Distance: model.Float(50), DistanceUnits: "meters",
		Heading: "north", Frame: model.FrameSelf,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSelfWithoutCoordinates))
	assert.Equal(t, before, m.GetMission().ToMap(), "failed move leaves mission untouched")
}

func TestMoveItem_TakeoffHeadingOnly(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTakeoff(TakeoffParams{Heading: "north"})
	require.NoError(t, err)

	res, err := m.MoveItem(1, MoveParams{Heading: "southeast"})
	require.NoError(t, err)
	assert.Contains(t, res.Changes[0], "southeast")
	assert.Equal(t, "southeast", m.GetMission().Items[0].Heading)

	_, err = m.MoveItem(1, MoveParams{Latitude: model.Float(40), Longitude: model.Float(-74)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be repositioned")
}

func TestReorderItem(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{Altitude: model.Float(100)})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{Altitude: model.Float(200)})
	require.NoError(t, err)
	_, err = m.AddRTL(RTLParams{})
	require.NoError(t, err)

	// Same position is a no-op.
	res, err := m.ReorderItem(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"position unchanged"}, res.Changes)

	// Moving toward the tail lands at the named position.
	_, err = m.ReorderItem(2, 3)
	require.NoError(t, err)
	mission := m.GetMission()
	assert.Equal(t, 200.0, *mission.Items[1].Altitude)
	assert.Equal(t, 100.0, *mission.Items[2].Altitude)
	assertSequences(t, mission)

	_, err = m.ReorderItem(1, 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestAddSurvey_Modes(t *testing.T) {
	m := newTestManager(t)

	corners := []model.Corner{
		{Latitude: model.Float(40.0), Longitude: model.Float(-74.0)},
		{Latitude: model.Float(40.01), Longitude: model.Float(-74.0)},
		{Latitude: model.Float(40.01), Longitude: model.Float(-74.01)},
	}
	res, err := m.AddSurvey(SurveyParams{Corners: corners})
	require.NoError(t, err)
	assert.Equal(t, model.SurveyPolygon, res.Item.SurveyMode)

	res, err = m.AddSurvey(SurveyParams{
		Center: PositionParams{Latitude: model.Float(40.1), Longitude: model.Float(-74.1)},
		Radius: model.Float(200),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SurveyCircular, res.Item.SurveyMode)

	_, err = m.AddSurvey(SurveyParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPosition))

	five := append(append([]model.Corner{}, corners...),
		model.Corner{Latitude: model.Float(40.02), Longitude: model.Float(-74.0)},
		model.Corner{Latitude: model.Float(40.03), Longitude: model.Float(-74.0)})
	_, err = m.AddSurvey(SurveyParams{Corners: five})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyCorners))

	// A two-corner polygon fails hard validation and rolls back.
	count := m.GetMission().Len()
	_, err = m.AddSurvey(SurveyParams{Corners: corners[:2]})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corners")
	assert.Equal(t, count, m.GetMission().Len())
}

func TestValidateMission_NoMission(t *testing.T) {
	m := newTestManager(t)
	ok, msgs := m.ValidateMission()
	assert.False(t, ok)
	assert.Equal(t, []string{"No active mission"}, msgs)
}

func TestValidateMission_EmptyRollsBack(t *testing.T) {
	m := newTestManager(t)
	m.CreateMission()
	ok, msgs := m.ValidateMission()
	assert.False(t, ok)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0], "empty")
}

func TestValidateMission_AutoAddsAndReports(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(40.0), Longitude: model.Float(-74.0)},
	})
	require.NoError(t, err)

	ok, msgs := m.ValidateMission()
	require.True(t, ok, "messages: %v", msgs)

	assert.Equal(t,
		[]model.CommandType{model.CommandTakeoff, model.CommandWaypoint, model.CommandRTL},
		commands(m.GetMission()))
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "Auto-fix: Added missing takeoff command")
	assert.Contains(t, joined, "Auto-fix: Added missing RTL command")
}

func TestStateSummary(t *testing.T) {
	m := newTestManager(t)

	assert.Contains(t, m.StateSummary(), "no active mission")

	_, err := m.AddTakeoff(TakeoffParams{Altitude: model.Float(50), Heading: "north"})
	require.NoError(t, err)
	_, err = m.AddWaypoint(WaypointParams{
		Position: PositionParams{Latitude: model.Float(40.123456), Longitude: model.Float(-74.0)},
	})
	require.NoError(t, err)
	_, err = m.AddRTL(RTLParams{})
	require.NoError(t, err)

	s := m.StateSummary()
	assert.True(t, strings.HasPrefix(s, "<mission_state>"))
	assert.True(t, strings.HasSuffix(s, "</mission_state>"))
	assert.Contains(t, s, `type="takeoff"`)
	assert.Contains(t, s, "heading: north")
	assert.Contains(t, s, "40.123456, -74.000000")
	// The waypoint has no altitude yet.
	assert.Contains(t, s, "altitude: unspecified")
	// RTL returns to the launch point.
	assert.Contains(t, s, `type="rtl">location: launch point`)
}

// Full planning flow: build a mission from relative descriptions with no
// altitudes, then let final validation complete it.
func TestEndToEndPlanning(t *testing.T) {
	m := newTestManager(t)
	m.CreateMission()

	_, err := m.AddTakeoff(TakeoffParams{})
	require.NoError(t, err)

	_, err = m.AddWaypoint(WaypointParams{
		Position: PositionParams{
			Distance: model.Float(500), DistanceUnits: "feet",
			Heading: "east", Frame: model.FrameLastWaypoint,
		},
	})
	require.NoError(t, err)

	_, err = m.AddRTL(RTLParams{})
	require.NoError(t, err)

	ok, msgs := m.ValidateMission()
	require.True(t, ok, "messages: %v", msgs)

	mission := m.GetMission()
	require.Len(t, mission.Items, 3)

	// Takeoff got its configured default altitude; the waypoint inherited
	// it; RTL follows the takeoff altitude.
	takeoff, wp, rtl := mission.Items[0], mission.Items[1], mission.Items[2]
	require.NotNil(t, takeoff.Altitude)
	assert.Equal(t, 50.0, *takeoff.Altitude)
	require.NotNil(t, wp.Altitude)
	assert.Equal(t, 50.0, *wp.Altitude)
	require.NotNil(t, rtl.Altitude)
	assert.Equal(t, 50.0, *rtl.Altitude)

	// The waypoint resolves 500 feet east of the launch point.
	wantLat, wantLon := geo.DestinationPoint(homeLat, homeLon, 500, "east", "feet")
	positions := mission.ResolvePositions(m.Origin())
	require.NotNil(t, positions[1])
	assert.InDelta(t, wantLat, positions[1].Lat, 1e-9)
	assert.InDelta(t, wantLon, positions[1].Lon, 1e-9)

	fixes := 0
	for _, msg := range msgs {
		if strings.HasPrefix(msg, "Auto-fix: ") {
			fixes++
		}
	}
	assert.GreaterOrEqual(t, fixes, 2, "messages: %v", msgs)
}
