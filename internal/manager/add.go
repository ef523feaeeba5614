package manager

import (
	"github.com/scferro/px4-agent/internal/model"
)

// Each command type gets its own parameter struct and builder so field
// presence is decided at construction time, never by probing a generic
// item for attributes it cannot have.

// SearchParams attach camera search behavior to any item type.
type SearchParams struct {
	Target            *string
	DetectionBehavior *string
}

func (s SearchParams) apply(it *model.Item) {
	it.SearchTarget = s.Target
	it.DetectionBehavior = s.DetectionBehavior
}

// PositionParams describe where a positionable item goes: absolute
// coordinates, an MGRS grid reference, or a distance along a heading from
// a reference frame. At most one group should be set; later groups are
// ignored when an earlier one is present.
type PositionParams struct {
	Latitude  *float64
	Longitude *float64
	MGRS      string

	Distance      *float64
	DistanceUnits string
	Heading       string
	Frame         model.ReferenceFrame
}

func (p PositionParams) apply(it *model.Item) {
	switch {
	case p.Latitude != nil && p.Longitude != nil:
		it.Latitude = p.Latitude
		it.Longitude = p.Longitude
	case p.MGRS != "":
		it.MGRS = p.MGRS
	case p.Distance != nil:
		it.Distance = p.Distance
		it.DistanceUnits = p.DistanceUnits
		it.Frame = p.Frame
	}
	if p.Heading != "" {
		it.Heading = p.Heading
	}
}

// TakeoffParams configure an AddTakeoff. Takeoff is never positioned; the
// heading is the VTOL transition direction.
type TakeoffParams struct {
	Altitude      *float64
	AltitudeUnits string
	Heading       string
	Search        SearchParams
}

// AddTakeoff inserts a takeoff at the beginning of the mission.
func (m *Manager) AddTakeoff(p TakeoffParams) (*Result, error) {
	return m.mutate("add_takeoff", true, func(mission *model.Mission) (*model.Item, []string, error) {
		it := &model.Item{
			Command:       model.CommandTakeoff,
			Altitude:      p.Altitude,
			AltitudeUnits: p.AltitudeUnits,
			Heading:       p.Heading,
		}
		p.Search.apply(it)
		mission.InsertAt(it, 1)
		return it, nil, nil
	})
}

// WaypointParams configure an AddWaypoint. InsertAt is a 1-based position;
// zero appends.
type WaypointParams struct {
	Position      PositionParams
	Altitude      *float64
	AltitudeUnits string
	Search        SearchParams
	InsertAt      int
}

func (m *Manager) AddWaypoint(p WaypointParams) (*Result, error) {
	return m.mutate("add_waypoint", true, func(mission *model.Mission) (*model.Item, []string, error) {
		it := &model.Item{
			Command:       model.CommandWaypoint,
			Altitude:      p.Altitude,
			AltitudeUnits: p.AltitudeUnits,
		}
		p.Position.apply(it)
		p.Search.apply(it)
		mission.InsertAt(it, p.InsertAt)
		return it, nil, nil
	})
}

// LoiterParams configure an AddLoiter.
type LoiterParams struct {
	Position      PositionParams
	Altitude      *float64
	AltitudeUnits string
	Radius        *float64
	RadiusUnits   string
	Search        SearchParams
	InsertAt      int
}

func (m *Manager) AddLoiter(p LoiterParams) (*Result, error) {
	return m.mutate("add_loiter", true, func(mission *model.Mission) (*model.Item, []string, error) {
		it := &model.Item{
			Command:       model.CommandLoiter,
			Altitude:      p.Altitude,
			AltitudeUnits: p.AltitudeUnits,
			Radius:        p.Radius,
			RadiusUnits:   p.RadiusUnits,
		}
		p.Position.apply(it)
		p.Search.apply(it)
		mission.InsertAt(it, p.InsertAt)
		return it, nil, nil
	})
}

// RTLParams configure an AddRTL. RTL is always appended.
type RTLParams struct {
	Altitude      *float64
	AltitudeUnits string
	Search        SearchParams
}

func (m *Manager) AddRTL(p RTLParams) (*Result, error) {
	return m.mutate("add_rtl", true, func(mission *model.Mission) (*model.Item, []string, error) {
		it := &model.Item{
			Command:       model.CommandRTL,
			Altitude:      p.Altitude,
			AltitudeUnits: p.AltitudeUnits,
		}
		p.Search.apply(it)
		mission.Append(it)
		return it, nil, nil
	})
}

// maxSurveyCorners bounds polygon surveys; larger areas are flown as
// multiple surveys.
const maxSurveyCorners = 4

// SurveyParams configure an AddSurvey. Corners select polygon mode; a
// center position with a radius selects circular mode.
type SurveyParams struct {
	Corners       []model.Corner
	Center        PositionParams
	Radius        *float64
	RadiusUnits   string
	Altitude      *float64
	AltitudeUnits string
	Search        SearchParams
	InsertAt      int
}

func (m *Manager) AddSurvey(p SurveyParams) (*Result, error) {
	return m.mutate("add_survey", true, func(mission *model.Mission) (*model.Item, []string, error) {
		it := &model.Item{
			Command:       model.CommandSurvey,
			Altitude:      p.Altitude,
			AltitudeUnits: p.AltitudeUnits,
			Radius:        p.Radius,
			RadiusUnits:   p.RadiusUnits,
		}
		switch {
		case len(p.Corners) > maxSurveyCorners:
			return nil, nil, ErrTooManyCorners
		case len(p.Corners) > 0:
			it.SurveyMode = model.SurveyPolygon
			it.Corners = p.Corners
		case p.Center.Latitude != nil || p.Center.MGRS != "" || p.Center.Distance != nil:
			it.SurveyMode = model.SurveyCircular
			p.Center.apply(it)
		default:
			return nil, nil, ErrMissingPosition
		}
		p.Search.apply(it)
		mission.InsertAt(it, p.InsertAt)
		return it, nil, nil
	})
}
