package manager

import (
	"fmt"

	"github.com/scferro/px4-agent/internal/geo"
	"github.com/scferro/px4-agent/internal/model"
)

// UpdateParams are the field changes UpdateItem applies. Nil fields are
// left alone. The command type is immutable; to change it, delete the item
// and add a new one. Setting one positioning group clears the others so an
// item never carries two competing position descriptions.
type UpdateParams struct {
	Latitude  *float64
	Longitude *float64
	MGRS      *string

	Distance      *float64
	DistanceUnits *string
	Frame         *model.ReferenceFrame

	Heading *string

	Altitude      *float64
	AltitudeUnits *string
	Radius        *float64
	RadiusUnits   *string

	SearchTarget      *string
	DetectionBehavior *string
}

// UpdateItem applies field updates to the item at a 1-based sequence
// number. Relative position updates are stored unresolved; they resolve at
// display time.
func (m *Manager) UpdateItem(seq int, p UpdateParams) (*Result, error) {
	return m.mutate("update_item", false, func(mission *model.Mission) (*model.Item, []string, error) {
		it, err := m.itemAt(mission, seq)
		if err != nil {
			return nil, nil, err
		}
		var changes []string

		positional := p.Latitude != nil || p.Longitude != nil || p.MGRS != nil || p.Distance != nil
		if positional && !it.Command.SupportsPosition() {
			return nil, nil, fmt.Errorf("%s commands cannot be positioned", it.Command.DisplayName())
		}

		switch {
		case p.Latitude != nil && p.Longitude != nil:
			it.ClearPositioning()
			it.Latitude = p.Latitude
			it.Longitude = p.Longitude
			changes = append(changes, fmt.Sprintf("position set to %.6f, %.6f", *p.Latitude, *p.Longitude))
		case p.MGRS != nil:
			it.ClearPositioning()
			it.MGRS = *p.MGRS
			changes = append(changes, "position set to MGRS "+*p.MGRS)
		case p.Distance != nil:
			it.ClearPositioning()
			it.Distance = p.Distance
			if p.DistanceUnits != nil {
				it.DistanceUnits = *p.DistanceUnits
			}
			if p.Frame != nil {
				it.Frame = *p.Frame
			}
			if p.Heading != nil {
				it.Heading = *p.Heading
			}
			changes = append(changes, "position set to relative description")
		}

		if p.Heading != nil && p.Distance == nil {
			if !it.Command.SupportsHeading() {
				return nil, nil, fmt.Errorf("%s commands do not carry a heading", it.Command.DisplayName())
			}
			it.Heading = *p.Heading
			changes = append(changes, "heading set to "+*p.Heading)
		}

		if p.Altitude != nil {
			it.Altitude = p.Altitude
			changes = append(changes, fmt.Sprintf("altitude set to %g", *p.Altitude))
		}
		if p.AltitudeUnits != nil {
			it.AltitudeUnits = *p.AltitudeUnits
		}
		if p.Radius != nil {
			if !it.Command.SupportsRadius() {
				return nil, nil, fmt.Errorf("%s commands do not carry a radius", it.Command.DisplayName())
			}
			it.Radius = p.Radius
			changes = append(changes, fmt.Sprintf("radius set to %g", *p.Radius))
		}
		if p.RadiusUnits != nil {
			it.RadiusUnits = *p.RadiusUnits
		}
		if p.SearchTarget != nil {
			it.SearchTarget = p.SearchTarget
			changes = append(changes, "search target set to "+*p.SearchTarget)
		}
		if p.DetectionBehavior != nil {
			it.DetectionBehavior = p.DetectionBehavior
			changes = append(changes, "detection behavior set to "+*p.DetectionBehavior)
		}

		if len(changes) == 0 {
			return nil, nil, fmt.Errorf("no updates supplied for item %d", seq)
		}
		mission.Touch()
		return it, changes, nil
	})
}

// DeleteItem removes the item at a 1-based sequence number.
func (m *Manager) DeleteItem(seq int) (*Result, error) {
	return m.mutate("delete_item", false, func(mission *model.Mission) (*model.Item, []string, error) {
		it, err := m.itemAt(mission, seq)
		if err != nil {
			return nil, nil, err
		}
		mission.Remove(seq - 1)
		return it, []string{fmt.Sprintf("removed %s at position %d", it.Command.DisplayName(), seq)}, nil
	})
}

// MoveParams describe a geographic move: new absolute coordinates, a new
// MGRS reference, or a distance along a heading from a reference frame.
// For takeoff, which is never positioned, only Heading applies.
type MoveParams struct {
	Latitude  *float64
	Longitude *float64
	MGRS      string

	Distance      *float64
	DistanceUnits string
	Heading       string
	Frame         model.ReferenceFrame
}

// MoveItem geographically repositions the item at a 1-based sequence
// number. Relative moves resolve to absolute coordinates immediately: the
// offset is applied against the chosen anchor and the item keeps only the
// computed coordinates, so repeated edits never re-apply the offset.
func (m *Manager) MoveItem(seq int, p MoveParams) (*Result, error) {
	return m.mutate("move_item", false, func(mission *model.Mission) (*model.Item, []string, error) {
		it, err := m.itemAt(mission, seq)
		if err != nil {
			return nil, nil, err
		}

		if !it.Command.SupportsPosition() {
			if it.Command == model.CommandTakeoff && p.Heading != "" && p.Distance == nil && p.Latitude == nil {
				it.Heading = p.Heading
				mission.Touch()
				return it, []string{"takeoff heading set to " + p.Heading}, nil
			}
			return nil, nil, fmt.Errorf("%s commands cannot be repositioned", it.Command.DisplayName())
		}

		var changes []string
		switch {
		case p.Latitude != nil && p.Longitude != nil:
			it.ClearPositioning()
			it.Latitude = p.Latitude
			it.Longitude = p.Longitude
			changes = append(changes, fmt.Sprintf("moved to %.6f, %.6f", *p.Latitude, *p.Longitude))

		case p.MGRS != "":
			it.ClearPositioning()
			it.MGRS = p.MGRS
			changes = append(changes, "moved to MGRS "+p.MGRS)

		case p.Distance != nil:
			anchor, err := m.moveAnchor(mission, it, seq, p.Frame)
			if err != nil {
				return nil, nil, err
			}
			lat, lon := geo.DestinationPoint(anchor.Lat, anchor.Lon, *p.Distance, p.Heading, p.DistanceUnits)
			it.ClearPositioning()
			it.Latitude = model.Float(lat)
			it.Longitude = model.Float(lon)
			changes = append(changes, fmt.Sprintf("moved %g %s %s to %.6f, %.6f",
				*p.Distance, p.DistanceUnits, p.Heading, lat, lon))

		default:
			return nil, nil, fmt.Errorf("no target position supplied for item %d", seq)
		}

		mission.Touch()
		return it, changes, nil
	})
}

// moveAnchor picks the reference point a relative move is measured from.
func (m *Manager) moveAnchor(mission *model.Mission, it *model.Item, seq int, frame model.ReferenceFrame) (*model.Position, error) {
	switch frame {
	case model.FrameSelf:
		if it.Latitude == nil || it.Longitude == nil {
			return nil, ErrSelfWithoutCoordinates
		}
		return &model.Position{Lat: *it.Latitude, Lon: *it.Longitude}, nil
	case model.FrameLastWaypoint:
		if pos := mission.LastNavPosition(seq - 1); pos != nil {
			return pos, nil
		}
		origin := m.Origin()
		return &model.Position{Lat: origin.Latitude, Lon: origin.Longitude}, nil
	default:
		// Unknown frames resolve as origin.
		origin := m.Origin()
		return &model.Position{Lat: origin.Latitude, Lon: origin.Longitude}, nil
	}
}

// ReorderItem moves the item at a 1-based sequence number to a new 1-based
// position in the list. Moving an item to its own position is a no-op.
func (m *Manager) ReorderItem(seq, newPosition int) (*Result, error) {
	return m.mutate("reorder_item", false, func(mission *model.Mission) (*model.Item, []string, error) {
		it, err := m.itemAt(mission, seq)
		if err != nil {
			return nil, nil, err
		}
		if newPosition < 1 || newPosition > mission.Len() {
			return nil, nil, fmt.Errorf("%w: target position %d of %d items", ErrItemNotFound, newPosition, mission.Len())
		}
		if newPosition == seq {
			return it, []string{"position unchanged"}, nil
		}
		mission.MoveTo(seq-1, newPosition-1)
		return it, []string{fmt.Sprintf("moved %s from position %d to %d", it.Command.DisplayName(), seq, newPosition)}, nil
	})
}
