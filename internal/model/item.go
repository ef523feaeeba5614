package model

// CommandType identifies what a mission item does. The set is open to
// extension; the capability table below declares which optional fields each
// type carries, so callers never probe an item for fields its type cannot
// have.
type CommandType string

const (
	CommandTakeoff  CommandType = "takeoff"
	CommandWaypoint CommandType = "waypoint"
	CommandLoiter   CommandType = "loiter"
	CommandRTL      CommandType = "rtl"
	CommandSurvey   CommandType = "survey"
)

// ReferenceFrame names the anchor point a relative position is measured
// from. Self is resolved at move time against the item's own stored
// coordinates; the other frames resolve at read time.
type ReferenceFrame string

const (
	FrameOrigin       ReferenceFrame = "origin"
	FrameLastWaypoint ReferenceFrame = "last_waypoint"
	FrameSelf         ReferenceFrame = "self"
)

// Detection behaviors for camera search.
const (
	BehaviorTagAndContinue   = "tag_and_continue"
	BehaviorDetectAndMonitor = "detect_and_monitor"
)

// SurveyMode selects how a survey area is described.
type SurveyMode string

const (
	SurveyCircular SurveyMode = "circular"
	SurveyPolygon  SurveyMode = "polygon"
)

// capability declares which optional field groups a command type supports.
type capability struct {
	position bool // latitude/longitude, MGRS, distance+heading positioning
	heading  bool // compass heading (VTOL transition for takeoff)
	radius   bool // loiter/survey radius
	nav      bool // navigation command, subject to altitude rules
}

var capabilities = map[CommandType]capability{
	CommandTakeoff:  {position: false, heading: true, radius: false, nav: true},
	CommandWaypoint: {position: true, heading: true, radius: false, nav: true},
	CommandLoiter:   {position: true, heading: true, radius: true, nav: true},
	CommandRTL:      {position: false, heading: false, radius: false, nav: true},
	CommandSurvey:   {position: true, heading: true, radius: true, nav: true},
}

// Valid reports whether the command type is known.
func (c CommandType) Valid() bool {
	_, ok := capabilities[c]
	return ok
}

// SupportsPosition reports whether items of this type can be positioned by
// coordinates or relative descriptions.
func (c CommandType) SupportsPosition() bool { return capabilities[c].position }

// SupportsHeading reports whether items of this type carry a compass
// heading.
func (c CommandType) SupportsHeading() bool { return capabilities[c].heading }

// SupportsRadius reports whether items of this type carry a radius.
func (c CommandType) SupportsRadius() bool { return capabilities[c].radius }

// IsNav reports whether this type is a navigation command subject to
// altitude validation.
func (c CommandType) IsNav() bool { return capabilities[c].nav }

// DisplayName returns the human-readable command name.
func (c CommandType) DisplayName() string {
	switch c {
	case CommandTakeoff:
		return "Takeoff"
	case CommandWaypoint:
		return "Waypoint"
	case CommandLoiter:
		return "Loiter"
	case CommandRTL:
		return "Return to Launch"
	case CommandSurvey:
		return "Survey"
	default:
		return "Unknown " + string(c)
	}
}

// Corner is one survey polygon corner. Either Latitude/Longitude or MGRS is
// set.
type Corner struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	MGRS      string   `json:"mgrs,omitempty"`
}

// Item is one planned mission action. Optional fields are pointers so an
// unset field is distinct from a zero value; callers and the validator rely
// on that distinction to report "unspecified" rather than "0".
//
// Command is immutable after creation: to change an item's type, delete it
// and create a new one.
type Item struct {
	Sequence int         `json:"sequence"`
	Command  CommandType `json:"command_type"`

	// Absolute position.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// Opaque grid position.
	MGRS string `json:"mgrs,omitempty"`
	// Relative position: distance along a compass heading from a frame.
	Distance      *float64       `json:"distance"`
	DistanceUnits string         `json:"distance_units,omitempty"`
	Frame         ReferenceFrame `json:"reference_frame,omitempty"`

	// Compass heading: bearing of the relative move, or the VTOL
	// transition direction for takeoff.
	Heading string `json:"heading,omitempty"`

	Altitude      *float64 `json:"altitude"`
	AltitudeUnits string   `json:"altitude_units,omitempty"`
	Radius        *float64 `json:"radius"`
	RadiusUnits   string   `json:"radius_units,omitempty"`

	// Camera search, attachable to any item type.
	SearchTarget      *string `json:"search_target"`
	DetectionBehavior *string `json:"detection_behavior"`

	// Survey only.
	SurveyMode SurveyMode `json:"survey_mode,omitempty"`
	Corners    []Corner   `json:"corners,omitempty"`
}

// HasPosition reports whether any positioning information is present:
// absolute coordinates, MGRS, a relative description, or survey corners.
func (it *Item) HasPosition() bool {
	if it.Latitude != nil && it.Longitude != nil {
		return true
	}
	if it.MGRS != "" {
		return true
	}
	if it.Distance != nil && it.Heading != "" {
		return true
	}
	return len(it.Corners) > 0
}

// Clone deep-copies the item, including all pointer fields and corner
// descriptors, so snapshots are immune to later edits.
func (it *Item) Clone() *Item {
	c := *it
	c.Latitude = cloneFloat(it.Latitude)
	c.Longitude = cloneFloat(it.Longitude)
	c.Distance = cloneFloat(it.Distance)
	c.Altitude = cloneFloat(it.Altitude)
	c.Radius = cloneFloat(it.Radius)
	c.SearchTarget = cloneString(it.SearchTarget)
	c.DetectionBehavior = cloneString(it.DetectionBehavior)
	if it.Corners != nil {
		c.Corners = make([]Corner, len(it.Corners))
		for i, corner := range it.Corners {
			c.Corners[i] = Corner{
				Latitude:  cloneFloat(corner.Latitude),
				Longitude: cloneFloat(corner.Longitude),
				MGRS:      corner.MGRS,
			}
		}
	}
	return &c
}

// ClearPositioning removes every positioning description from the item.
// Mutations that set one positioning group call this first so the groups
// stay mutually exclusive.
func (it *Item) ClearPositioning() {
	it.Latitude = nil
	it.Longitude = nil
	it.MGRS = ""
	it.Distance = nil
	it.DistanceUnits = ""
	it.Frame = ""
	if it.Command != CommandTakeoff {
		// Takeoff heading is a VTOL transition direction, not part of a
		// relative position.
		it.Heading = ""
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v, for building items in callers and tests.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
