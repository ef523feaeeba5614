// Package validator checks missions against structural and parameter rules
// and repairs what it safely can. Validation is mode aware: mission mode
// enforces full flight-plan structure, command mode only checks the single
// staged command.
package validator

import (
	"fmt"

	"github.com/scferro/px4-agent/internal/config"
	"github.com/scferro/px4-agent/internal/model"
	"github.com/scferro/px4-agent/internal/units"
)

// Mode selects which rule set applies.
type Mode string

const (
	// ModeMission validates a full flight plan: takeoff first, RTL last,
	// cardinality rules, parameter completion across the whole sequence.
	ModeMission Mode = "mission"
	// ModeCommand validates a single staged command in isolation.
	ModeCommand Mode = "command"
)

// ParseMode maps a config string to a Mode, defaulting to mission.
func ParseMode(s string) Mode {
	if s == string(ModeCommand) {
		return ModeCommand
	}
	return ModeMission
}

// Validator applies structural and parameter rules from an explicit
// settings snapshot. The zero value is not usable; construct with New or
// NewStaged.
type Validator struct {
	settings config.Agent
	staged   bool
}

// New builds a validator applying the full rule set: structure checks,
// auto-add of missing takeoff/RTL, and parameter completion.
func New(settings config.Agent) *Validator {
	return &Validator{settings: settings}
}

// NewStaged builds a validator for in-progress missions, as validated
// after each mutation: hard structural rules and positioning fixes apply,
// but an empty or incomplete mission is acceptable and nothing is
// auto-added or auto-completed. Final validation uses the full rule set.
func NewStaged(settings config.Agent) *Validator {
	return &Validator{settings: settings, staged: true}
}

// Result carries everything a validation pass produced. Errors are hard
// failures that the caller must roll back; Fixes describe repairs already
// applied to the mission in place.
type Result struct {
	Valid  bool
	Errors []string
	Fixes  []string
}

// Validate checks the mission in the given mode, repairing what it can.
// The mission is mutated in place by auto-fixes; callers wanting atomicity
// snapshot before calling.
func (v *Validator) Validate(m *model.Mission, mode Mode) Result {
	var res Result

	if m == nil || len(m.Items) == 0 {
		if v.staged && m != nil {
			res.Valid = true
			return res
		}
		res.Errors = append(res.Errors, "Mission is empty")
		return res
	}
	if len(m.Items) > v.settings.MaxMissionItems {
		res.Errors = append(res.Errors,
			fmt.Sprintf("Mission has %d items, maximum is %d", len(m.Items), v.settings.MaxMissionItems))
	}

	if mode == ModeCommand {
		if len(m.Items) > 1 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Command mode allows a single command, mission has %d items", len(m.Items)))
		}
		if v.settings.AutoCompleteParameters && !v.staged {
			v.completeParameters(m, &res)
		}
		v.checkItems(m, &res)
		res.Valid = len(res.Errors) == 0
		return res
	}

	v.checkCardinality(m, &res)
	v.fixPositioning(m, &res)
	if !v.staged {
		v.addMissingCommands(m, &res)
		if v.settings.AutoCompleteParameters {
			v.completeParameters(m, &res)
		}
	}
	v.checkItems(m, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

// checkCardinality reports duplicate takeoff/RTL commands. Duplicates are
// never auto-removed: deleting a command the operator added is not a safe
// repair.
func (v *Validator) checkCardinality(m *model.Mission, res *Result) {
	takeoffs, rtls := 0, 0
	for _, it := range m.Items {
		switch it.Command {
		case model.CommandTakeoff:
			takeoffs++
		case model.CommandRTL:
			rtls++
		}
	}
	if v.settings.SingleTakeoffOnly && takeoffs > 1 {
		res.Errors = append(res.Errors,
			fmt.Sprintf("Mission has %d takeoff commands, only one is allowed", takeoffs))
	}
	if v.settings.SingleRTLOnly && rtls > 1 {
		res.Errors = append(res.Errors,
			fmt.Sprintf("Mission has %d RTL commands, only one is allowed", rtls))
	}
}

// fixPositioning moves every takeoff to the front and every RTL to the
// back, preserving the relative order of everything else. With auto-fix
// disabled the misplacement is a hard error instead.
func (v *Validator) fixPositioning(m *model.Mission, res *Result) {
	if v.settings.TakeoffMustBeFirst && misplacedFront(m.Items, model.CommandTakeoff) {
		if v.settings.AutoFixPositioning {
			m.MoveAllToFront(model.CommandTakeoff)
			res.Fixes = append(res.Fixes, "Moved takeoff command to the beginning of mission")
		} else {
			res.Errors = append(res.Errors, "Takeoff command must be the first mission item")
		}
	}
	if v.settings.RTLMustBeLast && misplacedBack(m.Items, model.CommandRTL) {
		if v.settings.AutoFixPositioning {
			m.MoveAllToEnd(model.CommandRTL)
			res.Fixes = append(res.Fixes, "Moved RTL command to the end of mission")
		} else {
			res.Errors = append(res.Errors, "RTL command must be the last mission item")
		}
	}
}

// misplacedFront reports whether any item of the command type sits after a
// different command.
func misplacedFront(items []*model.Item, cmd model.CommandType) bool {
	other := false
	for _, it := range items {
		if it.Command == cmd {
			if other {
				return true
			}
		} else {
			other = true
		}
	}
	return false
}

// misplacedBack reports whether any item of the command type sits before a
// different command.
func misplacedBack(items []*model.Item, cmd model.CommandType) bool {
	seen := false
	for _, it := range items {
		if it.Command == cmd {
			seen = true
		} else if seen {
			return true
		}
	}
	return false
}

// addMissingCommands inserts a default takeoff at the front and appends a
// default RTL when the mission lacks them.
func (v *Validator) addMissingCommands(m *model.Mission, res *Result) {
	if v.settings.AutoAddMissingTakeoff && indexOf(m.Items, model.CommandTakeoff) < 0 {
		p := v.settings.Takeoff
		item := &model.Item{
			Command:       model.CommandTakeoff,
			Altitude:      model.Float(p.DefaultAltitude),
			AltitudeUnits: p.AltitudeUnits,
			Heading:       p.DefaultHeading,
		}
		m.InsertAt(item, 1)
		res.Fixes = append(res.Fixes, "Added missing takeoff command at the beginning of mission")
	}
	if v.settings.AutoAddMissingRTL && indexOf(m.Items, model.CommandRTL) < 0 {
		m.Append(&model.Item{Command: model.CommandRTL})
		res.Fixes = append(res.Fixes, "Added missing RTL command at the end of mission")
	}
}

// completeParameters fills unset parameters per command type and clamps
// altitude and radius into configured bounds.
func (v *Validator) completeParameters(m *model.Mission, res *Result) {
	origin := model.Origin{
		Latitude:  v.settings.TakeoffLatitude,
		Longitude: v.settings.TakeoffLongitude,
	}

	for i, it := range m.Items {
		p := v.settings.Params(string(it.Command))

		v.completeAltitude(m, i, it, p, res)
		v.completeRadius(it, p, res)
		v.completeCoordinates(m, i, it, p, origin, res)

		if it.Distance != nil && it.DistanceUnits == "" {
			it.DistanceUnits = v.settings.DefaultDistanceUnits
		}
		if it.SearchTarget == nil && v.settings.DefaultSearchTarget != "" {
			it.SearchTarget = model.String(v.settings.DefaultSearchTarget)
			res.Fixes = append(res.Fixes,
				fmt.Sprintf("Set default search target for %s %d", it.Command.DisplayName(), i+1))
		}
		if it.SearchTarget != nil && it.DetectionBehavior == nil {
			it.DetectionBehavior = model.String(v.settings.DefaultDetectionBehavior)
			res.Fixes = append(res.Fixes,
				fmt.Sprintf("Set detection behavior to %s for %s %d",
					v.settings.DefaultDetectionBehavior, it.Command.DisplayName(), i+1))
		}
	}
}

func (v *Validator) completeAltitude(m *model.Mission, i int, it *model.Item, p config.CommandParams, res *Result) {
	if !it.Command.IsNav() {
		return
	}
	if it.AltitudeUnits == "" {
		it.AltitudeUnits = p.AltitudeUnits
	}

	if it.Altitude == nil {
		switch {
		case p.UseTakeoffAltitude:
			if alt, altUnits := m.TakeoffAltitude(); alt != nil {
				it.Altitude = alt
				it.AltitudeUnits = altUnits
				res.Fixes = append(res.Fixes,
					fmt.Sprintf("Set altitude of %s %d to takeoff altitude", it.Command.DisplayName(), i+1))
			}
		case p.UsePreviousAltitude:
			if alt, altUnits := m.LastNavAltitude(i); alt != nil {
				it.Altitude = alt
				it.AltitudeUnits = altUnits
				res.Fixes = append(res.Fixes,
					fmt.Sprintf("Set altitude of %s %d from previous command", it.Command.DisplayName(), i+1))
			}
		}
		if it.Altitude == nil {
			it.Altitude = model.Float(p.DefaultAltitude)
			it.AltitudeUnits = p.AltitudeUnits
			res.Fixes = append(res.Fixes,
				fmt.Sprintf("Set altitude of %s %d to default %.0f %s",
					it.Command.DisplayName(), i+1, p.DefaultAltitude, p.AltitudeUnits))
		}
	}

	minM := maxFloat(p.MinAltitude, v.settings.GlobalMinAltitude)
	maxM := minFloat(p.MaxAltitude, v.settings.GlobalMaxAltitude)
	if clamped, ok := clampInUnits(*it.Altitude, it.AltitudeUnits, minM, maxM); ok {
		*it.Altitude = clamped
		res.Fixes = append(res.Fixes,
			fmt.Sprintf("Clamped altitude of %s %d to %.6g %s",
				it.Command.DisplayName(), i+1, clamped, units.Normalize(it.AltitudeUnits)))
	}
}

func (v *Validator) completeRadius(it *model.Item, p config.CommandParams, res *Result) {
	if !it.Command.SupportsRadius() {
		return
	}
	if it.RadiusUnits == "" {
		it.RadiusUnits = p.RadiusUnits
	}
	if it.Radius == nil {
		it.Radius = model.Float(p.DefaultRadius)
		it.RadiusUnits = p.RadiusUnits
		res.Fixes = append(res.Fixes,
			fmt.Sprintf("Set radius of %s to default %.0f %s",
				it.Command.DisplayName(), p.DefaultRadius, p.RadiusUnits))
	}

	minM := maxFloat(p.MinRadius, v.settings.GlobalMinRadius)
	maxM := minFloat(p.MaxRadius, v.settings.GlobalMaxRadius)
	if clamped, ok := clampInUnits(*it.Radius, it.RadiusUnits, minM, maxM); ok {
		*it.Radius = clamped
		res.Fixes = append(res.Fixes,
			fmt.Sprintf("Clamped radius of %s to %.6g %s",
				it.Command.DisplayName(), clamped, units.Normalize(it.RadiusUnits)))
	}
}

// completeCoordinates gives loiter and survey commands a position when
// they have none at all: the last resolvable position in the mission, or
// the configured default.
func (v *Validator) completeCoordinates(m *model.Mission, i int, it *model.Item, p config.CommandParams, origin model.Origin, res *Result) {
	if !p.UseLastWaypointLocation || !it.Command.SupportsPosition() {
		return
	}
	if it.HasPosition() || it.Distance != nil || len(it.Corners) > 0 {
		return
	}
	if pos := m.LastNavPosition(i); pos != nil {
		it.Latitude = model.Float(pos.Lat)
		it.Longitude = model.Float(pos.Lon)
		res.Fixes = append(res.Fixes,
			fmt.Sprintf("Set location of %s %d from last waypoint", it.Command.DisplayName(), i+1))
		return
	}
	if p.DefaultLatitude != 0 || p.DefaultLongitude != 0 {
		it.Latitude = model.Float(p.DefaultLatitude)
		it.Longitude = model.Float(p.DefaultLongitude)
	} else {
		it.Latitude = model.Float(origin.Latitude)
		it.Longitude = model.Float(origin.Longitude)
	}
	res.Fixes = append(res.Fixes,
		fmt.Sprintf("Set location of %s %d to default", it.Command.DisplayName(), i+1))
}

// checkItems runs final per-item hard checks after completion.
func (v *Validator) checkItems(m *model.Mission, res *Result) {
	for i, it := range m.Items {
		if !it.Command.Valid() {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Item %d has unknown command type %q", i+1, it.Command))
			continue
		}
		if it.Command.IsNav() && it.Altitude != nil && *it.Altitude <= 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Item %d (%s) has non-positive altitude", i+1, it.Command.DisplayName()))
		}
		if it.Command == model.CommandSurvey && it.SurveyMode == model.SurveyPolygon && len(it.Corners) < 3 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Item %d (survey) polygon needs at least 3 corners, has %d", i+1, len(it.Corners)))
		}
	}
}

// clampInUnits clamps value (expressed in valueUnits) into [minMeters,
// maxMeters], returning the clamped value back in valueUnits. ok reports
// whether clamping changed the value.
func clampInUnits(value float64, valueUnits string, minMeters, maxMeters float64) (float64, bool) {
	meters := units.ToMeters(value, valueUnits)
	switch {
	case meters < minMeters:
		return units.FromMeters(minMeters, valueUnits), true
	case meters > maxMeters:
		return units.FromMeters(maxMeters, valueUnits), true
	default:
		return value, false
	}
}

func indexOf(items []*model.Item, cmd model.CommandType) int {
	for i, it := range items {
		if it.Command == cmd {
			return i
		}
	}
	return -1
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
