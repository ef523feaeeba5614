package manager

import (
	"fmt"
	"strings"

	"github.com/scferro/px4-agent/internal/model"
)

// unspecified marks fields the operator never provided, so a caller can
// tell "not yet set" from "zero".
const unspecified = "unspecified"

// StateSummary renders the mission as a compact XML-ish block listing every
// item's resolved parameters. Relative positions are shown as the absolute
// coordinates they currently resolve to.
func (m *Manager) StateSummary() string {
	var b strings.Builder
	b.WriteString("<mission_state>\n")

	if m.mission == nil {
		b.WriteString("  no active mission\n")
		b.WriteString("</mission_state>")
		return b.String()
	}

	fmt.Fprintf(&b, "  <mission id=%q mode=%q items=\"%d\">\n",
		m.mission.ID, string(m.mode), m.mission.Len())

	positions := m.mission.ResolvePositions(m.Origin())
	for i, it := range m.mission.Items {
		b.WriteString(itemSummary(it, i+1, positions[i]))
	}

	b.WriteString("  </mission>\n")
	b.WriteString("</mission_state>")
	return b.String()
}

func itemSummary(it *model.Item, position int, resolved *model.Position) string {
	var fields []string

	if it.Command.SupportsPosition() || it.Command == model.CommandTakeoff || it.Command == model.CommandRTL {
		fields = append(fields, "location: "+locationText(it, resolved))
	}
	if it.Command.IsNav() {
		fields = append(fields, "altitude: "+measurementText(it.Altitude, it.AltitudeUnits))
	}
	if it.Command.SupportsRadius() {
		fields = append(fields, "radius: "+measurementText(it.Radius, it.RadiusUnits))
	}
	if it.Command.SupportsHeading() {
		if it.Heading != "" {
			fields = append(fields, "heading: "+it.Heading)
		} else {
			fields = append(fields, "heading: "+unspecified)
		}
	}
	if it.SearchTarget != nil {
		behavior := unspecified
		if it.DetectionBehavior != nil {
			behavior = *it.DetectionBehavior
		}
		fields = append(fields, fmt.Sprintf("search: %s (%s)", *it.SearchTarget, behavior))
	} else {
		fields = append(fields, "search: "+unspecified)
	}

	return fmt.Sprintf("    <item position=\"%d\" type=%q>%s</item>\n",
		position, string(it.Command), strings.Join(fields, " | "))
}

func locationText(it *model.Item, resolved *model.Position) string {
	if it.Command == model.CommandSurvey && it.SurveyMode == model.SurveyPolygon {
		if resolved != nil {
			return fmt.Sprintf("polygon of %d corners centered at %.6f, %.6f",
				len(it.Corners), resolved.Lat, resolved.Lon)
		}
		return fmt.Sprintf("polygon of %d corners", len(it.Corners))
	}
	if resolved != nil {
		return fmt.Sprintf("%.6f, %.6f", resolved.Lat, resolved.Lon)
	}
	if it.MGRS != "" {
		return "MGRS " + it.MGRS
	}
	if it.Command == model.CommandTakeoff || it.Command == model.CommandRTL {
		return "launch point"
	}
	return unspecified
}

func measurementText(value *float64, units string) string {
	if value == nil {
		return unspecified
	}
	if units == "" {
		return fmt.Sprintf("%g", *value)
	}
	return fmt.Sprintf("%g %s", *value, units)
}
