// Package model holds the mission data model: the ordered list of typed
// mission items, its sequencing invariant, and the read-time resolution of
// relative positions into absolute coordinates.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Mission is the single active flight plan: an ordered sequence of items
// whose Sequence fields always equal their index.
type Mission struct {
	ID         uuid.UUID `json:"id"`
	Items      []*Item   `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// New creates an empty mission.
func New() *Mission {
	now := time.Now().UTC()
	return &Mission{
		ID:         uuid.New(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// Len returns the number of items.
func (m *Mission) Len() int { return len(m.Items) }

// InsertAt inserts the item at a 1-based position. Position <= 0 appends. A
// position beyond the current length appends. The whole list is resequenced
// afterwards so Sequence always matches index.
func (m *Mission) InsertAt(item *Item, position int) *Item {
	if position <= 0 || position > len(m.Items) {
		m.Items = append(m.Items, item)
	} else {
		idx := position - 1
		m.Items = append(m.Items, nil)
		copy(m.Items[idx+1:], m.Items[idx:])
		m.Items[idx] = item
	}
	m.resequence()
	m.Touch()
	return item
}

// Append adds the item at the end of the mission.
func (m *Mission) Append(item *Item) *Item {
	return m.InsertAt(item, 0)
}

// Remove deletes the item at the 0-based index and resequences.
func (m *Mission) Remove(index int) {
	m.Items = append(m.Items[:index], m.Items[index+1:]...)
	m.resequence()
	m.Touch()
}

// MoveTo repositions the item at 0-based index from to 0-based index to,
// shifting the items between them. After the move the item sits at index
// to.
func (m *Mission) MoveTo(from, to int) {
	if from == to {
		return
	}
	item := m.Items[from]
	m.Items = append(m.Items[:from], m.Items[from+1:]...)
	m.Items = append(m.Items, nil)
	copy(m.Items[to+1:], m.Items[to:])
	m.Items[to] = item
	m.resequence()
	m.Touch()
}

// MoveAllToFront stably moves every item of the given command type to the
// front, preserving the relative order within both groups. Returns whether
// any item moved.
func (m *Mission) MoveAllToFront(cmd CommandType) bool {
	matched, rest, moved := partition(m.Items, cmd)
	if !moved {
		return false
	}
	m.Items = append(matched, rest...)
	m.resequence()
	m.Touch()
	return true
}

// MoveAllToEnd stably moves every item of the given command type to the end,
// preserving the relative order within both groups. Returns whether any item
// moved.
func (m *Mission) MoveAllToEnd(cmd CommandType) bool {
	matched, rest, _ := partition(m.Items, cmd)
	if len(matched) == 0 {
		return false
	}
	// Already a contiguous tail block?
	tail := m.Items[len(m.Items)-len(matched):]
	moved := false
	for _, it := range tail {
		if it.Command != cmd {
			moved = true
			break
		}
	}
	if !moved {
		return false
	}
	m.Items = append(rest, matched...)
	m.resequence()
	m.Touch()
	return true
}

func partition(items []*Item, cmd CommandType) (matched, rest []*Item, interleaved bool) {
	for _, it := range items {
		if it.Command == cmd {
			if len(rest) > 0 {
				interleaved = true
			}
			matched = append(matched, it)
		} else {
			rest = append(rest, it)
		}
	}
	return matched, rest, interleaved
}

// ClearItems removes every item.
func (m *Mission) ClearItems() {
	m.Items = m.Items[:0]
	m.Touch()
}

// Touch bumps the modification timestamp. Field-level mutations call this
// directly.
func (m *Mission) Touch() {
	m.ModifiedAt = time.Now().UTC()
}

func (m *Mission) resequence() {
	for i, item := range m.Items {
		item.Sequence = i
	}
}

// Snapshot captures the item list and modification time for rollback.
type Snapshot struct {
	items      []*Item
	modifiedAt time.Time
}

// TakeSnapshot deep-copies the item list. Restoring the snapshot returns
// the mission to this exact state, including sequence numbers.
func (m *Mission) TakeSnapshot() Snapshot {
	items := make([]*Item, len(m.Items))
	for i, it := range m.Items {
		items[i] = it.Clone()
	}
	return Snapshot{items: items, modifiedAt: m.ModifiedAt}
}

// Restore replaces the mission's items with the snapshot contents.
func (m *Mission) Restore(s Snapshot) {
	m.Items = s.items
	m.ModifiedAt = s.modifiedAt
}

// ToMap renders the mission as a plain nested mapping, the shape external
// callers serialize. Unset optional fields are present with nil values so
// consumers can tell "not provided" from zero.
func (m *Mission) ToMap() map[string]any {
	return m.toMap(nil)
}

// ToResolvedMap is ToMap with every item's relative position resolved to
// absolute coordinates where possible, for display.
func (m *Mission) ToResolvedMap(origin Origin) map[string]any {
	positions := m.ResolvePositions(origin)
	return m.toMap(positions)
}

func (m *Mission) toMap(positions []*Position) map[string]any {
	items := make([]map[string]any, len(m.Items))
	for i, it := range m.Items {
		entry := map[string]any{
			"sequence":           it.Sequence,
			"command_type":       string(it.Command),
			"latitude":           floatOrNil(it.Latitude),
			"longitude":          floatOrNil(it.Longitude),
			"mgrs":               stringOrNil(it.MGRS),
			"distance":           floatOrNil(it.Distance),
			"distance_units":     stringOrNil(it.DistanceUnits),
			"heading":            stringOrNil(it.Heading),
			"reference_frame":    stringOrNil(string(it.Frame)),
			"altitude":           floatOrNil(it.Altitude),
			"altitude_units":     stringOrNil(it.AltitudeUnits),
			"radius":             floatOrNil(it.Radius),
			"radius_units":       stringOrNil(it.RadiusUnits),
			"search_target":      stringPtrOrNil(it.SearchTarget),
			"detection_behavior": stringPtrOrNil(it.DetectionBehavior),
		}
		if it.Command == CommandSurvey {
			entry["survey_mode"] = string(it.SurveyMode)
			corners := make([]map[string]any, len(it.Corners))
			for j, c := range it.Corners {
				corners[j] = map[string]any{
					"latitude":  floatOrNil(c.Latitude),
					"longitude": floatOrNil(c.Longitude),
					"mgrs":      stringOrNil(c.MGRS),
				}
			}
			entry["corners"] = corners
		}
		if positions != nil && positions[i] != nil {
			entry["latitude"] = positions[i].Lat
			entry["longitude"] = positions[i].Lon
		}
		items[i] = entry
	}
	return map[string]any{
		"id":          m.ID.String(),
		"items":       items,
		"created_at":  m.CreatedAt.Format(time.RFC3339),
		"modified_at": m.ModifiedAt.Format(time.RFC3339),
	}
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringPtrOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
