package model

import (
	"github.com/scferro/px4-agent/internal/geo"
)

// Origin is the configured takeoff/home location that the "origin"
// reference frame and unpositioned takeoff items resolve to.
type Origin struct {
	Latitude  float64
	Longitude float64
}

// Position is a resolved absolute coordinate pair.
type Position struct {
	Lat float64
	Lon float64
}

// ResolvePositions resolves every item's position to absolute coordinates
// in a single left-to-right pass, threading the most recently resolved
// point forward so "last_waypoint" references chain through prior resolved
// positions rather than raw relative descriptions.
//
// The returned slice is index-aligned with Items; entries are nil where no
// position can be determined (RTL, MGRS-only items, or relative items with
// an unresolvable anchor).
func (m *Mission) ResolvePositions(origin Origin) []*Position {
	positions := make([]*Position, len(m.Items))
	var last *Position

	for i, it := range m.Items {
		pos := resolveItem(it, origin, last)
		positions[i] = pos
		if pos != nil {
			last = pos
		}
	}
	return positions
}

func resolveItem(it *Item, origin Origin, last *Position) *Position {
	// Stored absolute coordinates win.
	if it.Latitude != nil && it.Longitude != nil {
		return &Position{Lat: *it.Latitude, Lon: *it.Longitude}
	}

	// A polygon survey resolves to its corner centroid.
	if it.Command == CommandSurvey && it.SurveyMode == SurveyPolygon {
		return polygonPosition(it)
	}

	// Relative description.
	if it.Distance != nil && it.Heading != "" && it.Command.SupportsPosition() {
		anchor := resolveAnchor(it, origin, last)
		if anchor == nil {
			return nil
		}
		lat, lon := geo.DestinationPoint(anchor.Lat, anchor.Lon, *it.Distance, it.Heading, it.DistanceUnits)
		return &Position{Lat: lat, Lon: lon}
	}

	// An unpositioned takeoff launches from the configured home location.
	if it.Command == CommandTakeoff {
		return &Position{Lat: origin.Latitude, Lon: origin.Longitude}
	}

	// MGRS is opaque here; RTL and unpositioned items stay unresolved.
	return nil
}

func resolveAnchor(it *Item, origin Origin, last *Position) *Position {
	switch it.Frame {
	case FrameSelf:
		// Self moves are resolved and flattened at move time; an item that
		// still carries a self frame without coordinates has no anchor.
		if it.Latitude != nil && it.Longitude != nil {
			return &Position{Lat: *it.Latitude, Lon: *it.Longitude}
		}
		return nil
	case FrameLastWaypoint:
		if last != nil {
			return last
		}
		return &Position{Lat: origin.Latitude, Lon: origin.Longitude}
	default:
		// Origin, empty, and unknown frames all anchor at home.
		return &Position{Lat: origin.Latitude, Lon: origin.Longitude}
	}
}

func polygonPosition(it *Item) *Position {
	var lats, lons []float64
	for _, c := range it.Corners {
		if c.Latitude != nil && c.Longitude != nil {
			lats = append(lats, *c.Latitude)
			lons = append(lons, *c.Longitude)
		}
	}
	poly, err := geo.SurveyPolygon(lats, lons)
	if err != nil {
		return nil
	}
	lat, lon, ok := geo.PolygonCentroid(poly)
	if !ok {
		return nil
	}
	return &Position{Lat: lat, Lon: lon}
}

// LastNavPosition returns the stored absolute coordinates of the nearest
// navigation item before the 0-based index, walking backward. Items whose
// positions are only relative are skipped; this is the anchor lookup used
// when a mutation needs a concrete point rather than the display-time
// chained resolution.
func (m *Mission) LastNavPosition(before int) *Position {
	if before > len(m.Items) {
		before = len(m.Items)
	}
	for i := before - 1; i >= 0; i-- {
		it := m.Items[i]
		if !it.Command.IsNav() || it.Command == CommandRTL {
			continue
		}
		if it.Latitude != nil && it.Longitude != nil {
			return &Position{Lat: *it.Latitude, Lon: *it.Longitude}
		}
	}
	return nil
}

// LastNavAltitude returns the altitude and units of the nearest prior nav
// item that has an altitude set, walking backward from the 0-based index.
func (m *Mission) LastNavAltitude(before int) (*float64, string) {
	if before > len(m.Items) {
		before = len(m.Items)
	}
	for i := before - 1; i >= 0; i-- {
		it := m.Items[i]
		if it.Command.IsNav() && it.Altitude != nil {
			v := *it.Altitude
			return &v, it.AltitudeUnits
		}
	}
	return nil, ""
}

// TakeoffAltitude returns the altitude of the mission's takeoff item, if
// one exists with an altitude set.
func (m *Mission) TakeoffAltitude() (*float64, string) {
	for _, it := range m.Items {
		if it.Command == CommandTakeoff && it.Altitude != nil {
			v := *it.Altitude
			return &v, it.AltitudeUnits
		}
	}
	return nil, ""
}
