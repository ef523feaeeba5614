package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scferro/px4-agent/internal/geo"
	"github.com/scferro/px4-agent/internal/manager"
	"github.com/scferro/px4-agent/internal/model"
	"github.com/scferro/px4-agent/internal/parsing"
	"github.com/scferro/px4-agent/internal/validator"
)

const replHelp = `commands:
  new                              create a fresh mission
  mode <mission|command>           switch validation mode
  takeoff [altitude] [heading]     e.g. takeoff 50m north
  waypoint <position> [alt <text>] e.g. waypoint 500 feet east
                                        waypoint 47.39,8.54 alt 100m
  loiter <position> [radius <text>] [alt <text>]
  survey <lat,lon> [radius <text>] [alt <text>]
  rtl [alt <text>]
  update <seq> <alt|radius|heading|target> <text>
  move <seq> <position>            position as lat,lon or "<dist> <heading> [from <frame>]"
  reorder <seq> <position>
  delete <seq>
  validate                         run full validation, applying repairs
  state                            print the mission state summary
  clear                            drop the mission
  quit`

// runREPL drives the manager from a line-oriented planner prompt. It is a
// thin transport: all mission semantics live in the manager.
func runREPL(mgr *manager.Manager, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "px4agent planner. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, replHelp)
		case "new":
			mission := mgr.CreateMission()
			fmt.Fprintf(out, "mission %s created\n", mission.ID)
		case "mode":
			if len(args) != 1 {
				fmt.Fprintln(out, "usage: mode <mission|command>")
				continue
			}
			mgr.SetMode(validator.ParseMode(args[0]))
			fmt.Fprintf(out, "mode set to %s\n", mgr.Mode())
		case "clear":
			if mgr.ClearMission() {
				fmt.Fprintln(out, "mission cleared")
			} else {
				fmt.Fprintln(out, "no mission to clear")
			}
		case "state":
			fmt.Fprintln(out, mgr.StateSummary())
		case "validate":
			ok, msgs := mgr.ValidateMission()
			fmt.Fprintf(out, "valid: %v\n", ok)
			for _, msg := range msgs {
				fmt.Fprintln(out, "  "+msg)
			}
		case "takeoff":
			res, err := addTakeoff(mgr, args)
			report(out, res, err)
		case "waypoint":
			res, err := addWaypoint(mgr, args)
			report(out, res, err)
		case "loiter":
			res, err := addLoiter(mgr, args)
			report(out, res, err)
		case "survey":
			res, err := addSurvey(mgr, args)
			report(out, res, err)
		case "rtl":
			_, keyed := splitKeyed(args)
			res, err := mgr.AddRTL(manager.RTLParams{Altitude: altOf(keyed), AltitudeUnits: altUnitsOf(keyed)})
			report(out, res, err)
		case "update":
			res, err := updateItem(mgr, args)
			report(out, res, err)
		case "move":
			res, err := moveItem(mgr, args)
			report(out, res, err)
		case "reorder":
			seq, pos, err := twoInts(args)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			res, err := mgr.ReorderItem(seq, pos)
			report(out, res, err)
		case "delete":
			seq, err := oneInt(args)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			res, err := mgr.DeleteItem(seq)
			report(out, res, err)
		default:
			fmt.Fprintf(out, "unknown command %q; type 'help'\n", cmd)
		}
	}
}

func report(out io.Writer, res *manager.Result, err error) {
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	for _, c := range res.Changes {
		fmt.Fprintln(out, "  "+c)
	}
	for _, f := range res.Fixes {
		fmt.Fprintln(out, "  fix: "+f)
	}
	fmt.Fprintln(out, res.Summary)
}

func addTakeoff(mgr *manager.Manager, args []string) (*manager.Result, error) {
	p := manager.TakeoffParams{}
	for _, a := range args {
		if geo.IsKnownHeading(a) {
			p.Heading = a
			continue
		}
		if v, u := parsing.ParseAltitude(a); v != nil {
			p.Altitude, p.AltitudeUnits = v, u
		}
	}
	return mgr.AddTakeoff(p)
}

func addWaypoint(mgr *manager.Manager, args []string) (*manager.Result, error) {
	posArgs, keyed := splitKeyed(args)
	pos, err := parsePosition(posArgs)
	if err != nil {
		return nil, err
	}
	return mgr.AddWaypoint(manager.WaypointParams{
		Position: pos,
		Altitude: altOf(keyed), AltitudeUnits: altUnitsOf(keyed),
	})
}

func addLoiter(mgr *manager.Manager, args []string) (*manager.Result, error) {
	posArgs, keyed := splitKeyed(args)
	pos, err := parsePosition(posArgs)
	if err != nil {
		return nil, err
	}
	radius, radiusUnits := radiusOf(keyed)
	return mgr.AddLoiter(manager.LoiterParams{
		Position: pos,
		Radius:   radius, RadiusUnits: radiusUnits,
		Altitude: altOf(keyed), AltitudeUnits: altUnitsOf(keyed),
	})
}

func addSurvey(mgr *manager.Manager, args []string) (*manager.Result, error) {
	posArgs, keyed := splitKeyed(args)
	pos, err := parsePosition(posArgs)
	if err != nil {
		return nil, err
	}
	radius, radiusUnits := radiusOf(keyed)
	return mgr.AddSurvey(manager.SurveyParams{
		Center: pos,
		Radius: radius, RadiusUnits: radiusUnits,
		Altitude: altOf(keyed), AltitudeUnits: altUnitsOf(keyed),
	})
}

func updateItem(mgr *manager.Manager, args []string) (*manager.Result, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("usage: update <seq> <alt|radius|heading|target> <text>")
	}
	seq, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("bad sequence number %q", args[0])
	}
	text := strings.Join(args[2:], " ")
	p := manager.UpdateParams{}
	switch strings.ToLower(args[1]) {
	case "alt", "altitude":
		v, u := parsing.ParseAltitude(text)
		if v == nil {
			return nil, fmt.Errorf("could not parse altitude %q", text)
		}
		p.Altitude, p.AltitudeUnits = v, &u
	case "radius":
		v, u := parsing.ParseRadius(text)
		if v == nil {
			return nil, fmt.Errorf("could not parse radius %q", text)
		}
		p.Radius, p.RadiusUnits = v, &u
	case "heading":
		p.Heading = model.String(text)
	case "target":
		p.SearchTarget = model.String(text)
	default:
		return nil, fmt.Errorf("unknown field %q", args[1])
	}
	return mgr.UpdateItem(seq, p)
}

func moveItem(mgr *manager.Manager, args []string) (*manager.Result, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: move <seq> <position>")
	}
	seq, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("bad sequence number %q", args[0])
	}
	pos, err := parsePosition(args[1:])
	if err != nil {
		return nil, err
	}
	return mgr.MoveItem(seq, manager.MoveParams{
		Latitude: pos.Latitude, Longitude: pos.Longitude,
		MGRS:     pos.MGRS,
		Distance: pos.Distance, DistanceUnits: pos.DistanceUnits,
		Heading:  pos.Heading, Frame: pos.Frame,
	})
}

// parsePosition reads either "lat,lon" or "<distance text> <heading>
// [from <frame>]" into position params. Relative positions default to the
// last_waypoint frame, matching how a planner describes legs.
func parsePosition(args []string) (manager.PositionParams, error) {
	var p manager.PositionParams
	if len(args) == 0 {
		return p, fmt.Errorf("missing position")
	}

	if lat, lon := parsing.ParseCoordinates(strings.Join(args, " ")); lat != nil && lon != nil {
		p.Latitude, p.Longitude = lat, lon
		return p, nil
	}

	frame := model.FrameLastWaypoint
	rest := args
	for i, a := range args {
		if strings.EqualFold(a, "from") && i+1 < len(args) {
			frame = model.ReferenceFrame(strings.ToLower(args[i+1]))
			rest = args[:i]
			break
		}
	}

	var distanceText []string
	for _, a := range rest {
		if geo.IsKnownHeading(a) {
			p.Heading = strings.ToLower(a)
			continue
		}
		distanceText = append(distanceText, a)
	}
	dist, distUnits := parsing.ParseDistance(strings.Join(distanceText, " "))
	if dist == nil || p.Heading == "" {
		return p, fmt.Errorf("could not parse position from %q", strings.Join(args, " "))
	}
	p.Distance, p.DistanceUnits, p.Frame = dist, distUnits, frame
	return p, nil
}

// splitKeyed separates leading positional words from trailing "alt <text>"
// and "radius <text>" pairs.
func splitKeyed(args []string) (positional []string, keyed map[string]string) {
	keyed = map[string]string{}
	i := 0
	for i < len(args) {
		key := strings.ToLower(args[i])
		if (key == "alt" || key == "altitude" || key == "radius") && i+1 < len(args) {
			name := key
			if name == "altitude" {
				name = "alt"
			}
			keyed[name] = args[i+1]
			i += 2
			continue
		}
		positional = append(positional, args[i])
		i++
	}
	return positional, keyed
}

func altOf(keyed map[string]string) *float64 {
	v, _ := parsing.ParseAltitude(keyed["alt"])
	return v
}

func altUnitsOf(keyed map[string]string) string {
	v, u := parsing.ParseAltitude(keyed["alt"])
	if v == nil {
		return ""
	}
	return u
}

func radiusOf(keyed map[string]string) (*float64, string) {
	return parsing.ParseRadius(keyed["radius"])
}

func oneInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[0])
	}
	return n, nil
}

func twoInts(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected two numbers")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", args[0])
	}
	b, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", args[1])
	}
	return a, b, nil
}
