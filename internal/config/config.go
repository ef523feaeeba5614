// Package config loads agent configuration from a JSON file via viper and
// exposes it as a typed snapshot. Components receive the snapshot value
// explicitly; nothing reads viper after startup.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// CommandParams holds per-command-type parameter defaults and bounds used
// by validation auto-completion. Altitude and radius bounds are in meters.
type CommandParams struct {
	DefaultAltitude float64
	AltitudeUnits   string
	MinAltitude     float64
	MaxAltitude     float64

	// Smart defaulting strategy switches.
	UsePreviousAltitude     bool // inherit nearest prior nav altitude
	UseTakeoffAltitude      bool // inherit the mission's takeoff altitude
	UseLastWaypointLocation bool // inherit nearest prior resolved position

	DefaultRadius float64
	RadiusUnits   string
	MinRadius     float64
	MaxRadius     float64

	DefaultLatitude  float64
	DefaultLongitude float64
	DefaultHeading   string
}

// Agent is the full agent behavior configuration, passed by value into the
// validator and manager.
type Agent struct {
	MaxMissionItems int

	// Home/takeoff location the "origin" reference frame resolves to.
	TakeoffLatitude  float64
	TakeoffLongitude float64

	// Mission structure rules.
	SingleTakeoffOnly  bool
	SingleRTLOnly      bool
	TakeoffMustBeFirst bool
	RTLMustBeLast      bool
	AutoFixPositioning bool

	// Parameter completion behavior.
	AutoAddMissingTakeoff  bool
	AutoAddMissingRTL      bool
	AutoCompleteParameters bool

	// Global absolute clamps, in meters, intersected with the per-type
	// bounds during auto-completion.
	GlobalMinAltitude float64
	GlobalMaxAltitude float64
	GlobalMinRadius   float64
	GlobalMaxRadius   float64

	DefaultDistanceUnits     string
	DefaultSearchTarget      string
	DefaultDetectionBehavior string

	Takeoff  CommandParams
	Waypoint CommandParams
	Loiter   CommandParams
	RTL      CommandParams
	Survey   CommandParams
}

// Params returns the CommandParams for a command type name. Unknown types
// get waypoint parameters, the most generic set.
func (a Agent) Params(commandType string) CommandParams {
	switch commandType {
	case "takeoff":
		return a.Takeoff
	case "waypoint":
		return a.Waypoint
	case "loiter":
		return a.Loiter
	case "rtl":
		return a.RTL
	case "survey":
		return a.Survey
	default:
		return a.Waypoint
	}
}

// ConfigName is the JSON config file viper looks for in the config
// directory.
const ConfigName = "px4agent.cfg.json"

// Load reads configuration from the JSON file in configDir and sets default
// values for every key.
func Load(configDir string) error {
	setDefaults(viper.GetViper())

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value by key.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value by key.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value by key.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// AgentSettings builds the typed settings snapshot from the loaded
// configuration.
func AgentSettings() Agent {
	return agentFrom(viper.GetViper())
}

// DefaultAgent returns the built-in defaults without reading a config
// file. Uses a private viper instance so global state is untouched.
func DefaultAgent() Agent {
	v := viper.New()
	setDefaults(v)
	return agentFrom(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "./px4agent-logs")
	v.SetDefault("mode", "mission")

	v.SetDefault("agent.maxMissionItems", 100)
	v.SetDefault("agent.takeoffLatitude", 0.0)
	v.SetDefault("agent.takeoffLongitude", 0.0)

	v.SetDefault("agent.singleTakeoffOnly", true)
	v.SetDefault("agent.singleRtlOnly", true)
	v.SetDefault("agent.takeoffMustBeFirst", true)
	v.SetDefault("agent.rtlMustBeLast", true)
	v.SetDefault("agent.autoFixPositioning", true)
	v.SetDefault("agent.autoAddMissingTakeoff", true)
	v.SetDefault("agent.autoAddMissingRtl", true)
	v.SetDefault("agent.autoCompleteParameters", true)

	v.SetDefault("agent.globalMinAltitude", 1.0)
	v.SetDefault("agent.globalMaxAltitude", 1000.0)
	v.SetDefault("agent.globalMinRadius", 5.0)
	v.SetDefault("agent.globalMaxRadius", 10000.0)

	v.SetDefault("agent.defaultDistanceUnits", "meters")
	v.SetDefault("agent.defaultSearchTarget", "")
	v.SetDefault("agent.defaultDetectionBehavior", "tag_and_continue")

	v.SetDefault("takeoff.defaultAltitude", 50.0)
	v.SetDefault("takeoff.altitudeUnits", "meters")
	v.SetDefault("takeoff.minAltitude", 10.0)
	v.SetDefault("takeoff.maxAltitude", 150.0)
	v.SetDefault("takeoff.defaultHeading", "north")

	v.SetDefault("waypoint.defaultAltitude", 100.0)
	v.SetDefault("waypoint.altitudeUnits", "meters")
	v.SetDefault("waypoint.minAltitude", 10.0)
	v.SetDefault("waypoint.maxAltitude", 500.0)
	v.SetDefault("waypoint.usePreviousAltitude", true)

	v.SetDefault("loiter.defaultAltitude", 100.0)
	v.SetDefault("loiter.altitudeUnits", "meters")
	v.SetDefault("loiter.minAltitude", 10.0)
	v.SetDefault("loiter.maxAltitude", 500.0)
	v.SetDefault("loiter.usePreviousAltitude", true)
	v.SetDefault("loiter.defaultRadius", 120.0)
	v.SetDefault("loiter.radiusUnits", "meters")
	v.SetDefault("loiter.minRadius", 5.0)
	v.SetDefault("loiter.maxRadius", 1000.0)
	v.SetDefault("loiter.useLastWaypointLocation", true)
	v.SetDefault("loiter.defaultLatitude", 0.0)
	v.SetDefault("loiter.defaultLongitude", 0.0)

	v.SetDefault("rtl.defaultAltitude", 100.0)
	v.SetDefault("rtl.altitudeUnits", "meters")
	v.SetDefault("rtl.minAltitude", 10.0)
	v.SetDefault("rtl.maxAltitude", 500.0)
	v.SetDefault("rtl.useTakeoffAltitude", true)

	v.SetDefault("survey.defaultAltitude", 100.0)
	v.SetDefault("survey.altitudeUnits", "meters")
	v.SetDefault("survey.minAltitude", 10.0)
	v.SetDefault("survey.maxAltitude", 500.0)
	v.SetDefault("survey.usePreviousAltitude", true)
	v.SetDefault("survey.defaultRadius", 300.0)
	v.SetDefault("survey.radiusUnits", "meters")
	v.SetDefault("survey.minRadius", 10.0)
	v.SetDefault("survey.maxRadius", 5000.0)
	v.SetDefault("survey.useLastWaypointLocation", true)
	v.SetDefault("survey.defaultLatitude", 0.0)
	v.SetDefault("survey.defaultLongitude", 0.0)
}

func agentFrom(v *viper.Viper) Agent {
	return Agent{
		MaxMissionItems:  v.GetInt("agent.maxMissionItems"),
		TakeoffLatitude:  v.GetFloat64("agent.takeoffLatitude"),
		TakeoffLongitude: v.GetFloat64("agent.takeoffLongitude"),

		SingleTakeoffOnly:  v.GetBool("agent.singleTakeoffOnly"),
		SingleRTLOnly:      v.GetBool("agent.singleRtlOnly"),
		TakeoffMustBeFirst: v.GetBool("agent.takeoffMustBeFirst"),
		RTLMustBeLast:      v.GetBool("agent.rtlMustBeLast"),
		AutoFixPositioning: v.GetBool("agent.autoFixPositioning"),

		AutoAddMissingTakeoff:  v.GetBool("agent.autoAddMissingTakeoff"),
		AutoAddMissingRTL:      v.GetBool("agent.autoAddMissingRtl"),
		AutoCompleteParameters: v.GetBool("agent.autoCompleteParameters"),

		GlobalMinAltitude: v.GetFloat64("agent.globalMinAltitude"),
		GlobalMaxAltitude: v.GetFloat64("agent.globalMaxAltitude"),
		GlobalMinRadius:   v.GetFloat64("agent.globalMinRadius"),
		GlobalMaxRadius:   v.GetFloat64("agent.globalMaxRadius"),

		DefaultDistanceUnits:     v.GetString("agent.defaultDistanceUnits"),
		DefaultSearchTarget:      v.GetString("agent.defaultSearchTarget"),
		DefaultDetectionBehavior: v.GetString("agent.defaultDetectionBehavior"),

		Takeoff:  commandParams(v, "takeoff"),
		Waypoint: commandParams(v, "waypoint"),
		Loiter:   commandParams(v, "loiter"),
		RTL:      commandParams(v, "rtl"),
		Survey:   commandParams(v, "survey"),
	}
}

func commandParams(v *viper.Viper, prefix string) CommandParams {
	return CommandParams{
		DefaultAltitude:         v.GetFloat64(prefix + ".defaultAltitude"),
		AltitudeUnits:           v.GetString(prefix + ".altitudeUnits"),
		MinAltitude:             v.GetFloat64(prefix + ".minAltitude"),
		MaxAltitude:             v.GetFloat64(prefix + ".maxAltitude"),
		UsePreviousAltitude:     v.GetBool(prefix + ".usePreviousAltitude"),
		UseTakeoffAltitude:      v.GetBool(prefix + ".useTakeoffAltitude"),
		UseLastWaypointLocation: v.GetBool(prefix + ".useLastWaypointLocation"),
		DefaultRadius:           v.GetFloat64(prefix + ".defaultRadius"),
		RadiusUnits:             v.GetString(prefix + ".radiusUnits"),
		MinRadius:               v.GetFloat64(prefix + ".minRadius"),
		MaxRadius:               v.GetFloat64(prefix + ".maxRadius"),
		DefaultLatitude:         v.GetFloat64(prefix + ".defaultLatitude"),
		DefaultLongitude:        v.GetFloat64(prefix + ".defaultLongitude"),
		DefaultHeading:          v.GetString(prefix + ".defaultHeading"),
	}
}
