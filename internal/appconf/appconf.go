// Package appconf holds the process configuration: the server settings passed
// around as Config, and the YAML file format that can populate it.
package appconf

import "strings"

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps a -env flag or YAML value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config is the server configuration shared with handlers and middleware.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	Verbose   bool
	RateLimit int // requests per second per API key
}

// DataConfig names the input files the routing graph and pass catalog are built from.
type DataConfig struct {
	Tracks   string
	Stations string
	GTFS     string
	Passes   string
	PassDB   string
	Keys     PropertyKeys
}

// PropertyKeys lists, per attribute, the GeoJSON property names tried in order.
type PropertyKeys struct {
	Operator    []string `yaml:"operator" validate:"omitempty,dive,required"`
	Line        []string `yaml:"line" validate:"omitempty,dive,required"`
	StationID   []string `yaml:"stationId" validate:"omitempty,dive,required"`
	StationName []string `yaml:"stationName" validate:"omitempty,dive,required"`
}

// DefaultPropertyKeys accepts plain keys as well as the keys of the national
// land numerical rail dataset.
func DefaultPropertyKeys() PropertyKeys {
	return PropertyKeys{
		Operator:    []string{"operator", "N02_004"},
		Line:        []string{"line", "N02_003"},
		StationID:   []string{"id", "station_id", "N02_005c"},
		StationName: []string{"name", "N02_005"},
	}
}

// RoutingConfig carries the tunable constants of the routing core.
type RoutingConfig struct {
	Fare      FareConfig    `yaml:"fare"`
	Speed     SpeedConfig   `yaml:"speed"`
	Penalties PenaltyConfig `yaml:"penalties"`

	TransferRadius        float64 `yaml:"transferRadius" validate:"gt=0"`
	TransferResolveRadius float64 `yaml:"transferResolveRadius" validate:"gt=0"`
	GridCellSize          float64 `yaml:"gridCellSize" validate:"gt=0,lte=1"`
	MaxRings              int     `yaml:"maxRings" validate:"gt=0"`
	CacheSize             int     `yaml:"cacheSize" validate:"gte=0"`
}

type FareConfig struct {
	Base  float64 `yaml:"base" validate:"gte=0"`
	PerKm float64 `yaml:"perKm" validate:"gte=0"`
}

type SpeedConfig struct {
	AverageKmh float64 `yaml:"averageKmh" validate:"gt=0"`
}

type PenaltyConfig struct {
	OperatorChange float64 `yaml:"operatorChange" validate:"gte=0"`
	LineChange     float64 `yaml:"lineChange" validate:"gte=0"`
}

// DefaultRoutingConfig returns the constants used when nothing is configured.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		Fare:                  FareConfig{Base: 150, PerKm: 20},
		Speed:                 SpeedConfig{AverageKmh: 40},
		Penalties:             PenaltyConfig{OperatorChange: 500, LineChange: 200},
		TransferRadius:        220,
		TransferResolveRadius: 180,
		GridCellSize:          0.01,
		MaxRings:              50,
		CacheSize:             512,
	}
}
