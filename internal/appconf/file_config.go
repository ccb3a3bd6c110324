package appconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML representation of the configuration.
type FileConfig struct {
	Port      int      `yaml:"port" validate:"gte=0,lte=65535"`
	Env       string   `yaml:"env" validate:"oneof=development test production"`
	ApiKeys   []string `yaml:"apiKeys" validate:"dive,required"`
	RateLimit int      `yaml:"rateLimit" validate:"gt=0"`
	Verbose   bool     `yaml:"verbose"`

	Data    DataFileConfig `yaml:"data"`
	Routing RoutingConfig  `yaml:"routing"`
}

type DataFileConfig struct {
	Tracks   string       `yaml:"tracks"`
	Stations string       `yaml:"stations" validate:"required_with=Tracks"`
	GTFS     string       `yaml:"gtfs" validate:"required_without=Tracks"`
	Passes   string       `yaml:"passes"`
	PassDB   string       `yaml:"passDB" validate:"required"`
	Keys     PropertyKeys `yaml:"propertyKeys"`
}

// DefaultFileConfig is the baseline every loaded file is decoded on top of.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Port:      4000,
		Env:       "development",
		ApiKeys:   []string{"test"},
		RateLimit: 100,
		Data: DataFileConfig{
			PassDB: "passes.db",
			Keys:   DefaultPropertyKeys(),
		},
		Routing: DefaultRoutingConfig(),
	}
}

// LoadFromFile reads and validates a YAML configuration file. Keys absent from
// the file keep their defaults; unknown keys are rejected.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of the whole configuration tree.
func (c *FileConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *FileConfig) ToAppConfig() Config {
	return Config{
		Port:      c.Port,
		Env:       EnvFlagToEnvironment(c.Env),
		ApiKeys:   c.ApiKeys,
		Verbose:   c.Verbose,
		RateLimit: c.RateLimit,
	}
}

func (c *FileConfig) ToDataConfig() DataConfig {
	return DataConfig{
		Tracks:   c.Data.Tracks,
		Stations: c.Data.Stations,
		GTFS:     c.Data.GTFS,
		Passes:   c.Data.Passes,
		PassDB:   c.Data.PassDB,
		Keys:     c.Data.Keys,
	}
}
