// Package config loads the YAML configuration shared by the preprocess and
// server commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/azybler/roadnav/pkg/shape"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Default returns the configuration used when no file is given.
func Default() AppConfig {
	fields := shape.DefaultFieldNames()
	return AppConfig{
		Server: ServerConfig{
			Port:             8080,
			MaxConcurrent:    16,
			RequestTimeoutMS: 5000,
			ReadTimeoutMS:    5000,
			WriteTimeoutMS:   10000,
		},
		Graph: GraphConfig{
			Path:     "graph.bin",
			Directed: true,
		},
		Routing: RoutingConfig{
			MaxSnapDistance: 500,
			Consolidate:     true,
		},
		Source: SourceConfig{
			RoadNameField:  fields.RoadName,
			DirectionField: fields.Direction,
		},
	}
}

// Load reads and validates the configuration at path. Keys missing from the
// file keep their Default values.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks every section of cfg.
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
