package config

import (
	"time"

	"github.com/azybler/roadnav/pkg/shape"
)

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port             int    `yaml:"port" validate:"gt=0,lte=65535"`
	CORSOrigin       string `yaml:"corsOrigin"`
	MaxConcurrent    int    `yaml:"maxConcurrent" validate:"gte=0"`
	RequestTimeoutMS int    `yaml:"requestTimeoutMS" validate:"gte=0"`
	ReadTimeoutMS    int    `yaml:"readTimeoutMS" validate:"gte=0"`
	WriteTimeoutMS   int    `yaml:"writeTimeoutMS" validate:"gte=0"`
}

// RequestTimeout returns the per-request timeout.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the connection read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the connection write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// GraphConfig locates the preprocessed graph
type GraphConfig struct {
	Path     string `yaml:"path" validate:"required"`
	Directed bool   `yaml:"directed"`
}

// RoutingConfig contains route query configuration
type RoutingConfig struct {
	MaxSnapDistance float64 `yaml:"maxSnapDistance" validate:"gte=0"`
	Consolidate     bool    `yaml:"consolidate"`
}

// SourceConfig names the record attributes read by the source adapters
type SourceConfig struct {
	RoadNameField  string `yaml:"roadNameField" validate:"required"`
	DirectionField string `yaml:"directionField" validate:"required"`
}

// FieldNames converts the source config for the shape readers.
func (s SourceConfig) FieldNames() shape.FieldNames {
	return shape.FieldNames{Direction: s.DirectionField, RoadName: s.RoadNameField}
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Graph   GraphConfig   `yaml:"graph"`
	Routing RoutingConfig `yaml:"routing"`
	Source  SourceConfig  `yaml:"source"`
}
