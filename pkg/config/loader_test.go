package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500.0, cfg.Routing.MaxSnapDistance)
	assert.Equal(t, "EZIRDNMLBL", cfg.Source.RoadNameField)
	assert.Equal(t, "DIR_CODE", cfg.Source.DirectionField)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte(`
server:
  port: 9090
  requestTimeoutMS: 250
graph:
  path: /data/roads.bin
  directed: false
source:
  roadNameField: NAME
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.RequestTimeout())
	assert.Equal(t, 16, cfg.Server.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout())
	assert.Equal(t, "/data/roads.bin", cfg.Graph.Path)
	assert.False(t, cfg.Graph.Directed)
	assert.True(t, cfg.Routing.Consolidate)

	fields := cfg.Source.FieldNames()
	assert.Equal(t, "NAME", fields.RoadName)
	assert.Equal(t, "DIR_CODE", fields.Direction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("invalid: yaml: content: [[["))
	assert.Error(t, err)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero port", "server:\n  port: 0\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative write timeout", "server:\n  writeTimeoutMS: -1\n"},
		{"negative snap distance", "routing:\n  maxSnapDistance: -1\n"},
		{"empty graph path", "graph:\n  path: \"\"\n"},
		{"empty direction field", "source:\n  directionField: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
