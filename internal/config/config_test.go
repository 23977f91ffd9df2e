package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10, cfg.Sources)
	assert.Equal(t, 500000, cfg.Population)
	assert.InDelta(t, 0.15, cfg.SourceMass, 1e-6)
	assert.Equal(t, "worker", cfg.SeedMode)
	assert.Equal(t, "constant", cfg.Falloff)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: 1234\nfalloff: inverse_square\nseed_mode: run\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Population)
	assert.Equal(t, DefaultSources, cfg.Sources)
	assert.Equal(t, "inverse_square", cfg.Falloff)

	sc, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, physics.FalloffInverseSquare, sc.Falloff)
	assert.Nil(t, sc.Selector)

	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, particles.SeedByChunk, layout.SeedMode)
	assert.Equal(t, 1234, layout.Population)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selector: visible\n"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("binary")
	require.NotNil(t, cfg)
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative sources", func(c *Config) { c.Sources = -1 }},
		{"negative population", func(c *Config) { c.Population = -5 }},
		{"negative extent", func(c *Config) { c.HalfExtent = -1 }},
		{"massless source", func(c *Config) { c.SourceMass = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative dt", func(c *Config) { c.Dt = -0.1 }},
		{"unknown seed mode", func(c *Config) { c.SeedMode = "thread" }},
		{"unknown falloff", func(c *Config) { c.Falloff = "cubic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
		})
	}
}

func TestMasslessSourcesAllowedWithoutSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = 0
	cfg.SourceMass = 0
	assert.NoError(t, cfg.Validate())
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("unity")
	require.NotNil(t, cfg)
	assert.Equal(t, 10, cfg.Sources)
	assert.Equal(t, 500000, cfg.Population)

	cfg.Population = 1
	assert.Equal(t, 500000, GetPreset("unity").Population, "presets must not be mutated through copies")

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"binary", "empty", "small", "terminal", "unity"}, names)

	for _, name := range names {
		assert.NoError(t, GetPreset(name).Validate(), name)
	}
}

func TestLoadIntoOverlaysPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "over.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: 42\n"), 0644))

	cfg := GetPreset("binary")
	require.NoError(t, LoadInto(path, cfg))
	assert.Equal(t, 42, cfg.Steps)
	assert.Equal(t, 2, cfg.Sources)
	assert.Equal(t, "inverse_square", cfg.Falloff)
}
