package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/physics"
	"github.com/san-kum/gravfield/internal/sim"
	"github.com/san-kum/gravfield/internal/transfer"
)

const (
	DefaultSources    = 10
	DefaultPopulation = 500000
	DefaultHalfExtent = 8.0
	DefaultSourceMass = 0.15
	DefaultG          = 1.0
	DefaultChunkSize  = 10000
	DefaultDt         = 1.0 / 60.0
	DefaultSteps      = 600
	DefaultFPS        = 60
)

type Config struct {
	Sources    int     `yaml:"sources"`
	Population int     `yaml:"population"`
	HalfExtent float32 `yaml:"half_extent"`
	SourceMass float32 `yaml:"source_mass"`
	G          float32 `yaml:"g"`
	ChunkSize  int     `yaml:"chunk_size"`
	Workers    int     `yaml:"workers"`
	Seed       int64   `yaml:"seed"`
	SeedMode   string  `yaml:"seed_mode"`
	Falloff    string  `yaml:"falloff"`
	Softening  float32 `yaml:"softening"`
	Selector   string  `yaml:"selector"`
	Dt         float32 `yaml:"dt"`
	Steps      int     `yaml:"steps"`
	FPS        int     `yaml:"fps"`
}

func DefaultConfig() *Config {
	return &Config{
		Sources:    DefaultSources,
		Population: DefaultPopulation,
		HalfExtent: DefaultHalfExtent,
		SourceMass: DefaultSourceMass,
		G:          DefaultG,
		ChunkSize:  DefaultChunkSize,
		SeedMode:   particles.SeedByWorker.String(),
		Falloff:    physics.FalloffConstant.String(),
		Selector:   "all",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		FPS:        DefaultFPS,
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the fields present in the yaml file at path onto cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", dynamo.ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}

// Validate checks every field; the first problem found is returned.
func (c *Config) Validate() error {
	switch {
	case c.Sources < 0:
		return invalid("sources", "must not be negative, got %d", c.Sources)
	case c.Population < 0:
		return invalid("population", "must not be negative, got %d", c.Population)
	case c.HalfExtent < 0:
		return invalid("half_extent", "must not be negative, got %g", c.HalfExtent)
	case c.Sources > 0 && c.SourceMass <= 0:
		return invalid("source_mass", "must be positive, got %g", c.SourceMass)
	case c.ChunkSize < 0:
		return invalid("chunk_size", "must not be negative, got %d", c.ChunkSize)
	case c.Workers < 0:
		return invalid("workers", "must not be negative, got %d", c.Workers)
	case c.Softening < 0:
		return invalid("softening", "must not be negative, got %g", c.Softening)
	case c.Dt < 0:
		return invalid("dt", "must not be negative, got %g", c.Dt)
	case c.Steps < 0:
		return invalid("steps", "must not be negative, got %d", c.Steps)
	case c.FPS < 0:
		return invalid("fps", "must not be negative, got %d", c.FPS)
	}

	if _, err := particles.ParseSeedMode(c.SeedMode); err != nil {
		return err
	}
	if _, err := physics.ParseFalloff(c.Falloff); err != nil {
		return err
	}
	if _, err := transfer.SelectorByName(c.Selector); err != nil {
		return err
	}
	return nil
}

// Layout converts the config into the initial particle layout.
func (c *Config) Layout() (particles.Layout, error) {
	mode, err := particles.ParseSeedMode(c.SeedMode)
	if err != nil {
		return particles.Layout{}, err
	}
	return particles.Layout{
		Sources:    c.Sources,
		Population: c.Population,
		HalfExtent: c.HalfExtent,
		SourceMass: c.SourceMass,
		ChunkSize:  c.ChunkSize,
		Seed:       c.Seed,
		SeedMode:   mode,
	}, nil
}

// Pipeline converts the config into the pipeline settings.
func (c *Config) Pipeline() (sim.Config, error) {
	falloff, err := physics.ParseFalloff(c.Falloff)
	if err != nil {
		return sim.Config{}, err
	}
	sel, err := transfer.SelectorByName(c.Selector)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		ChunkSize: c.ChunkSize,
		G:         c.G,
		Falloff:   falloff,
		Softening: c.Softening,
		Selector:  sel,
	}, nil
}

// Clone returns an independent copy, so presets can be overridden safely.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
