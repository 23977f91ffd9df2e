package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/config"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/metrics"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/sim"
	"github.com/san-kum/gravfield/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset (or the defaults) and applies Overrides,
// which use the same keys as a config file.
type ScenarioRun struct {
	Preset    string    `yaml:"preset"`
	Overrides yaml.Node `yaml:"overrides"`
	SaveAs    string    `yaml:"save_as"`
}

type Outcome struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return &scenario, nil
}

// Resolve builds the config of one run.
func (r ScenarioRun) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %s", dynamo.ErrInvalidConfig, r.Preset)
		}
	}
	if !r.Overrides.IsZero() {
		if err := r.Overrides.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: overrides: %v", dynamo.ErrInvalidConfig, err)
		}
	}
	return cfg, cfg.Validate()
}

// NewPipeline builds the particle store and pipeline described by cfg.
func NewPipeline(cfg *config.Config) (*sim.Pipeline, error) {
	backend := compute.NewCPUBackend(cfg.Workers)

	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	st, err := particles.NewInitializer(layout, backend).Build()
	if err != nil {
		return nil, err
	}

	sc, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}
	return sim.New(st, backend, sc)
}

// runOnce runs cfg.Steps fixed steps with the standard metrics and returns
// the result along with the backend name.
func runOnce(ctx context.Context, cfg *config.Config) (*sim.Result, string, error) {
	if cfg.Steps <= 0 {
		return nil, "", fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrInvalidConfig, cfg.Steps)
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		return nil, "", err
	}
	defer p.Close()
	for _, m := range metrics.Standard() {
		p.AddMetric(m)
	}

	result, err := p.Run(ctx, cfg.Steps, sim.FixedClock{Dt: cfg.Dt})
	return result, p.Backend().Name(), err
}

// RunScenario executes every run in order and stops at the first failure.
// Runs are saved to store when it is not nil. Progress goes to log when it
// is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, log io.Writer) ([]Outcome, error) {
	if log == nil {
		log = io.Discard
	}
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		cfg, err := run.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		name := run.SaveAs
		if name == "" {
			name = run.Preset
		}
		fmt.Fprintf(log, "running %d/%d: %s\n", i+1, len(scenario.Runs), name)

		result, backend, err := runOnce(ctx, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := Outcome{Name: name, Config: cfg, Result: result}
		if store != nil {
			out.RunID, err = store.Save(storage.RunMetadata{
				Preset:     name,
				Seed:       cfg.Seed,
				SeedMode:   cfg.SeedMode,
				Sources:    cfg.Sources,
				Population: cfg.Population,
				Falloff:    cfg.Falloff,
				Selector:   cfg.Selector,
				Backend:    backend,
				Dt:         float64(cfg.Dt),
			}, result)
			if err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
