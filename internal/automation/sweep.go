package automation

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/san-kum/gravfield/internal/config"
	"github.com/san-kum/gravfield/internal/dynamo"
)

// ParameterSweep runs the base config once per evenly spaced value of Param.
type ParameterSweep struct {
	Param string
	Min   float64
	Max   float64
	Count int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

var sweepable = map[string]func(c *config.Config, v float64){
	"g":           func(c *config.Config, v float64) { c.G = float32(v) },
	"source_mass": func(c *config.Config, v float64) { c.SourceMass = float32(v) },
	"softening":   func(c *config.Config, v float64) { c.Softening = float32(v) },
	"dt":          func(c *config.Config, v float64) { c.Dt = float32(v) },
	"half_extent": func(c *config.Config, v float64) { c.HalfExtent = float32(v) },
}

func SweepParams() []string {
	names := make([]string, 0, len(sweepable))
	for name := range sweepable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the Count values from Min to Max inclusive.
func (s ParameterSweep) Values() []float64 {
	if s.Count <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Count-1)
	vals := make([]float64, s.Count)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

func RunSweep(ctx context.Context, base *config.Config, sweep ParameterSweep, log io.Writer) ([]SweepResult, error) {
	set, ok := sweepable[sweep.Param]
	if !ok {
		return nil, fmt.Errorf("%w: cannot sweep %q (available: %v)", dynamo.ErrInvalidConfig, sweep.Param, SweepParams())
	}
	if log == nil {
		log = io.Discard
	}

	vals := sweep.Values()
	results := make([]SweepResult, 0, len(vals))
	for i, v := range vals {
		cfg := base.Clone()
		set(cfg, v)
		if err := cfg.Validate(); err != nil {
			return results, err
		}

		result, _, err := runOnce(ctx, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{Value: v, Metrics: result.Metrics})

		fmt.Fprintf(log, "sweep %d/%d: %s=%.4f\n", i+1, len(vals), sweep.Param, v)
	}
	return results, nil
}
