package metrics

import (
	"github.com/san-kum/gravfield/internal/sim"
	"github.com/san-kum/gravfield/internal/transfer"
)

// Series wraps a metric and keeps its value after every observed frame.
type Series struct {
	sim.Metric
	Values []float64
}

func NewSeries(m sim.Metric) *Series {
	return &Series{Metric: m}
}

func (s *Series) Observe(recs []transfer.Record, dt float32) {
	s.Metric.Observe(recs, dt)
	s.Values = append(s.Values, s.Metric.Value())
}

func (s *Series) Reset() {
	s.Metric.Reset()
	s.Values = s.Values[:0]
}

// Standard returns the metrics attached to every CLI run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewMeanSpeed(),
		NewMaxSpeed(),
		NewSpread(),
		NewNonFinite(),
	}
}

// ByName looks up one of the standard metrics.
func ByName(name string) sim.Metric {
	for _, m := range Standard() {
		if m.Name() == name {
			return m
		}
	}
	return nil
}
