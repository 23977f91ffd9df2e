package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/integrators"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/physics"
	"github.com/san-kum/gravfield/internal/transfer"
)

// Pipeline runs the stages of one simulation step over a particle store.
// Step is synchronous and steps never overlap.
type Pipeline struct {
	store   *particles.Store
	backend compute.Backend
	gather  *transfer.Gather

	stages    []Stage
	metrics   []Metric
	observers []Observer

	mu     sync.Mutex
	step   int
	fences map[string]*dynamo.Fence
}

// New wires reset -> gravity -> integrate -> gather over st.
func New(st *particles.Store, backend compute.Backend, cfg Config) (*Pipeline, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil particle store", dynamo.ErrInvalidConfig)
	}
	if backend == nil {
		backend = compute.GetBackend()
	}

	reset := &physics.Reset{ChunkSize: cfg.ChunkSize}
	gravity := &physics.Gravity{
		G:         cfg.G,
		Falloff:   cfg.Falloff,
		Softening: cfg.Softening,
		ChunkSize: cfg.ChunkSize,
	}
	integ := integrators.NewSemiImplicitEuler(cfg.ChunkSize)
	gather := transfer.NewGather(cfg.Selector, cfg.ChunkSize)

	p := &Pipeline{
		store:   st,
		backend: backend,
		gather:  gather,
	}

	stages := []Stage{
		{
			Name: StageReset,
			Run: func(sc *StepContext) error {
				return reset.Apply(sc.Store, sc.Backend)
			},
		},
		{
			Name:  StageGravity,
			After: []string{StageReset},
			Run: func(sc *StepContext) error {
				return gravity.Apply(sc.Store, sc.Backend)
			},
		},
		{
			Name:  StageIntegrate,
			After: []string{StageGravity},
			Run: func(sc *StepContext) error {
				return integ.Apply(sc.Store, sc.Backend, sc.Dt)
			},
		},
		{
			Name:  StageGather,
			After: []string{StageIntegrate},
			Run: func(sc *StepContext) error {
				f, err := gather.Apply(sc.Store, sc.Backend, sc.Step)
				sc.Frame = f
				return err
			},
		},
	}

	ordered, err := Resolve(stages)
	if err != nil {
		return nil, err
	}
	p.stages = ordered
	return p, nil
}

// AddStage inserts an extra stage and re-resolves the order.
func (p *Pipeline) AddStage(s Stage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ordered, err := Resolve(append(append([]Stage(nil), p.stages...), s))
	if err != nil {
		return err
	}
	p.stages = ordered
	return nil
}

func (p *Pipeline) AddMetric(m Metric)     { p.metrics = append(p.metrics, m) }
func (p *Pipeline) AddObserver(o Observer) { p.observers = append(p.observers, o) }

func (p *Pipeline) Store() *particles.Store  { return p.store }
func (p *Pipeline) Backend() compute.Backend { return p.backend }

func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Fences returns the per-stage fences of the most recent step.
func (p *Pipeline) Fences() map[string]*dynamo.Fence {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]*dynamo.Fence, len(p.fences))
	for k, v := range p.fences {
		out[k] = v
	}
	return out
}

// Step advances the simulation by dt. Every stage is started behind the
// fences of its dependencies; Step returns once all of them completed. On
// failure no frame is returned and the error is a *dynamo.StepError naming
// the stage that failed.
func (p *Pipeline) Step(dt float32) (*transfer.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.step++
	sc := &StepContext{
		Step:    p.step,
		Dt:      dt,
		Store:   p.store,
		Backend: p.backend,
	}

	fences := make(map[string]*dynamo.Fence, len(p.stages))
	for _, s := range p.stages {
		fences[s.Name] = dynamo.NewFence()
	}
	p.fences = fences

	all := make([]*dynamo.Fence, 0, len(p.stages))
	for _, s := range p.stages {
		deps := make([]*dynamo.Fence, len(s.After))
		for i, name := range s.After {
			deps[i] = fences[name]
		}
		own := fences[s.Name]
		all = append(all, own)

		go func(s Stage) {
			if err := dynamo.WaitAll(deps...); err != nil {
				own.Complete(err)
				return
			}
			if err := s.Run(sc); err != nil {
				own.Complete(&dynamo.StepError{Step: sc.Step, Stage: s.Name, Wrapped: err})
				return
			}
			own.Complete(nil)
		}(s)
	}

	if err := dynamo.WaitAll(all...); err != nil {
		return nil, err
	}
	if sc.Frame == nil {
		return nil, &dynamo.StepError{Step: sc.Step, Stage: StageGather, Wrapped: fmt.Errorf("%w: no frame produced", dynamo.ErrStageFailed)}
	}

	if len(p.metrics) > 0 {
		_ = sc.Frame.Read(func(recs []transfer.Record) {
			for _, m := range p.metrics {
				m.Observe(recs, dt)
			}
		})
	}
	for _, o := range p.observers {
		o.OnFrame(sc.Frame, dt)
	}

	return sc.Frame, nil
}

// Run takes steps with dt supplied by clock. The context is checked between
// steps only; a started step always completes.
func (p *Pipeline) Run(ctx context.Context, steps int, clock Clock) (*Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrInvalidConfig, steps)
	}

	result := &Result{
		Times:   make([]float64, 0, steps),
		Metrics: make(map[string]float64),
		Series:  make(map[string][]float64),
	}
	for _, m := range p.metrics {
		m.Reset()
		result.Series[m.Name()] = make([]float64, 0, steps)
	}

	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		dt := clock.Tick()
		frame, err := p.Step(dt)
		if err != nil {
			return result, err
		}

		result.StepsTaken++
		result.SimTime += float64(dt)
		result.Times = append(result.Times, result.SimTime)
		result.LastCount = frame.Len()

		for _, m := range p.metrics {
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}
	}

	for _, m := range p.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// Close disposes the last published frame.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gather.Close()
}
