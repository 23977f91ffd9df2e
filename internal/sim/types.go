package sim

import (
	"time"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/physics"
	"github.com/san-kum/gravfield/internal/transfer"
)

const (
	StageReset     = "reset"
	StageGravity   = "gravity"
	StageIntegrate = "integrate"
	StageGather    = "gather"
)

// StepContext is shared by every stage of one step.
type StepContext struct {
	Step    int
	Dt      float32
	Store   *particles.Store
	Backend compute.Backend
	// Frame is set by the gather stage.
	Frame *transfer.Frame
}

// Stage is one pass of the pipeline. It starts only after every stage named
// in After has completed for the same step.
type Stage struct {
	Name  string
	After []string
	Run   func(sc *StepContext) error
}

type Metric interface {
	Name() string
	Observe(recs []transfer.Record, dt float32)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f *transfer.Frame, dt float32)
}

// Clock supplies the time delta of each step.
type Clock interface {
	Tick() float32
}

type FixedClock struct {
	Dt float32
}

func (c FixedClock) Tick() float32 { return c.Dt }

// WallClock reports the wall time elapsed since the previous Tick, capped at
// MaxDt when MaxDt is positive.
type WallClock struct {
	MaxDt float32
	last  time.Time
	now   func() time.Time
}

func NewWallClock(maxDt float32) *WallClock {
	return &WallClock{MaxDt: maxDt, last: time.Now(), now: time.Now}
}

func (c *WallClock) Tick() float32 {
	t := c.now()
	dt := float32(t.Sub(c.last).Seconds())
	c.last = t
	if c.MaxDt > 0 && dt > c.MaxDt {
		dt = c.MaxDt
	}
	return dt
}

type Config struct {
	ChunkSize int
	G         float32
	Falloff   physics.Falloff
	Softening float32
	Selector  transfer.Selector
}

func DefaultConfig() Config {
	return Config{
		ChunkSize: 10000,
		G:         1.0,
		Falloff:   physics.FalloffConstant,
	}
}

type Result struct {
	StepsTaken int
	SimTime    float64
	Elapsed    time.Duration
	Times      []float64
	Metrics    map[string]float64
	Series     map[string][]float64
	LastCount  int
}
