package sim_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
	"github.com/san-kum/gravfield/internal/sim"
	"github.com/san-kum/gravfield/internal/transfer"
)

type source struct {
	pos  dynamo.Vec2
	mass float32
}

func buildStore(sources []source, points []dynamo.Vec2) *particles.Store {
	st, err := particles.New(len(sources), len(points))
	Expect(err).NotTo(HaveOccurred())
	for i, s := range sources {
		Expect(st.SetSource(i, s.pos, s.mass)).To(Succeed())
	}
	for i, p := range points {
		Expect(st.SetParticle(i, p, dynamo.Zero)).To(Succeed())
	}
	return st
}

func records(f *transfer.Frame) []transfer.Record {
	recs, err := f.CopyTo(nil)
	Expect(err).NotTo(HaveOccurred())
	return recs
}

type countMetric struct {
	frames int
	last   int
}

func (m *countMetric) Name() string { return "count" }
func (m *countMetric) Observe(recs []transfer.Record, dt float32) {
	m.frames++
	m.last = len(recs)
}
func (m *countMetric) Value() float64 { return float64(m.last) }
func (m *countMetric) Reset()         { m.frames, m.last = 0, 0 }

type stepRecorder struct {
	mu    sync.Mutex
	steps []int
}

func (r *stepRecorder) OnFrame(f *transfer.Frame, dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, f.Step)
}

var _ = Describe("Pipeline", func() {
	var backend compute.Backend

	BeforeEach(func() {
		backend = compute.NewCPUBackend(4)
	})

	newPipeline := func(st *particles.Store, mutate ...func(*sim.Config)) *sim.Pipeline {
		cfg := sim.DefaultConfig()
		cfg.ChunkSize = 2
		for _, m := range mutate {
			m(&cfg)
		}
		p, err := sim.New(st, backend, cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)
		return p
	}

	It("resolves the default stage order", func() {
		p := newPipeline(buildStore(nil, nil))
		Expect(p.StageNames()).To(Equal([]string{
			sim.StageReset, sim.StageGravity, sim.StageIntegrate, sim.StageGather,
		}))
	})

	It("rejects a nil store", func() {
		_, err := sim.New(nil, backend, sim.DefaultConfig())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	Context("with a single source", func() {
		It("pulls a particle with constant magnitude", func() {
			st := buildStore([]source{{dynamo.Vec2{0, 0}, 2}}, []dynamo.Vec2{{5, 0}})
			p := newPipeline(st)

			frame, err := p.Step(1)
			Expect(err).NotTo(HaveOccurred())

			recs := records(frame)
			Expect(recs).To(HaveLen(2))
			Expect(recs[0]).To(Equal(transfer.Record{X: 0, Y: 0, Speed: 0, Mass: 2}))
			Expect(recs[1].X).To(BeNumerically("~", 3, 1e-5))
			Expect(recs[1].Y).To(BeNumerically("~", 0, 1e-5))
			Expect(recs[1].Speed).To(BeNumerically("~", 2, 1e-5))
			Expect(st.Vel[1].X()).To(BeNumerically("~", -2, 1e-5))
		})

		It("leaves the state unchanged for a zero time step", func() {
			st := buildStore([]source{{dynamo.Vec2{0, 0}, 2}}, []dynamo.Vec2{{5, 0}})
			p := newPipeline(st)

			_, err := p.Step(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Pos[1]).To(Equal(dynamo.Vec2{5, 0}))
			Expect(st.Vel[1]).To(Equal(dynamo.Zero))
			Expect(st.Acc[1].X()).To(BeNumerically("~", -2, 1e-5))
		})
	})

	It("cancels symmetric sources", func() {
		st := buildStore(
			[]source{{dynamo.Vec2{1, 0}, 1}, {dynamo.Vec2{-1, 0}, 1}},
			[]dynamo.Vec2{{0, 0}},
		)
		p := newPipeline(st)

		for i := 0; i < 5; i++ {
			_, err := p.Step(0.1)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(st.Pos[2].X()).To(BeNumerically("~", 0, 1e-6))
		Expect(st.Pos[2].Y()).To(BeNumerically("~", 0, 1e-6))
	})

	It("keeps particles inert without sources", func() {
		st := buildStore(nil, []dynamo.Vec2{{1, 2}, {-3, 4}})
		p := newPipeline(st)

		frame, err := p.Step(0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(records(frame)).To(Equal([]transfer.Record{
			{X: 1, Y: 2}, {X: -3, Y: 4},
		}))
	})

	It("skips a source that coincides with the particle", func() {
		st := buildStore([]source{{dynamo.Vec2{2, 2}, 1}}, []dynamo.Vec2{{2, 2}})
		p := newPipeline(st)

		_, err := p.Step(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Acc[1]).To(Equal(dynamo.Zero))
		Expect(dynamo.IsFinite(st.Pos[1])).To(BeTrue())
	})

	It("sizes the frame from the selector", func() {
		st := buildStore(
			[]source{{dynamo.Vec2{0, 0}, 1}},
			[]dynamo.Vec2{{1, 0}, {2, 0}, {3, 0}},
		)
		p := newPipeline(st, func(c *sim.Config) { c.Selector = transfer.SelectMassive })

		frame, err := p.Step(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(frame.Len()).To(Equal(1))
	})

	It("disposes the previous frame on the next step", func() {
		st := buildStore([]source{{dynamo.Vec2{0, 0}, 1}}, []dynamo.Vec2{{1, 1}})
		p := newPipeline(st)

		first, err := p.Step(0.1)
		Expect(err).NotTo(HaveOccurred())
		second, err := p.Step(0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Released()).To(BeTrue())
		Expect(second.Step).To(Equal(first.Step + 1))
		for _, f := range p.Fences() {
			Expect(f.IsComplete()).To(BeTrue())
		}
	})

	Context("with an inserted stage", func() {
		It("runs it after its dependencies", func() {
			st := buildStore([]source{{dynamo.Vec2{0, 0}, 2}}, []dynamo.Vec2{{5, 0}})
			p := newPipeline(st)

			var seen dynamo.Vec2
			Expect(p.AddStage(sim.Stage{
				Name:  "probe",
				After: []string{sim.StageIntegrate},
				Run: func(sc *sim.StepContext) error {
					seen = sc.Store.Pos[1]
					return nil
				},
			})).To(Succeed())

			_, err := p.Step(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.X()).To(BeNumerically("~", 3, 1e-5))
			Expect(p.StageNames()).To(ContainElement("probe"))
		})

		It("reports a failing stage and returns no frame", func() {
			st := buildStore(nil, []dynamo.Vec2{{1, 0}})
			p := newPipeline(st)

			boom := errors.New("boom")
			Expect(p.AddStage(sim.Stage{
				Name:  "fail",
				After: []string{sim.StageGravity},
				Run:   func(*sim.StepContext) error { return boom },
			})).To(Succeed())

			frame, err := p.Step(1)
			Expect(frame).To(BeNil())
			Expect(err).To(MatchError(boom))

			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Stage).To(Equal("fail"))
			Expect(stepErr.Step).To(Equal(1))
		})

		It("rejects unknown dependencies", func() {
			p := newPipeline(buildStore(nil, nil))
			err := p.AddStage(sim.Stage{
				Name:  "orphan",
				After: []string{"nowhere"},
				Run:   func(*sim.StepContext) error { return nil },
			})
			Expect(err).To(MatchError(dynamo.ErrUnknownStage))
		})
	})

	Describe("Run", func() {
		It("feeds metrics and observers once per step", func() {
			st := buildStore([]source{{dynamo.Vec2{0, 0}, 1}}, []dynamo.Vec2{{1, 0}, {0, 1}})
			p := newPipeline(st)

			metric := &countMetric{}
			recorder := &stepRecorder{}
			p.AddMetric(metric)
			p.AddObserver(recorder)

			result, err := p.Run(context.Background(), 4, sim.FixedClock{Dt: 0.25})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StepsTaken).To(Equal(4))
			Expect(result.SimTime).To(BeNumerically("~", 1.0, 1e-9))
			Expect(result.Times).To(HaveLen(4))
			Expect(result.LastCount).To(Equal(3))
			Expect(result.Series["count"]).To(Equal([]float64{3, 3, 3, 3}))
			Expect(result.Metrics).To(HaveKeyWithValue("count", 3.0))
			Expect(metric.frames).To(Equal(4))
			Expect(recorder.steps).To(Equal([]int{1, 2, 3, 4}))
		})

		It("stops between steps when the context is cancelled", func() {
			p := newPipeline(buildStore(nil, []dynamo.Vec2{{0, 0}}))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := p.Run(ctx, 10, sim.FixedClock{Dt: 0.1})
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.StepsTaken).To(Equal(0))
		})

		It("rejects a non-positive step count", func() {
			p := newPipeline(buildStore(nil, nil))
			_, err := p.Run(context.Background(), 0, sim.FixedClock{Dt: 0.1})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})
	})

	Describe("Stream", func() {
		It("hands every step to the consumer in order", func() {
			st := buildStore([]source{{dynamo.Vec2{0, 0}, 1}}, []dynamo.Vec2{{4, 0}})
			p := newPipeline(st)
			h := transfer.NewHandoff()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- p.Stream(ctx, sim.FixedClock{Dt: 0.01}, h) }()

			for want := 1; want <= 3; want++ {
				f, err := h.Next(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Step).To(Equal(want))
				Expect(records(f)).To(HaveLen(2))
				f.Release()
			}

			h.Close()
			Eventually(done, time.Second).Should(Receive(BeNil()))
		})
	})
})
