package transfer

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
)

func testStore(t *testing.T) *particles.Store {
	t.Helper()
	st, err := particles.New(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	_ = st.SetSource(0, dynamo.Vec2{1, 1}, 0.5)
	_ = st.SetSource(1, dynamo.Vec2{-1, -1}, 0.25)
	for i := 0; i < 5; i++ {
		vel := dynamo.Zero
		if i%2 == 0 {
			vel = dynamo.Vec2{3, 4}
		}
		_ = st.SetParticle(i, dynamo.Vec2{float32(i), float32(-i)}, vel)
	}
	return st
}

func TestGather_AllInStoreOrder(t *testing.T) {
	g := NewWithT(t)
	st := testStore(t)

	gather := NewGather(nil, 3)
	frame, err := gather.Apply(st, compute.NewCPUBackend(2), 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(frame.Fence().IsComplete()).To(BeTrue())
	g.Expect(frame.Len()).To(Equal(st.Len()))

	recs, err := frame.CopyTo(nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(recs).To(HaveLen(7))
	g.Expect(recs[0]).To(Equal(Record{X: 1, Y: 1, Speed: 0, Mass: 0.5}))
	g.Expect(recs[1]).To(Equal(Record{X: -1, Y: -1, Speed: 0, Mass: 0.25}))
	g.Expect(recs[2]).To(Equal(Record{X: 0, Y: 0, Speed: 5, Mass: 0}))
	g.Expect(recs[6]).To(Equal(Record{X: 4, Y: -4, Speed: 5, Mass: 0}))
}

func TestGather_SelectorSizesBuffer(t *testing.T) {
	tests := []struct {
		name string
		sel  Selector
		want int
	}{
		{"all explicit", SelectAll, 7},
		{"massive", SelectMassive, 2},
		{"moving", SelectMoving, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			st := testStore(t)

			for _, chunk := range []int{1, 2, 100} {
				frame, err := NewGather(tt.sel, chunk).Apply(st, compute.NewCPUBackend(3), 0)
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(frame.Len()).To(Equal(tt.want))

				count := 0
				for i := 0; i < st.Len(); i++ {
					if tt.sel(st, i) {
						count++
					}
				}
				g.Expect(frame.Len()).To(Equal(count))
			}
		})
	}
}

func TestGather_MovingPreservesOrder(t *testing.T) {
	g := NewWithT(t)
	st := testStore(t)

	frame, err := NewGather(SelectMoving, 1).Apply(st, compute.NewCPUBackend(4), 0)
	g.Expect(err).NotTo(HaveOccurred())

	recs, _ := frame.CopyTo(nil)
	xs := make([]float32, len(recs))
	for i, r := range recs {
		xs[i] = r.X
	}
	g.Expect(xs).To(Equal([]float32{0, 2, 4}))
}

func TestGather_DisposesPreviousFrame(t *testing.T) {
	g := NewWithT(t)
	st := testStore(t)
	backend := compute.NewCPUBackend(1)
	gather := NewGather(nil, 0)

	first, err := gather.Apply(st, backend, 1)
	g.Expect(err).NotTo(HaveOccurred())

	second, err := gather.Apply(st, backend, 2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.Released()).To(BeTrue())
	g.Expect(second.Released()).To(BeFalse())

	_, err = first.CopyTo(nil)
	g.Expect(err).To(MatchError(dynamo.ErrFrameReleased))

	gather.Close()
	g.Expect(second.Released()).To(BeTrue())
}

func TestGather_LeaseDefersRelease(t *testing.T) {
	g := NewWithT(t)
	st := testStore(t)
	backend := compute.NewCPUBackend(1)
	gather := NewGather(nil, 0)

	first, _ := gather.Apply(st, backend, 1)
	g.Expect(first.Acquire()).To(Succeed())

	_, err := gather.Apply(st, backend, 2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.Released()).To(BeFalse())

	recs, err := first.CopyTo(nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(recs).To(HaveLen(7))

	first.Release()
	g.Expect(first.Released()).To(BeTrue())
}

func TestGather_EmptyStore(t *testing.T) {
	g := NewWithT(t)
	st, _ := particles.New(0, 0)

	frame, err := NewGather(SelectMoving, 10).Apply(st, compute.NewCPUBackend(2), 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(frame.Len()).To(Equal(0))
}

func TestSelectorByName(t *testing.T) {
	g := NewWithT(t)

	sel, err := SelectorByName("all")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sel).To(BeNil())

	sel, err = SelectorByName("massive")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sel).NotTo(BeNil())

	_, err = SelectorByName("visible")
	g.Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
}

func TestBufferPool_Reuse(t *testing.T) {
	g := NewWithT(t)
	p := NewBufferPool()

	buf, err := p.Get(8)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(buf).To(HaveLen(8))
	p.Put(buf)

	small, err := p.Get(4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(small).To(HaveLen(4))

	big, err := p.Get(16)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(big).To(HaveLen(16))
}
