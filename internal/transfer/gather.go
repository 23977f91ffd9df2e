package transfer

import (
	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/particles"
)

// Gather packs the live particles of a store into a fresh transfer buffer
// each step. It owns the previous step's frame and disposes it before
// allocating the next one.
type Gather struct {
	Selector  Selector
	ChunkSize int

	pool *BufferPool
	prev *Frame
}

func NewGather(sel Selector, chunkSize int) *Gather {
	return &Gather{
		Selector:  sel,
		ChunkSize: chunkSize,
		pool:      NewBufferPool(),
	}
}

// Apply builds the frame for step. The returned frame's fence is complete;
// on error no frame is produced.
func (g *Gather) Apply(st *particles.Store, backend compute.Backend, step int) (*Frame, error) {
	if g.prev != nil {
		g.prev.Dispose()
		g.prev = nil
	}

	n := st.Len()
	var offsets []int
	total := n

	if g.Selector != nil {
		counts := make([]int, len(compute.Chunks(n, g.ChunkSize)))
		err := backend.For(n, g.ChunkSize, func(c compute.Chunk) error {
			k := 0
			for i := c.Start; i < c.End; i++ {
				if g.Selector(st, i) {
					k++
				}
			}
			counts[c.Index] = k
			return nil
		})
		if err != nil {
			return nil, err
		}

		offsets = make([]int, len(counts))
		total = 0
		for i, k := range counts {
			offsets[i] = total
			total += k
		}
	}

	buf, err := g.pool.Get(total)
	if err != nil {
		return nil, err
	}
	frame := newFrame(step, buf, g.pool)

	err = backend.For(n, g.ChunkSize, func(c compute.Chunk) error {
		if g.Selector == nil {
			for i := c.Start; i < c.End; i++ {
				buf[i] = Pack(st.Pos[i], st.Vel[i], st.Mass[i])
			}
			return nil
		}

		j := offsets[c.Index]
		for i := c.Start; i < c.End; i++ {
			if g.Selector(st, i) {
				buf[j] = Pack(st.Pos[i], st.Vel[i], st.Mass[i])
				j++
			}
		}
		return nil
	})
	if err != nil {
		frame.fence.Complete(err)
		frame.Dispose()
		return nil, err
	}

	frame.fence.Complete(nil)
	g.prev = frame
	return frame, nil
}

// Close disposes the last frame.
func (g *Gather) Close() {
	if g.prev != nil {
		g.prev.Dispose()
		g.prev = nil
	}
}
