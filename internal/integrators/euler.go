package integrators

import (
	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
)

// SemiImplicitEuler advances velocity from acceleration, then position from
// the updated velocity. Every particle is updated independently.
type SemiImplicitEuler struct {
	ChunkSize int
}

func NewSemiImplicitEuler(chunkSize int) *SemiImplicitEuler {
	return &SemiImplicitEuler{ChunkSize: chunkSize}
}

func (e *SemiImplicitEuler) Apply(st *particles.Store, backend compute.Backend, dt float32) error {
	return backend.For(st.Len(), e.ChunkSize, func(c compute.Chunk) error {
		for i := c.Start; i < c.End; i++ {
			st.Pos[i], st.Vel[i] = Advance(st.Pos[i], st.Vel[i], st.Acc[i], dt)
		}
		return nil
	})
}

// Advance is one semi-implicit Euler step for a single particle.
func Advance(pos, vel, acc dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2) {
	vel = vel.Add(acc.Mul(dt))
	pos = pos.Add(vel.Mul(dt))
	return pos, vel
}
