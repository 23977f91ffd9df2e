package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
)

type Falloff int

const (
	FalloffConstant Falloff = iota
	FalloffInverseSquare
)

func (f Falloff) String() string {
	if f == FalloffInverseSquare {
		return "inverse_square"
	}
	return "constant"
}

func ParseFalloff(s string) (Falloff, error) {
	switch strings.ToLower(s) {
	case "", "constant":
		return FalloffConstant, nil
	case "inverse_square", "newtonian":
		return FalloffInverseSquare, nil
	}
	return 0, fmt.Errorf("%w: unknown falloff %q", dynamo.ErrInvalidConfig, s)
}

type Gravity struct {
	G         float32
	Falloff   Falloff
	Softening float32
	ChunkSize int
}

// NewGravity returns the default stage: G=1, constant falloff.
func NewGravity(chunkSize int) *Gravity {
	return &Gravity{
		G:         1.0,
		Falloff:   FalloffConstant,
		ChunkSize: chunkSize,
	}
}

// Apply adds the pull of every source to the acceleration of every particle
// in st, sources included.
func (g *Gravity) Apply(st *particles.Store, backend compute.Backend) error {
	srcPos, srcMass := st.Sources()
	if len(srcPos) == 0 {
		return nil
	}

	pos := make([]dynamo.Vec2, len(srcPos))
	mass := make([]float32, len(srcMass))
	copy(pos, srcPos)
	copy(mass, srcMass)

	return backend.For(st.Len(), g.ChunkSize, func(c compute.Chunk) error {
		for i := c.Start; i < c.End; i++ {
			st.Acc[i] = st.Acc[i].Add(g.Accumulate(st.Pos[i], pos, mass))
		}
		return nil
	})
}

// Accumulate returns the total acceleration a particle at p receives from
// the given sources.
func (g *Gravity) Accumulate(p dynamo.Vec2, srcPos []dynamo.Vec2, srcMass []float32) dynamo.Vec2 {
	var acc dynamo.Vec2
	eps2 := g.Softening * g.Softening

	for j, s := range srcPos {
		if p == s {
			continue
		}

		d := s.Sub(p)
		r2 := d.Dot(d)

		var scale float32
		if g.Falloff == FalloffInverseSquare {
			r2 += eps2
			scale = float32(1 / (math.Sqrt(float64(r2)) * float64(r2)))
		} else {
			scale = float32(1 / math.Sqrt(float64(r2)))
		}

		acc = acc.Add(d.Mul(g.G * srcMass[j] * scale))
	}

	return acc
}
