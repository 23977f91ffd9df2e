package transfer

import (
	"fmt"
	"strings"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
)

// Record is one packed particle, laid out as four float32 so a consumer can
// upload the slice as a 16-byte-stride vertex buffer.
type Record struct {
	X     float32
	Y     float32
	Speed float32
	Mass  float32
}

func Pack(pos, vel dynamo.Vec2, mass float32) Record {
	return Record{X: pos.X(), Y: pos.Y(), Speed: dynamo.Speed(vel), Mass: mass}
}

// Selector reports whether particle i is part of the live set. A nil
// Selector selects every particle.
type Selector func(st *particles.Store, i int) bool

func SelectAll(st *particles.Store, i int) bool { return true }

func SelectMassive(st *particles.Store, i int) bool { return st.Mass[i] > 0 }

func SelectMoving(st *particles.Store, i int) bool { return st.Vel[i] != dynamo.Zero }

func SelectorByName(name string) (Selector, error) {
	switch strings.ToLower(name) {
	case "", "all":
		return nil, nil
	case "massive", "mass":
		return SelectMassive, nil
	case "moving", "velocity":
		return SelectMoving, nil
	}
	return nil, fmt.Errorf("%w: unknown selector %q", dynamo.ErrInvalidConfig, name)
}
