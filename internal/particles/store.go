package particles

import (
	"fmt"

	"github.com/san-kum/gravfield/internal/dynamo"
)

// MaxParticles bounds the total store size so that an absurd configuration
// fails with ErrAllocation instead of exhausting memory.
const MaxParticles = 1 << 27

// Store holds every particle as parallel arrays. The first SourceCount
// entries are the mass-bearing sources; the rest are massless.
type Store struct {
	Pos  []dynamo.Vec2
	Vel  []dynamo.Vec2
	Acc  []dynamo.Vec2
	Mass []float32

	sources int
}

// New allocates a zeroed store with sources mass-bearing slots followed by
// population massless ones. The size is fixed for the lifetime of the store.
func New(sources, population int) (st *Store, err error) {
	if sources < 0 || population < 0 {
		return nil, fmt.Errorf("%w: negative particle count (sources=%d population=%d)", dynamo.ErrInvalidConfig, sources, population)
	}
	n := sources + population
	if n > MaxParticles {
		return nil, fmt.Errorf("%w: %d particles exceeds limit %d", dynamo.ErrAllocation, n, MaxParticles)
	}

	defer func() {
		if r := recover(); r != nil {
			st = nil
			err = fmt.Errorf("%w: particle store of %d: %v", dynamo.ErrAllocation, n, r)
		}
	}()

	return &Store{
		Pos:     make([]dynamo.Vec2, n),
		Vel:     make([]dynamo.Vec2, n),
		Acc:     make([]dynamo.Vec2, n),
		Mass:    make([]float32, n),
		sources: sources,
	}, nil
}

func (s *Store) Len() int         { return len(s.Pos) }
func (s *Store) SourceCount() int { return s.sources }

func (s *Store) IsSource(i int) bool { return i < s.sources }

// Sources returns the source prefix of the position and mass arrays. The
// returned slices alias the store.
func (s *Store) Sources() ([]dynamo.Vec2, []float32) {
	return s.Pos[:s.sources], s.Mass[:s.sources]
}

// SetSource places source i. Sources must carry positive mass.
func (s *Store) SetSource(i int, pos dynamo.Vec2, mass float32) error {
	if i < 0 || i >= s.sources {
		return fmt.Errorf("%w: source index %d outside [0,%d)", dynamo.ErrInvalidConfig, i, s.sources)
	}
	if mass <= 0 {
		return fmt.Errorf("%w: source mass must be positive, got %f", dynamo.ErrInvalidConfig, mass)
	}
	s.Pos[i] = pos
	s.Mass[i] = mass
	return nil
}

// SetParticle places massless particle i, indexed from the first non-source slot.
func (s *Store) SetParticle(i int, pos, vel dynamo.Vec2) error {
	idx := s.sources + i
	if i < 0 || idx >= len(s.Pos) {
		return fmt.Errorf("%w: particle index %d outside [0,%d)", dynamo.ErrInvalidConfig, i, len(s.Pos)-s.sources)
	}
	s.Pos[idx] = pos
	s.Vel[idx] = vel
	s.Mass[idx] = 0
	return nil
}
