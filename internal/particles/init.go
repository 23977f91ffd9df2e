package particles

import (
	"fmt"
	"strings"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"golang.org/x/exp/rand"
)

type SeedMode int

// SeedBlock is the number of particles drawn from one generator in
// SeedByChunk mode.
const SeedBlock = 4096

const (
	// SeedByWorker seeds each worker's generator from its worker index.
	// Placement then depends on the worker count and on which worker picks
	// up which chunk, so runs are not reproducible.
	SeedByWorker SeedMode = iota
	// SeedByChunk seeds one generator per fixed block of SeedBlock
	// particles from the run seed and the block index. Placement is
	// identical for any worker count and any chunk size.
	SeedByChunk
)

func (m SeedMode) String() string {
	switch m {
	case SeedByChunk:
		return "run"
	default:
		return "worker"
	}
}

func ParseSeedMode(s string) (SeedMode, error) {
	switch strings.ToLower(s) {
	case "", "worker":
		return SeedByWorker, nil
	case "run", "chunk":
		return SeedByChunk, nil
	}
	return 0, fmt.Errorf("%w: unknown seed mode %q", dynamo.ErrInvalidConfig, s)
}

type Layout struct {
	Sources    int
	Population int
	HalfExtent float32
	SourceMass float32
	ChunkSize  int
	Seed       int64
	SeedMode   SeedMode
}

type Initializer struct {
	layout  Layout
	backend compute.Backend
}

func NewInitializer(layout Layout, backend compute.Backend) *Initializer {
	return &Initializer{layout: layout, backend: backend}
}

// Build allocates and populates a store: sources uniformly in
// [-HalfExtent, HalfExtent]² with SourceMass, then the massless population
// placed in parallel chunks.
func (in *Initializer) Build() (*Store, error) {
	l := in.layout
	if l.HalfExtent < 0 {
		return nil, fmt.Errorf("%w: half extent must be non-negative, got %f", dynamo.ErrInvalidConfig, l.HalfExtent)
	}
	if l.Sources > 0 && l.SourceMass <= 0 {
		return nil, fmt.Errorf("%w: source mass must be positive, got %f", dynamo.ErrInvalidConfig, l.SourceMass)
	}

	st, err := New(l.Sources, l.Population)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(uint64(l.Seed)))
	for i := 0; i < l.Sources; i++ {
		if err := st.SetSource(i, uniform(rng, l.HalfExtent), l.SourceMass); err != nil {
			return nil, err
		}
	}

	if err := in.placePopulation(st); err != nil {
		return nil, fmt.Errorf("place population: %w", err)
	}
	return st, nil
}

func (in *Initializer) placePopulation(st *Store) error {
	l := in.layout
	pos := st.Pos[l.Sources:]
	d := l.HalfExtent

	if l.SeedMode == SeedByChunk {
		return in.backend.For(len(pos), l.ChunkSize, func(c compute.Chunk) error {
			var rng *rand.Rand
			block := -1
			for i := c.Start; i < c.End; i++ {
				if b := i / SeedBlock; b != block {
					block = b
					rng = rand.New(rand.NewSource(blockSeed(l.Seed, b)))
					// a chunk starting mid-block replays the draws before it
					for j := b * SeedBlock; j < i; j++ {
						uniform(rng, d)
					}
				}
				pos[i] = uniform(rng, d)
			}
			return nil
		})
	}

	rngs := make([]*rand.Rand, in.backend.Workers())
	return in.backend.ForWorkers(len(pos), l.ChunkSize, func(worker int, c compute.Chunk) error {
		rng := rngs[worker]
		if rng == nil {
			rng = rand.New(rand.NewSource(uint64(worker)))
			rngs[worker] = rng
		}
		for i := c.Start; i < c.End; i++ {
			pos[i] = uniform(rng, d)
		}
		return nil
	})
}

func blockSeed(seed int64, block int) uint64 {
	return uint64(seed) ^ (uint64(block+1) * 0x9e3779b97f4a7c15)
}

func uniform(rng *rand.Rand, d float32) dynamo.Vec2 {
	return dynamo.Vec2{
		rng.Float32()*2*d - d,
		rng.Float32()*2*d - d,
	}
}
