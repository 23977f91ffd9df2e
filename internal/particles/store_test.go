package particles

import (
	"errors"
	"testing"

	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
)

func TestNew(t *testing.T) {
	st, err := New(3, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if st.Len() != 13 {
		t.Errorf("expected 13 particles, got %d", st.Len())
	}
	if st.SourceCount() != 3 {
		t.Errorf("expected 3 sources, got %d", st.SourceCount())
	}
	if !st.IsSource(2) || st.IsSource(3) {
		t.Error("source prefix boundary wrong")
	}

	pos, mass := st.Sources()
	if len(pos) != 3 || len(mass) != 3 {
		t.Errorf("Sources() returned %d/%d entries", len(pos), len(mass))
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name       string
		sources    int
		population int
		want       error
	}{
		{"negative sources", -1, 10, dynamo.ErrInvalidConfig},
		{"negative population", 1, -10, dynamo.ErrInvalidConfig},
		{"too large", 1, MaxParticles, dynamo.ErrAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.sources, tt.population)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetSourceAndParticle(t *testing.T) {
	st, _ := New(1, 2)

	if err := st.SetSource(0, dynamo.Vec2{1, 2}, 0.5); err != nil {
		t.Fatalf("SetSource failed: %v", err)
	}
	if err := st.SetSource(1, dynamo.Vec2{}, 1); err == nil {
		t.Error("expected error for index past source prefix")
	}
	if err := st.SetSource(0, dynamo.Vec2{}, 0); err == nil {
		t.Error("expected error for zero source mass")
	}

	if err := st.SetParticle(1, dynamo.Vec2{5, 0}, dynamo.Vec2{0, 1}); err != nil {
		t.Fatalf("SetParticle failed: %v", err)
	}
	if st.Pos[2] != (dynamo.Vec2{5, 0}) || st.Vel[2] != (dynamo.Vec2{0, 1}) {
		t.Errorf("particle not stored at index 2: pos=%v vel=%v", st.Pos[2], st.Vel[2])
	}
	if st.Mass[2] != 0 {
		t.Error("massless particle has mass")
	}
	if err := st.SetParticle(2, dynamo.Vec2{}, dynamo.Vec2{}); err == nil {
		t.Error("expected error for particle index out of range")
	}
}

func TestInitializer_Build(t *testing.T) {
	layout := Layout{
		Sources:    10,
		Population: 5000,
		HalfExtent: 8,
		SourceMass: 0.15,
		ChunkSize:  700,
		Seed:       42,
	}

	for _, mode := range []SeedMode{SeedByWorker, SeedByChunk} {
		t.Run(mode.String(), func(t *testing.T) {
			layout.SeedMode = mode
			st, err := NewInitializer(layout, compute.NewCPUBackend(4)).Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			if st.Len() != 5010 {
				t.Fatalf("expected 5010 particles, got %d", st.Len())
			}

			for i := 0; i < st.Len(); i++ {
				p := st.Pos[i]
				if p.X() < -8 || p.X() > 8 || p.Y() < -8 || p.Y() > 8 {
					t.Fatalf("particle %d outside extent: %v", i, p)
				}
				if st.IsSource(i) && st.Mass[i] != 0.15 {
					t.Fatalf("source %d has mass %f", i, st.Mass[i])
				}
				if !st.IsSource(i) && st.Mass[i] != 0 {
					t.Fatalf("massless particle %d has mass %f", i, st.Mass[i])
				}
				if st.Vel[i] != dynamo.Zero || st.Acc[i] != dynamo.Zero {
					t.Fatalf("particle %d not at rest", i)
				}
			}
		})
	}
}

func TestInitializer_ChunkSeedingIsReproducible(t *testing.T) {
	layout := Layout{
		Sources:    2,
		Population: 3 * SeedBlock,
		HalfExtent: 4,
		SourceMass: 1,
		ChunkSize:  250,
		Seed:       7,
		SeedMode:   SeedByChunk,
	}

	ref, err := NewInitializer(layout, compute.NewCPUBackend(1)).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		name    string
		workers int
		chunk   int
	}{
		{"more workers", 8, 250},
		{"larger chunks", 4, 1000},
		{"chunks straddle seed blocks", 3, 3000},
		{"single chunk", 2, 3 * SeedBlock},
		{"small odd chunks", 4, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := layout
			l.ChunkSize = tt.chunk
			got, err := NewInitializer(l, compute.NewCPUBackend(tt.workers)).Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			for i := range ref.Pos {
				if ref.Pos[i] != got.Pos[i] {
					t.Fatalf("particle %d differs: %v vs %v", i, ref.Pos[i], got.Pos[i])
				}
			}
		})
	}
}

func TestInitializer_InvalidLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"negative extent", Layout{Sources: 1, Population: 1, HalfExtent: -1, SourceMass: 1}},
		{"massless sources", Layout{Sources: 1, Population: 1, HalfExtent: 1, SourceMass: 0}},
		{"negative population", Layout{Sources: 0, Population: -5, HalfExtent: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInitializer(tt.layout, compute.NewCPUBackend(1)).Build()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParseSeedMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SeedMode
		wantErr bool
	}{
		{"", SeedByWorker, false},
		{"worker", SeedByWorker, false},
		{"run", SeedByChunk, false},
		{"CHUNK", SeedByChunk, false},
		{"thread", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSeedMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeedMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeedMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
