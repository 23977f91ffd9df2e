package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/transfer"
)

// Spread is the RMS distance of the records from the origin.
type Spread struct {
	r2    []float64
	value float64
}

func NewSpread() *Spread { return &Spread{} }

func (s *Spread) Name() string { return "spread" }

func (s *Spread) Observe(recs []transfer.Record, dt float32) {
	s.r2 = s.r2[:0]
	for _, r := range recs {
		x, y := float64(r.X), float64(r.Y)
		s.r2 = append(s.r2, x*x+y*y)
	}
	if len(s.r2) == 0 {
		s.value = 0
		return
	}
	s.value = math.Sqrt(stat.Mean(s.r2, nil))
}

func (s *Spread) Value() float64 { return s.value }

func (s *Spread) Reset() {
	s.r2 = s.r2[:0]
	s.value = 0
}

// NonFinite counts records whose position or speed is NaN or infinite. Such
// records are carried through the pipeline unchanged; this only reports them.
type NonFinite struct {
	count int
}

func NewNonFinite() *NonFinite { return &NonFinite{} }

func (n *NonFinite) Name() string { return "non_finite" }

func (n *NonFinite) Observe(recs []transfer.Record, dt float32) {
	n.count = 0
	for _, r := range recs {
		if !dynamo.IsFinite(dynamo.Vec2{r.X, r.Y}) || !dynamo.Finite(r.Speed) {
			n.count++
		}
	}
}

func (n *NonFinite) Value() float64 { return float64(n.count) }
func (n *NonFinite) Reset()         { n.count = 0 }
