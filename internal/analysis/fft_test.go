package analysis

import (
	"math"
	"testing"
)

func sine(n int, period, dt float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*float64(i)*dt/period)
	}
	return out
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		period float64
		dt     float64
	}{
		{"power of two", 256, 0.5, 0.01},
		{"odd length", 300, 1.0, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DominantPeriod(sine(tt.n, tt.period, tt.dt), tt.dt)
			if !ok {
				t.Fatal("expected a dominant period")
			}
			if math.Abs(got-tt.period)/tt.period > 0.05 {
				t.Errorf("expected period ~%f, got %f", tt.period, got)
			}
		})
	}
}

func TestDominantPeriod_Flat(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 2
	}
	if _, ok := DominantPeriod(flat, 0.1); ok {
		t.Error("expected no period for a constant series")
	}
	if _, ok := DominantPeriod([]float64{1}, 0.1); ok {
		t.Error("expected no period for a single sample")
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum(sine(128, 0.32, 0.01))
	if len(ps) != 64 {
		t.Fatalf("expected 64 bins, got %d", len(ps))
	}
	if ps[0] > 1e-9 {
		t.Errorf("expected zero DC bin, got %f", ps[0])
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	if s.Mean != 2.5 || s.Min != 1 || s.Max != 4 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-9 {
		t.Errorf("expected sample stddev, got %f", s.StdDev)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("expected zero summary for empty series")
	}
}
