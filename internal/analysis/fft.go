package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the first half of the FFT of data
// after removing its mean. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(centered, nil), centered)

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantPeriod returns the period, in the units of dt, of the strongest
// non-constant frequency in series. ok is false when the series is too short
// or has no oscillating component.
func DominantPeriod(series []float64, dt float64) (period float64, ok bool) {
	ps := PowerSpectrum(series)
	if len(ps) < 2 || dt <= 0 {
		return 0, false
	}

	peak := floats.MaxIdx(ps[1:]) + 1
	if ps[peak] <= 1e-12 {
		return 0, false
	}
	return float64(len(series)) * dt / float64(peak), true
}

type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func Summarize(series []float64) Summary {
	if len(series) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(series, nil)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(series),
		Max:    floats.Max(series),
	}
}
