// Package analysis inspects the metric series recorded for a run.
//
//   - [PowerSpectrum]: FFT magnitude of a mean-removed series
//   - [DominantPeriod]: period of the strongest oscillation
//   - [Summarize]: mean, standard deviation and range
//
// Particles falling back and forth through the sources make the spread and
// mean speed series oscillate; the dominant period estimates that cycle:
//
//	period, ok := analysis.DominantPeriod(series["spread"], dt)
package analysis
