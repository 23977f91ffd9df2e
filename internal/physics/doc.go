// Package physics provides the force stages of the particle pipeline.
//
//   - [Reset]: zeroes every particle's acceleration
//   - [Gravity]: accumulates the pull of every source onto every particle
//
// Both stages partition the population into chunks and write only to the
// acceleration of their own chunk. Gravity reads a snapshot of the source
// prefix taken when the stage starts.
//
// # Falloff
//
// With [FalloffConstant] (the default) each source contributes an
// acceleration of magnitude G*m directed at the source regardless of
// distance:
//
//	d := s.Pos - p.Pos
//	a += G * m * d / |d|
//
// [FalloffInverseSquare] is an opt-in alternative giving the Newtonian
// G*m*d/(|d|²+ε²)^(3/2). It changes trajectories and is not the default.
//
// A particle whose position equals a source position exactly receives no
// contribution from that source. Distinct coincident particles therefore
// skip each other as well. Any zero distance that escapes this equality
// check yields NaN and is left to propagate.
package physics
