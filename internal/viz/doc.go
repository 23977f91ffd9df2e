// Package viz renders simulation frames in the terminal.
//
// [Live] is a Bubble Tea program that consumes frames from a
// [transfer.Handoff] at its own frame rate. Each tick it takes the next
// frame, copies the records into a buffer it owns, releases the frame and
// plots the copy onto a braille [Canvas], coloured by [SpeedColor].
//
// # Key Bindings
//
//	Space - Pause/Resume consuming frames
//	+/-   - Zoom in/out
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
