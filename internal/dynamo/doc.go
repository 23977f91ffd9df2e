// Package dynamo provides the primitives shared by every simulation stage.
//
// The package defines the small vocabulary the pipeline is built from:
//
//   - [Vec2]: float32 2D vector used for position, velocity and acceleration
//   - [Fence]: single-shot completion signal gating a later stage or consumer
//   - [StepError]: failure of a stage within one simulation step
//
// # Example
//
//	f := dynamo.NewFence()
//	go func() { f.Complete(work()) }()
//	if err := f.Wait(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Fences are safe for concurrent use. Vec2 values are plain arrays and are
// copied on assignment.
package dynamo
