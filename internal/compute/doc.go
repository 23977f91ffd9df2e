// Package compute provides the worker pool every pipeline stage runs on.
//
// Work is expressed as a population size and a chunk size; the backend
// partitions the population into contiguous [Chunk] ranges and runs them
// concurrently:
//
//	backend := compute.GetBackend()
//	err := backend.For(len(acc), 10000, func(c compute.Chunk) error {
//	    for i := c.Start; i < c.End; i++ {
//	        acc[i] = dynamo.Zero
//	    }
//	    return nil
//	})
//
// Chunk size is a tuning knob only: chunks never share mutable state, so the
// partitioning does not change numeric results. A panic inside a chunk is
// recovered and returned as [dynamo.ErrStageFailed], or [dynamo.ErrAllocation]
// when it came from an impossible allocation.
package compute
