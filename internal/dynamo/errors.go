package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for pipeline operations.
var (
	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrAllocation indicates a particle store or transfer buffer could not be allocated.
	ErrAllocation = errors.New("dynamo: allocation failed")

	// ErrStageFailed indicates a stage worker did not finish its chunk.
	ErrStageFailed = errors.New("dynamo: stage failed")

	// ErrDependencyCycle indicates the stage dependency list cannot be ordered.
	ErrDependencyCycle = errors.New("dynamo: stage dependency cycle")

	// ErrUnknownStage indicates a dependency on a stage that was never registered.
	ErrUnknownStage = errors.New("dynamo: unknown stage")

	// ErrFrameReleased indicates a read of a transfer buffer after it was disposed.
	ErrFrameReleased = errors.New("dynamo: frame already released")

	// ErrClosed indicates the handoff between producer and consumer was closed.
	ErrClosed = errors.New("dynamo: handoff closed")
)

// StepError wraps a stage failure with the step it happened in.
type StepError struct {
	Step    int
	Stage   string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Stage, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
