package transfer

import (
	"context"
	"sync"

	"github.com/san-kum/gravfield/internal/dynamo"
)

// Handoff passes frames from the simulation loop to a consumer running on
// its own cadence. It holds at most one frame: Publish blocks until the
// consumer has taken the previous one, and Next blocks until a frame is
// available. Frames are never skipped or handed out twice.
//
// Every frame returned by Next carries a lease; the consumer must call
// Release once it has copied the records out.
type Handoff struct {
	slot chan *Frame
	done chan struct{}
	once sync.Once
}

func NewHandoff() *Handoff {
	return &Handoff{
		slot: make(chan *Frame, 1),
		done: make(chan struct{}),
	}
}

func (h *Handoff) Publish(ctx context.Context, f *Frame) error {
	if err := f.Acquire(); err != nil {
		return err
	}

	select {
	case <-h.done:
		f.Release()
		return dynamo.ErrClosed
	default:
	}

	select {
	case h.slot <- f:
		return nil
	case <-h.done:
		f.Release()
		return dynamo.ErrClosed
	case <-ctx.Done():
		f.Release()
		return ctx.Err()
	}
}

func (h *Handoff) Next(ctx context.Context) (*Frame, error) {
	select {
	case f := <-h.slot:
		return f, nil
	default:
	}

	select {
	case f := <-h.slot:
		return f, nil
	case <-h.done:
		return nil, dynamo.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Take waits for the next frame, copies its records into dst and releases
// the frame. It returns the copy and the frame's step.
func (h *Handoff) Take(ctx context.Context, dst []Record) ([]Record, int, error) {
	f, err := h.Next(ctx)
	if err != nil {
		return dst, 0, err
	}
	defer f.Release()

	recs, err := f.CopyTo(dst)
	if err != nil {
		return dst, 0, err
	}
	return recs, f.Step, nil
}

// Close wakes blocked callers and drops any untaken frame.
func (h *Handoff) Close() {
	h.once.Do(func() {
		close(h.done)
	})
	select {
	case f := <-h.slot:
		f.Release()
	default:
	}
}
