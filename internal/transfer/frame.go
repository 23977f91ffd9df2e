package transfer

import (
	"sync"

	"github.com/san-kum/gravfield/internal/dynamo"
)

// Frame is the output of one simulation step: the packed records plus the
// fence that signals they are complete. The producer disposes a frame when
// the next step supersedes it; the buffer is only recycled once every
// outstanding lease has been released.
type Frame struct {
	Step int

	records []Record
	fence   *dynamo.Fence
	pool    *BufferPool

	mu       sync.Mutex
	leases   int
	disposed bool
	released bool
}

func newFrame(step int, records []Record, pool *BufferPool) *Frame {
	return &Frame{
		Step:    step,
		records: records,
		fence:   dynamo.NewFence(),
		pool:    pool,
	}
}

// Len is the number of records. It is fixed when the frame is allocated.
func (f *Frame) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *Frame) Fence() *dynamo.Fence { return f.fence }

func (f *Frame) Wait() error { return f.fence.Wait() }

// Acquire takes a lease that keeps the buffer alive across Dispose.
func (f *Frame) Acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return dynamo.ErrFrameReleased
	}
	f.leases++
	return nil
}

// Release returns a lease taken with Acquire.
func (f *Frame) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leases > 0 {
		f.leases--
	}
	f.maybeRelease()
}

// Read waits for the fence and calls fn with the records while holding a
// lease. fn must not retain the slice.
func (f *Frame) Read(fn func([]Record)) error {
	if err := f.fence.Wait(); err != nil {
		return err
	}
	if err := f.Acquire(); err != nil {
		return err
	}
	defer f.Release()

	fn(f.records)
	return nil
}

// CopyTo waits for the fence and copies the records into dst, growing it as
// needed. The returned slice has exactly Len records.
func (f *Frame) CopyTo(dst []Record) ([]Record, error) {
	err := f.Read(func(recs []Record) {
		if cap(dst) < len(recs) {
			dst = make([]Record, len(recs))
		}
		dst = dst[:len(recs)]
		copy(dst, recs)
	})
	return dst, err
}

// Dispose is called by the producer once the frame is superseded.
func (f *Frame) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
	f.maybeRelease()
}

func (f *Frame) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func (f *Frame) maybeRelease() {
	if !f.disposed || f.leases > 0 || f.released {
		return
	}
	f.released = true
	if f.pool != nil {
		f.pool.Put(f.records)
	}
	f.records = nil
}
