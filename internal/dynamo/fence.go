package dynamo

import "sync"

// Fence is a single-shot completion signal. Readers block in Wait until the
// producer calls Complete; the error passed to the first Complete is what
// every Wait returns.
type Fence struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewFence() *Fence {
	return &Fence{done: make(chan struct{})}
}

// CompletedFence returns a fence that is already complete with err.
func CompletedFence(err error) *Fence {
	f := NewFence()
	f.Complete(err)
	return f
}

// Complete marks the fence finished. Later calls are ignored.
func (f *Fence) Complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *Fence) Wait() error {
	<-f.done
	return f.err
}

func (f *Fence) Done() <-chan struct{} { return f.done }

func (f *Fence) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// WaitAll blocks until every fence completes and returns the first error in
// argument order.
func WaitAll(fences ...*Fence) error {
	var first error
	for _, f := range fences {
		if err := f.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
