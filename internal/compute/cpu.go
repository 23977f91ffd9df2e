package compute

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/san-kum/gravfield/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

type CPUBackend struct {
	workers int
}

// NewCPUBackend returns a backend running at most workers chunks at once.
// A non-positive count uses GOMAXPROCS.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return fmt.Sprintf("cpu/%d", c.workers) }
func (c *CPUBackend) Workers() int { return c.workers }
func (c *CPUBackend) Cleanup()     {}

func (c *CPUBackend) For(n, chunkSize int, fn func(c Chunk) error) error {
	chunks := Chunks(n, chunkSize)
	if len(chunks) == 1 {
		return guard(func() error { return fn(chunks[0]) })
	}

	var g errgroup.Group
	g.SetLimit(c.workers)

	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			return guard(func() error { return fn(ch) })
		})
	}

	return g.Wait()
}

func (c *CPUBackend) ForWorkers(n, chunkSize int, fn func(worker int, c Chunk) error) error {
	chunks := Chunks(n, chunkSize)
	if len(chunks) == 0 {
		return nil
	}

	workers := c.workers
	if len(chunks) < workers {
		workers = len(chunks)
	}

	var next atomic.Int64
	var g errgroup.Group

	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(chunks) {
					return nil
				}
				if err := guard(func() error { return fn(worker, chunks[i]) }); err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}

func panicError(r any) error {
	if re, ok := r.(runtime.Error); ok && strings.Contains(re.Error(), "makeslice") {
		return fmt.Errorf("%w: %v", dynamo.ErrAllocation, re)
	}
	return fmt.Errorf("%w: %v", dynamo.ErrStageFailed, r)
}
