package transfer

import (
	"fmt"
	"sync"

	"github.com/san-kum/gravfield/internal/dynamo"
)

// BufferPool recycles transfer buffers between steps. Buffers are handed out
// uninitialized; Gather overwrites every record.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

func (p *BufferPool) Get(n int) (buf []Record, err error) {
	if v, ok := p.pool.Get().(*[]Record); ok {
		if cap(*v) >= n {
			return (*v)[:n], nil
		}
	}

	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: transfer buffer of %d records: %v", dynamo.ErrAllocation, n, r)
		}
	}()
	return make([]Record, n), nil
}

func (p *BufferPool) Put(buf []Record) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
