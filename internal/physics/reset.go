package physics

import (
	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/particles"
)

type Reset struct {
	ChunkSize int
}

func (r *Reset) Apply(st *particles.Store, backend compute.Backend) error {
	return backend.For(st.Len(), r.ChunkSize, func(c compute.Chunk) error {
		acc := st.Acc[c.Start:c.End]
		for i := range acc {
			acc[i] = dynamo.Zero
		}
		return nil
	})
}
