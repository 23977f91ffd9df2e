package compute

// Chunk is a contiguous sub-range [Start, End) of the particle population
// handed to one worker.
type Chunk struct {
	Index int
	Start int
	End   int
}

func (c Chunk) Len() int { return c.End - c.Start }

// Chunks partitions [0, n) into contiguous chunks of at most size elements.
// A non-positive size yields a single chunk.
func Chunks(n, size int) []Chunk {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}

	count := (n + size - 1) / size
	chunks := make([]Chunk, count)
	for i := range chunks {
		start := i * size
		end := start + size
		if end > n {
			end = n
		}
		chunks[i] = Chunk{Index: i, Start: start, End: end}
	}
	return chunks
}

type Backend interface {
	Name() string
	Workers() int
	// For runs fn once per chunk of [0, n) and returns after every chunk
	// finished. The first chunk error is returned.
	For(n, chunkSize int, fn func(c Chunk) error) error
	// ForWorkers is For with the identity of the worker executing the chunk.
	// Which worker receives which chunk depends on scheduling.
	ForWorkers(n, chunkSize int, fn func(worker int, c Chunk) error) error
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = NewCPUBackend(0)
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}
