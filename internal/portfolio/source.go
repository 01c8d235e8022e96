package portfolio

import "math/rand/v2"

// Source supplies uniform draws in [0, 1). The engine depends on it but
// never constructs one unless the caller passes nil. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for replayable runs.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DefaultSource returns a randomly seeded source. Results vary per call.
func DefaultSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// childSource derives an independent stream for one parallel chunk. The
// parent is consumed sequentially, so the derived streams depend only on
// the parent's state and the chunk index.
func childSource(parent Source, chunk int) Source {
	seed := uint64(parent.Float64() * (1 << 53))
	return rand.New(rand.NewPCG(seed, uint64(chunk)))
}
