package fitness

import (
	"math/rand/v2"
	"sync"

	"github.com/snow-ghost/symreg/core"
)

// BatchSampler draws mini-batch index sets.
type BatchSampler interface {
	Sample(n, k int) core.IndexSelector
}

// Sampler draws indices from its own PCG stream. It is not safe for
// concurrent use: give each goroutine its own, or wrap it in a
// LockedSampler.
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(seed uint64) *Sampler {
	return NewSamplerFrom(seed, 0)
}

// NewSamplerFrom selects one of many independent streams for the same seed.
func NewSamplerFrom(seed, stream uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, stream))}
}

// Sample returns k indices drawn uniformly with replacement from [0, n).
// k may exceed n. When n <= 0 or k <= 0 the subset is empty.
func (s *Sampler) Sample(n, k int) core.IndexSelector {
	if n <= 0 || k <= 0 {
		return core.Subset([]int{})
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = s.rng.IntN(n)
	}
	return core.Subset(idx)
}

// LockedSampler serializes access to a shared Sampler.
type LockedSampler struct {
	mu sync.Mutex
	s  *Sampler
}

func NewLockedSampler(s *Sampler) *LockedSampler { return &LockedSampler{s: s} }

func (l *LockedSampler) Sample(n, k int) core.IndexSelector {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Sample(n, k)
}
