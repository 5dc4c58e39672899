package util

import (
	"math/rand"
	"sync"
)

// Sampler produces uniformly random permutations from a seedable source, so
// test-set generation is deterministic under a fixed seed and uniformly
// random in production. Safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Perm returns a uniform random permutation of [0, n).
func (s *Sampler) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

// SampleIndices returns k distinct indices drawn uniformly from [0, n),
// in random order. When k >= n every index is returned.
func (s *Sampler) SampleIndices(n, k int) []int {
	perm := s.Perm(n)
	if k >= n {
		return perm
	}
	return perm[:k]
}
