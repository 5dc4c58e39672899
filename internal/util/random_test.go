package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerDeterministicUnderFixedSeed(t *testing.T) {
	a := NewSampler(42)
	b := NewSampler(42)

	assert.Equal(t, a.Perm(20), b.Perm(20))
	assert.Equal(t, a.SampleIndices(100, 10), b.SampleIndices(100, 10))
}

func TestSamplerPermIsAPermutation(t *testing.T) {
	s := NewSampler(1)

	perm := s.Perm(50)
	assert.Len(t, perm, 50)

	seen := make(map[int]bool, 50)
	for _, idx := range perm {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 50)
		assert.False(t, seen[idx], "index %d drawn twice", idx)
		seen[idx] = true
	}
}

func TestSampleIndicesDistinct(t *testing.T) {
	s := NewSampler(7)

	indices := s.SampleIndices(30, 10)
	assert.Len(t, indices, 10)

	seen := make(map[int]bool, 10)
	for _, idx := range indices {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
}

func TestSampleIndicesRequestLargerThanPool(t *testing.T) {
	s := NewSampler(7)

	indices := s.SampleIndices(4, 10)
	assert.Len(t, indices, 4)
}

func TestSampleIndicesEmptyPool(t *testing.T) {
	s := NewSampler(7)

	assert.Empty(t, s.SampleIndices(0, 10))
}
