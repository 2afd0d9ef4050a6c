package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// MockEmbedder produces deterministic bag-of-words vectors without any
// network dependency. Texts sharing words get similar vectors, which is
// enough signal for offline use and tests.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a MockEmbedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &MockEmbedder{dimension: dimension}
}

// Embed hashes each word into a vector slot and normalizes the result.
func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = m.embedOne(text)
	}
	return vecs, nil
}

func (m *MockEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, m.dimension)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if len(word) < 2 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()
		slot := int(sum % uint32(m.dimension))
		// Sign from a higher bit keeps vectors from collapsing toward
		// the all-positive orthant.
		if sum&(1<<16) != 0 {
			vec[slot]++
		} else {
			vec[slot]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec
}

// Dimension returns the vector dimension.
func (m *MockEmbedder) Dimension() int {
	return m.dimension
}

// ModelName returns a fixed identifier.
func (m *MockEmbedder) ModelName() string {
	return "mock-bag-of-words"
}
