package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	m := NewMockEmbedder(64)

	a, err := m.Embed(context.Background(), []string{"pricing strategy"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := m.Embed(context.Background(), []string{"pricing strategy"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

func TestMockEmbedderNormalized(t *testing.T) {
	m := NewMockEmbedder(64)

	vecs, err := m.Embed(context.Background(), []string{"some non trivial text about offers"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("vector norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestMockEmbedderSharedWordsCorrelate(t *testing.T) {
	m := NewMockEmbedder(256)

	vecs, err := m.Embed(context.Background(), []string{
		"pricing strategy for gyms",
		"pricing strategy for dentists",
		"completely unrelated gardening topic",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	related := dot(vecs[0], vecs[1])
	unrelated := dot(vecs[0], vecs[2])
	if related <= unrelated {
		t.Errorf("texts sharing words should be more similar: related=%v unrelated=%v", related, unrelated)
	}
}

func TestMockEmbedderDimension(t *testing.T) {
	m := NewMockEmbedder(128)
	if m.Dimension() != 128 {
		t.Errorf("Dimension = %d", m.Dimension())
	}

	vecs, err := m.Embed(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs[0]) != 128 {
		t.Errorf("vector length = %d, want 128", len(vecs[0]))
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
