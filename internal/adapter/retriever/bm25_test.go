package retriever

import (
	"testing"

	"framerag/internal/adapter/analyzer"
	"framerag/internal/domain"
)

func bm25Chunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "a", Text: "pricing pricing pricing strategy for offers"},
		{ID: "b", Text: "guarantee stack for risk reversal"},
		{ID: "c", Text: "pricing appears once here"},
	}
}

func TestBM25RareTermScoresHigher(t *testing.T) {
	idx := NewBM25Index(bm25Chunks(), analyzer.NewTokenizer(), 1.2, 0.75)

	guarantee := idx.Score([]string{"guarantee"}, 1)
	pricing := idx.Score([]string{"pricing"}, 0)

	if guarantee <= 0 || pricing <= 0 {
		t.Fatalf("matching docs must score positive: guarantee=%v pricing=%v", guarantee, pricing)
	}
	// "guarantee" appears in 1 of 3 docs, "pricing" in 2 of 3.
	if guarantee <= idx.Score([]string{"pricing"}, 2) {
		t.Errorf("rarer term should outscore a common term single occurrence")
	}
}

func TestBM25TermFrequencySaturates(t *testing.T) {
	idx := NewBM25Index(bm25Chunks(), analyzer.NewTokenizer(), 1.2, 0.75)

	triple := idx.Score([]string{"pricing"}, 0)
	single := idx.Score([]string{"pricing"}, 2)

	if triple <= single {
		t.Errorf("higher term frequency should score higher: %v vs %v", triple, single)
	}
	if triple >= 3*single {
		t.Errorf("BM25 must saturate, got %v vs %v", triple, single)
	}
}

func TestBM25NoMatchScoresZero(t *testing.T) {
	idx := NewBM25Index(bm25Chunks(), analyzer.NewTokenizer(), 1.2, 0.75)

	if s := idx.Score([]string{"nonexistent"}, 0); s != 0 {
		t.Errorf("Score = %v, want 0", s)
	}
	if s := idx.Score([]string{"pricing"}, 99); s != 0 {
		t.Errorf("out-of-range ordinal should score 0, got %v", s)
	}
}

func TestBM25ScoreAllAppliesFloor(t *testing.T) {
	idx := NewBM25Index(bm25Chunks(), analyzer.NewTokenizer(), 1.2, 0.75)

	ids, scores := idx.ScoreAll([]string{"pricing"}, 0.001)
	if len(ids) != 2 || len(scores) != 2 {
		t.Fatalf("expected 2 matches, got ids=%v scores=%v", ids, scores)
	}
	if ids[0] != 0 || ids[1] != 2 {
		t.Errorf("ids should be in ordinal order, got %v", ids)
	}

	ids, _ = idx.ScoreAll([]string{"nonexistent"}, 0.001)
	if len(ids) != 0 {
		t.Errorf("no docs should match, got %v", ids)
	}
}

func TestBM25EmptyIndex(t *testing.T) {
	idx := NewBM25Index(nil, analyzer.NewTokenizer(), 1.2, 0.75)

	if s := idx.Score([]string{"anything"}, 0); s != 0 {
		t.Errorf("empty index Score = %v, want 0", s)
	}
	if ids, _ := idx.ScoreAll([]string{"anything"}, 0); len(ids) != 0 {
		t.Errorf("empty index ScoreAll = %v", ids)
	}
}
