package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"framerag/internal/domain"
	"framerag/internal/port"
)

type memorySource struct {
	docs map[string]string // path -> content
}

func (m *memorySource) Walk(string) ([]port.FileInfo, error) {
	var files []port.FileInfo
	for path := range m.docs {
		files = append(files, port.FileInfo{Path: path})
	}
	return files, nil
}

func (m *memorySource) ReadFile(path string) (string, error) {
	content, ok := m.docs[path]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

// wordSegmenter emits one standard chunk per document and fails on
// documents containing "poison".
type wordSegmenter struct{}

func (wordSegmenter) Segment(text string) ([]domain.Chunk, error) {
	if strings.Contains(text, "poison") {
		return nil, errors.New("segmentation failed")
	}
	return []domain.Chunk{{
		ID:            fmt.Sprintf("chunk-%d", len(text)),
		Text:          text,
		Start:         0,
		End:           len(text),
		Kind:          domain.ChunkStandard,
		CohesionScore: 0.7,
	}}, nil
}

type passValidator struct{}

func (passValidator) Validate(chunks []domain.Chunk) domain.CohesionReport {
	return domain.CohesionReport{TotalChunks: len(chunks), FrameworkIntegrityRate: 1, ListCompletenessRate: 1, ExampleCoherenceRate: 1, CohesionScore: 1}
}

func (passValidator) Remediate(chunks []domain.Chunk, report domain.CohesionReport) ([]domain.Chunk, domain.CohesionReport, error) {
	return chunks, report, nil
}

type memoryStore struct {
	mu     sync.Mutex
	chunks []domain.Chunk
}

func (s *memoryStore) PutChunks(chunks []domain.Chunk, _ [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *memoryStore) LoadAll() ([]domain.Chunk, [][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Chunk{}, s.chunks...), nil, nil
}

func (s *memoryStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks), nil
}

func (s *memoryStore) Clear() error { s.chunks = nil; return nil }
func (s *memoryStore) Close() error { return nil }

func TestIngestProcessesAllDocuments(t *testing.T) {
	source := &memorySource{docs: map[string]string{
		"/docs/a.md": "document alpha",
		"/docs/b.md": "document bravo",
		"/docs/c.md": "document charlie",
	}}
	store := &memoryStore{}

	ingestor := NewIngestor(source, wordSegmenter{}, passValidator{}, nil, store, 2, nil)

	var mu sync.Mutex
	progressCalls := 0
	stats, err := ingestor.Ingest(context.Background(), "/docs", func(done, total int) {
		mu.Lock()
		progressCalls++
		mu.Unlock()
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if stats.Documents != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", stats.Chunks)
	}
	if n, _ := store.Count(); n != 3 {
		t.Errorf("stored %d chunks, want 3", n)
	}
	if progressCalls != 3 {
		t.Errorf("progress called %d times, want 3", progressCalls)
	}
}

func TestIngestSkipsFailingDocument(t *testing.T) {
	source := &memorySource{docs: map[string]string{
		"/docs/good.md": "document alpha",
		"/docs/bad.md":  "poison document",
	}}
	store := &memoryStore{}

	ingestor := NewIngestor(source, wordSegmenter{}, passValidator{}, nil, store, 2, nil)

	stats, err := ingestor.Ingest(context.Background(), "/docs", nil)
	if err != nil {
		t.Fatalf("a failing document must not abort the run: %v", err)
	}
	if stats.Documents != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 documents with 1 failure", stats)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("stored %d chunks, want 1", n)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider unavailable")
}

func (failingEmbedder) Dimension() int { return 0 }

func (failingEmbedder) ModelName() string { return "failing" }

func TestIngestStoresChunksWhenEmbedderFails(t *testing.T) {
	source := &memorySource{docs: map[string]string{
		"/docs/a.md": "document alpha",
		"/docs/b.md": "document bravo",
	}}
	store := &memoryStore{}

	ingestor := NewIngestor(source, wordSegmenter{}, passValidator{}, failingEmbedder{}, store, 2, nil)

	stats, err := ingestor.Ingest(context.Background(), "/docs", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.Failed != 0 {
		t.Errorf("an embedding failure must not drop documents, stats = %+v", stats)
	}
	if n, _ := store.Count(); n != 2 {
		t.Errorf("stored %d chunks, want 2 (vectorless)", n)
	}
}

func TestIngestEmptyTree(t *testing.T) {
	ingestor := NewIngestor(&memorySource{docs: map[string]string{}}, wordSegmenter{}, passValidator{}, nil, &memoryStore{}, 2, nil)

	stats, err := ingestor.Ingest(context.Background(), "/empty", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.Documents != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
}

func TestIngestHonorsContextCancellation(t *testing.T) {
	source := &memorySource{docs: map[string]string{
		"/docs/a.md": "document alpha",
		"/docs/b.md": "document bravo",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ingestor := NewIngestor(source, wordSegmenter{}, passValidator{}, nil, &memoryStore{}, 2, nil)
	if _, err := ingestor.Ingest(ctx, "/docs", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
