package port

import "framerag/internal/domain"

// ChunkStore persists chunks and their embeddings for a later retriever
// instance to load. Embeddings may be nil for chunks embedded elsewhere.
type ChunkStore interface {
	PutChunks(chunks []domain.Chunk, embeddings [][]float32) error

	LoadAll() ([]domain.Chunk, [][]float32, error)

	Count() (int, error)

	Clear() error

	Close() error
}
