package port

import "context"

// Reranker scores query-document pairs for relevance. It is best effort:
// callers must keep their existing order when a reranker fails.
type Reranker interface {
	// Rerank scores documents against the query and returns them sorted
	// by relevance score (highest first).
	Rerank(ctx context.Context, query string, documents []string) ([]RerankedResult, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}

// RerankedResult represents a reranked document.
type RerankedResult struct {
	Index int     // Original index in the input slice
	Score float64 // Relevance score (higher is better)
}
