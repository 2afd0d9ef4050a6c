package port

import (
	"context"

	"framerag/internal/domain"
)

// Retriever ranks chunks against a query.
type Retriever interface {
	// Retrieve returns up to topK results sorted by descending score,
	// plus the signals that produced them.
	Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalOutcome, error)
}
