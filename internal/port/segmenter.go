package port

import "framerag/internal/domain"

// Segmenter partitions a document into chunks.
type Segmenter interface {
	// Segment splits text into chunks. Protected regions become single
	// atomic chunks; the text between them is segmented ordinarily.
	Segment(text string) ([]domain.Chunk, error)
}

// Validator inspects a chunk set for cohesion violations.
type Validator interface {
	Validate(chunks []domain.Chunk) domain.CohesionReport

	// Remediate applies the configured policy to critical violations and
	// returns the (possibly rewritten) chunk set.
	Remediate(chunks []domain.Chunk, report domain.CohesionReport) ([]domain.Chunk, domain.CohesionReport, error)
}
