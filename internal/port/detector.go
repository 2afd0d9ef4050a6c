package port

import "framerag/internal/domain"

// Detector scans raw text and emits candidate indivisible spans.
type Detector interface {
	// Detect returns the atomic units found in text, sorted by start
	// offset. It fails only on structurally invalid input; a single
	// pattern family failing yields partial results instead.
	Detect(text string) ([]domain.AtomicUnit, error)
}
