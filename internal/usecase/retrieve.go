package usecase

import (
	"context"
	"errors"
	"fmt"

	"framerag/config"
	"framerag/internal/domain"
	"framerag/internal/port"
)

// ErrTopKTooLarge is returned when a query asks for more results than the
// configured ceiling.
var ErrTopKTooLarge = errors.New("topK exceeds configured maximum")

// FrameworkSearcher exposes the retriever's direct lookup paths, which
// bypass query fusion entirely.
type FrameworkSearcher interface {
	GetFramework(name string) []domain.RetrievalResult
	SearchByUseCase(useCase string) []domain.RetrievalResult
}

// RetrievalService fronts the retriever with request validation and
// defaulting.
type RetrievalService struct {
	retriever port.Retriever
	searcher  FrameworkSearcher
	cfg       config.RetrievalConfig
}

// NewRetrievalService creates a RetrievalService. searcher may be nil
// when direct lookups are not needed.
func NewRetrievalService(retriever port.Retriever, searcher FrameworkSearcher, cfg config.RetrievalConfig) *RetrievalService {
	return &RetrievalService{retriever: retriever, searcher: searcher, cfg: cfg}
}

// Query runs a hybrid retrieval. topK <= 0 selects the configured
// default.
func (s *RetrievalService) Query(ctx context.Context, query string, topK int) (domain.RetrievalOutcome, error) {
	if topK <= 0 {
		topK = s.cfg.TopKDefault
	}
	if topK > s.cfg.MaxTopK {
		return domain.RetrievalOutcome{}, fmt.Errorf("%w: %d > %d", ErrTopKTooLarge, topK, s.cfg.MaxTopK)
	}

	return s.retriever.Retrieve(ctx, query, topK)
}

// Framework returns the stored chunks of a named framework.
func (s *RetrievalService) Framework(name string) []domain.RetrievalResult {
	if s.searcher == nil {
		return nil
	}
	return s.searcher.GetFramework(name)
}

// UseCase returns chunks tagged with a use case.
func (s *RetrievalService) UseCase(useCase string) []domain.RetrievalResult {
	if s.searcher == nil {
		return nil
	}
	return s.searcher.SearchByUseCase(useCase)
}
