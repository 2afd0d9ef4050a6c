package usecase

import (
	"context"
	"errors"
	"testing"

	"framerag/config"
	"framerag/internal/domain"
)

type recordingRetriever struct {
	gotTopK int
}

func (r *recordingRetriever) Retrieve(_ context.Context, query string, topK int) (domain.RetrievalOutcome, error) {
	r.gotTopK = topK
	return domain.RetrievalOutcome{SignalsUsed: []string{"keyword_match"}}, nil
}

func TestQueryDefaultsTopK(t *testing.T) {
	inner := &recordingRetriever{}
	svc := NewRetrievalService(inner, nil, config.RetrievalConfig{TopKDefault: 5, MaxTopK: 50})

	if _, err := svc.Query(context.Background(), "pricing", 0); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if inner.gotTopK != 5 {
		t.Errorf("topK = %d, want the configured default 5", inner.gotTopK)
	}
}

func TestQueryRejectsExcessiveTopK(t *testing.T) {
	svc := NewRetrievalService(&recordingRetriever{}, nil, config.RetrievalConfig{TopKDefault: 5, MaxTopK: 50})

	if _, err := svc.Query(context.Background(), "pricing", 51); !errors.Is(err, ErrTopKTooLarge) {
		t.Errorf("err = %v, want ErrTopKTooLarge", err)
	}
}

func TestLookupsWithoutSearcher(t *testing.T) {
	svc := NewRetrievalService(&recordingRetriever{}, nil, config.RetrievalConfig{TopKDefault: 5, MaxTopK: 50})

	if got := svc.Framework("Value Equation"); got != nil {
		t.Errorf("Framework without a searcher should return nil, got %v", got)
	}
	if got := svc.UseCase("pricing"); got != nil {
		t.Errorf("UseCase without a searcher should return nil, got %v", got)
	}
}
