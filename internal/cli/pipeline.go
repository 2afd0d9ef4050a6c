package cli

import (
	"fmt"
	"log/slog"
	"time"

	"framerag/config"
	"framerag/internal/adapter/chunker"
	"framerag/internal/adapter/detector"
	"framerag/internal/adapter/embedding"
	"framerag/internal/adapter/retriever"
	"framerag/internal/adapter/validator"
	"framerag/internal/domain"
	"framerag/internal/port"
)

// buildSegmenter wires the detection and chunking pipeline.
func buildSegmenter(cfg *config.Config, vocab domain.Vocabulary) *chunker.CohesionChunker {
	det := detector.New(cfg.Detection, vocab, slog.Default())
	std := chunker.NewStandardChunker(cfg.Chunking)
	return chunker.NewCohesionChunker(det, std, vocab, slog.Default())
}

func buildValidator(cfg *config.Config, vocab domain.Vocabulary) *validator.CohesionValidator {
	return validator.New(cfg.Validation, vocab, slog.Default())
}

// buildEmbedder returns the configured embedder, or nil when embedding is
// disabled.
func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	if !cfg.Embedding.Enabled {
		return nil, nil
	}

	var inner port.Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	case "", "openai":
		e, err := embedding.NewOpenAIEmbedder(
			cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model,
			cfg.Embedding.Dimension,
			cfg.Embedding.BatchSize,
			cfg.Retrieval.RetryAttempts,
			time.Duration(cfg.Retrieval.RetryBaseDelayMs)*time.Millisecond,
		)
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}

	return embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize), nil
}

// buildReranker returns the configured reranker, or nil when reranking is
// disabled or its provider cannot be constructed. Reranking is strictly
// optional, so a missing API key degrades instead of failing.
func buildReranker(cfg *config.Config) port.Reranker {
	if !cfg.Rerank.Enabled {
		return nil
	}

	switch cfg.Rerank.Provider {
	case "lexical":
		return retriever.NewLexicalReranker()
	case "", "cohere":
		r, err := retriever.NewCohereReranker(
			cfg.Rerank.APIKeyEnv,
			cfg.Rerank.Model,
			time.Duration(cfg.Rerank.TimeoutSeconds)*time.Second,
		)
		if err != nil {
			slog.Warn("reranker unavailable, continuing without it", "err", err)
			return nil
		}
		return r
	default:
		slog.Warn("unknown rerank provider, continuing without it", "provider", cfg.Rerank.Provider)
		return nil
	}
}
