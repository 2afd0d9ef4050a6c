package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when the configured environment variable holds
// no key.
var ErrNoAPIKey = errors.New("embedding API key not set")

// OpenAIEmbedder generates embeddings via the OpenAI API, submitting
// texts in batches.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int

	retryAttempts int
	retryBase     time.Duration
}

// NewOpenAIEmbedder creates an embedder reading its key from apiKeyEnv.
func NewOpenAIEmbedder(apiKeyEnv, model string, dimension, batchSize, retryAttempts int, retryBase time.Duration) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, apiKeyEnv)
	}

	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dimension <= 0 {
		dimension = 1536
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}

	return &OpenAIEmbedder{
		client:        openai.NewClient(apiKey),
		model:         model,
		dimension:     dimension,
		batchSize:     batchSize,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
	}, nil
}

// Embed returns one vector per input text, preserving order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}

	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse

	op := func() error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		return err
	}
	if err := retry(ctx, op, e.retryAttempts, e.retryBase); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data))
	}

	vecs := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// Dimension returns the embedding vector dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the embedding model name.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// retry mirrors the retriever's backoff but stays local to avoid an
// adapter-to-adapter import.
func retry(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
