package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"framerag/internal/domain"
	"framerag/internal/port"
)

// DocumentSource lists and reads ingestable documents.
type DocumentSource interface {
	port.FileWalker
	ReadFile(path string) (string, error)
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Documents    int
	Failed       int
	Chunks       int
	AtomicChunks int
	Violations   int
	Criticals    int
	Duration     time.Duration
}

// Ingestor runs the chunking pipeline over a document tree: read,
// segment, validate, remediate, embed, store. Documents are processed
// concurrently; a failure in one document is logged and skipped, never
// aborting the run.
type Ingestor struct {
	source    DocumentSource
	segmenter port.Segmenter
	validator port.Validator
	embedder  port.Embedder // nil skips embedding
	store     port.ChunkStore
	workers   int
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(
	source DocumentSource,
	segmenter port.Segmenter,
	validator port.Validator,
	embedder port.Embedder,
	store port.ChunkStore,
	workers int,
	logger *slog.Logger,
) *Ingestor {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		source:    source,
		segmenter: segmenter,
		validator: validator,
		embedder:  embedder,
		store:     store,
		workers:   workers,
		logger:    logger,
	}
}

// Ingest processes every document under root. progress, when non-nil, is
// called after each document with (done, total).
func (in *Ingestor) Ingest(ctx context.Context, root string, progress func(done, total int)) (IngestStats, error) {
	started := time.Now()

	files, err := in.source.Walk(root)
	if err != nil {
		return IngestStats{}, fmt.Errorf("walking %s: %w", root, err)
	}
	if len(files) == 0 {
		return IngestStats{Duration: time.Since(started)}, nil
	}

	pool, err := ants.NewPool(in.workers)
	if err != nil {
		return IngestStats{}, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		stats IngestStats
		done  int
	)

	for _, file := range files {
		file := file
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			docStats, docErr := in.ingestOne(ctx, file.Path)

			mu.Lock()
			stats.Documents++
			if docErr != nil {
				stats.Failed++
				in.logger.Warn("document skipped", "path", file.Path, "err", docErr)
			} else {
				stats.Chunks += docStats.Chunks
				stats.AtomicChunks += docStats.AtomicChunks
				stats.Violations += docStats.Violations
				stats.Criticals += docStats.Criticals
			}
			done++
			if progress != nil {
				progress(done, len(files))
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			stats.Documents++
			stats.Failed++
			mu.Unlock()
			in.logger.Warn("document skipped", "path", file.Path, "err", submitErr)
		}
	}

	wg.Wait()

	stats.Duration = time.Since(started)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, path string) (IngestStats, error) {
	if err := ctx.Err(); err != nil {
		return IngestStats{}, err
	}

	text, err := in.source.ReadFile(path)
	if err != nil {
		return IngestStats{}, fmt.Errorf("reading: %w", err)
	}

	chunks, err := in.segmenter.Segment(text)
	if err != nil {
		return IngestStats{}, fmt.Errorf("segmenting: %w", err)
	}
	if len(chunks) == 0 {
		return IngestStats{}, nil
	}

	report := in.validator.Validate(chunks)
	chunks, report, err = in.validator.Remediate(chunks, report)
	if err != nil {
		return IngestStats{}, fmt.Errorf("remediating: %w", err)
	}

	var embeddings [][]float32
	if in.embedder != nil {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		embeddings, err = in.embedder.Embed(ctx, texts)
		if err != nil {
			// Chunks are still stored; retrieval falls back to
			// lexical-only over vectorless indexes.
			in.logger.Warn("embedding failed, storing chunks without vectors", "path", path, "err", err)
			embeddings = nil
		}
	}

	if err := in.store.PutChunks(chunks, embeddings); err != nil {
		return IngestStats{}, fmt.Errorf("storing: %w", err)
	}

	docStats := IngestStats{
		Chunks:     len(chunks),
		Violations: len(report.Violations),
	}
	for _, ch := range chunks {
		if ch.Kind == domain.ChunkAtomic {
			docStats.AtomicChunks++
		}
	}
	for _, v := range report.Violations {
		if v.Severity == domain.SeverityCritical {
			docStats.Criticals++
		}
	}

	return docStats, nil
}
