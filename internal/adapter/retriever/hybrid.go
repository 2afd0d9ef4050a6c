package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"framerag/config"
	"framerag/internal/adapter/queryproc"
	"framerag/internal/domain"
	"framerag/internal/port"
)

var (
	// ErrInvalidTopK is returned when topK is out of range.
	ErrInvalidTopK = errors.New("topK out of range")

	// ErrChunkEmbeddingMismatch is returned at construction when the
	// embedding matrix does not line up with the chunk set.
	ErrChunkEmbeddingMismatch = errors.New("embeddings do not match chunk set")
)

// Signal names recorded in RetrievalOutcome and matchReason.
const (
	signalVector    = "vector_similarity"
	signalKeyword   = "keyword_match"
	signalFramework = "framework_match"
)

// HybridRetriever ranks chunks against a query by fusing independent
// vector, lexical, and framework signals, then applying metadata boosts
// and optional external reranking. Everything it holds is built at
// construction and read-only afterward, so one instance serves concurrent
// queries without locking; per-query state lives on the stack of each
// Retrieve call.
type HybridRetriever struct {
	chunks     []domain.Chunk
	embeddings [][]float32
	index      *BM25Index
	embedder   port.Embedder // nil disables the vector signal
	reranker   port.Reranker // nil disables reranking
	processor  *queryproc.Processor
	cfg        config.RetrievalConfig
	rerankCfg  config.RerankConfig
	logger     *slog.Logger

	byFramework map[string][]int
	byUseCase   map[string][]int
}

// NewHybridRetriever builds a retriever over an immutable chunk set.
// embeddings may be nil (lexical-only retrieval) but when present must
// hold one vector per chunk.
func NewHybridRetriever(
	chunks []domain.Chunk,
	embeddings [][]float32,
	index *BM25Index,
	embedder port.Embedder,
	reranker port.Reranker,
	processor *queryproc.Processor,
	cfg config.RetrievalConfig,
	rerankCfg config.RerankConfig,
	logger *slog.Logger,
) (*HybridRetriever, error) {
	if embeddings != nil && len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks, %d embeddings", ErrChunkEmbeddingMismatch, len(chunks), len(embeddings))
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &HybridRetriever{
		chunks:      chunks,
		embeddings:  embeddings,
		index:       index,
		embedder:    embedder,
		reranker:    reranker,
		processor:   processor,
		cfg:         cfg,
		rerankCfg:   rerankCfg,
		logger:      logger,
		byFramework: make(map[string][]int),
		byUseCase:   make(map[string][]int),
	}

	// Derived lookup indexes; computed once, never as back-references
	// between chunks.
	for i, ch := range chunks {
		if name := ch.Metadata.FrameworkName; name != "" {
			key := strings.ToLower(name)
			r.byFramework[key] = append(r.byFramework[key], i)
		}
		for _, uc := range ch.Metadata.UseCases {
			key := strings.ToLower(uc)
			r.byUseCase[key] = append(r.byUseCase[key], i)
		}
	}

	return r, nil
}

// candidate accumulates one chunk's per-source contributions for a single
// query.
type candidate struct {
	ord            int
	vectorScore    float64
	keywordScore   float64
	frameworkScore float64
	sources        []string
}

// candidateSet preserves first-seen order so final ties stay
// deterministic.
type candidateSet struct {
	byOrd map[int]*candidate
	order []int
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byOrd: make(map[int]*candidate)}
}

func (s *candidateSet) get(ord int) *candidate {
	if c, ok := s.byOrd[ord]; ok {
		return c
	}
	c := &candidate{ord: ord}
	s.byOrd[ord] = c
	s.order = append(s.order, ord)
	return c
}

func (c *candidate) addSource(name string) {
	for _, s := range c.sources {
		if s == name {
			return
		}
	}
	c.sources = append(c.sources, name)
}

// Retrieve returns up to topK results sorted by descending fused score.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalOutcome, error) {
	if topK <= 0 || topK > r.cfg.MaxTopK {
		return domain.RetrievalOutcome{}, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidTopK, topK, r.cfg.MaxTopK)
	}

	pq, err := r.processor.Process(query)
	if err != nil {
		return domain.RetrievalOutcome{}, err
	}

	cands := newCandidateSet()
	var signals []string
	var degraded []string

	if r.embedder != nil && len(r.embeddings) == len(r.chunks) && len(r.chunks) > 0 {
		if err := r.addVectorCandidates(ctx, pq, cands); err != nil {
			r.logger.Warn("query embedding failed, degrading to lexical-only retrieval", "err", err)
			degraded = append(degraded, "vector signal unavailable: "+err.Error())
		} else {
			signals = append(signals, signalVector)
		}
	}

	if len(pq.KeyTerms) > 0 {
		r.addKeywordCandidates(pq, cands)
		signals = append(signals, signalKeyword)
	}

	if len(pq.Frameworks) > 0 {
		r.addFrameworkCandidates(pq, cands)
		signals = append(signals, signalFramework)
	}

	if len(signals) == 0 {
		return domain.RetrievalOutcome{
			SignalsUsed: nil,
			Diagnostic:  "no retrieval signal available: " + strings.Join(degraded, "; "),
		}, nil
	}

	results := r.fuseAndBoost(pq, cands)

	if r.reranker != nil && r.rerankCfg.Enabled && len(results) > 1 {
		if rerr := r.applyRerank(ctx, pq, results); rerr != nil {
			r.logger.Warn("reranking failed, keeping fused order", "err", rerr)
			degraded = append(degraded, "rerank unavailable: "+rerr.Error())
		} else {
			signals = append(signals, "rerank")
		}
	}

	if len(results) > topK {
		results = results[:topK]
	}

	return domain.RetrievalOutcome{
		Results:     results,
		SignalsUsed: signals,
		Diagnostic:  strings.Join(degraded, "; "),
	}, nil
}

// addVectorCandidates embeds the expanded query and keeps the chunks
// whose cosine similarity clears the floor, capped at the candidate
// budget.
func (r *HybridRetriever) addVectorCandidates(ctx context.Context, pq domain.ProcessedQuery, cands *candidateSet) error {
	var queryVec []float32
	op := func() error {
		vecs, err := r.embedder.Embed(ctx, []string{pq.Expanded})
		if err != nil {
			return err
		}
		if len(vecs) == 0 {
			return errors.New("embedder returned no vectors")
		}
		queryVec = vecs[0]
		return nil
	}
	if err := RetryWithBackoff(ctx, op, r.cfg.RetryAttempts, time.Duration(r.cfg.RetryBaseDelayMs)*time.Millisecond); err != nil {
		return err
	}

	type scored struct {
		ord int
		sim float64
	}
	var hits []scored
	for i := range r.chunks {
		sim := cosineSimilarity(queryVec, r.embeddings[i])
		if sim >= r.cfg.SimilarityFloor {
			hits = append(hits, scored{ord: i, sim: sim})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].ord < hits[j].ord
	})
	if budget := r.cfg.CandidateBudget; budget > 0 && len(hits) > budget {
		hits = hits[:budget]
	}

	for _, h := range hits {
		c := cands.get(h.ord)
		c.vectorScore = h.sim
		c.addSource(signalVector)
	}
	return nil
}

// addKeywordCandidates scores every chunk with BM25 and keeps those above
// the relevance floor, normalized to (0, 1] by the best score.
func (r *HybridRetriever) addKeywordCandidates(pq domain.ProcessedQuery, cands *candidateSet) {
	ids, scores := r.index.ScoreAll(pq.KeyTerms, r.cfg.KeywordFloor)
	if len(ids) == 0 {
		return
	}

	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	if best == 0 {
		return
	}

	for i, ord := range ids {
		c := cands.get(ord)
		c.keywordScore = scores[i] / best
		c.addSource(signalKeyword)
	}
}

// addFrameworkCandidates directly adds the atomic chunks of every
// framework the query names, boosted for completeness and priority tier.
func (r *HybridRetriever) addFrameworkCandidates(pq domain.ProcessedQuery, cands *candidateSet) {
	for _, name := range pq.Frameworks {
		for _, ord := range r.byFramework[strings.ToLower(name)] {
			ch := r.chunks[ord]
			if ch.Kind != domain.ChunkAtomic {
				continue
			}

			score := 1.0
			if ch.Metadata.IsCompleteFramework {
				score += 0.5
			}
			if ch.Metadata.PriorityTier == domain.PriorityCritical {
				score += 0.25
			}

			c := cands.get(ord)
			if score > c.frameworkScore {
				c.frameworkScore = score
			}
			c.addSource(signalFramework)
		}
	}
}

// fuseAndBoost turns accumulated candidates into results: per-source
// contributions are weighted and summed, metadata boosts are applied
// multiplicatively, and the final sort is stable over first-seen order so
// repeated calls return identical rankings.
func (r *HybridRetriever) fuseAndBoost(pq domain.ProcessedQuery, cands *candidateSet) []domain.RetrievalResult {
	results := make([]domain.RetrievalResult, 0, len(cands.order))

	for _, ord := range cands.order {
		c := cands.byOrd[ord]
		ch := r.chunks[ord]

		fused := r.cfg.VectorWeight*c.vectorScore +
			r.cfg.KeywordWeight*c.keywordScore +
			r.cfg.FrameworkWeight*c.frameworkScore

		fused = r.applyBoosts(pq, ch, fused)

		results = append(results, domain.RetrievalResult{
			Chunk:        ch,
			Score:        fused,
			VectorScore:  c.vectorScore,
			KeywordScore: c.keywordScore,
			MatchReason:  strings.Join(c.sources, "+"),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// applyBoosts multiplies in the configured metadata adjustments.
func (r *HybridRetriever) applyBoosts(pq domain.ProcessedQuery, ch domain.Chunk, score float64) float64 {
	if intentMatches(pq.Intent, ch.Metadata.ContentType) {
		score *= r.cfg.IntentBoost
	}

	if overlap := useCaseOverlap(pq.UseCases, ch.Metadata.UseCases); overlap > 0 {
		score *= 1 + r.cfg.UseCaseBoost*overlap
	}

	switch ch.Metadata.PriorityTier {
	case domain.PriorityCritical:
		score *= r.cfg.PriorityBoostCritical
	case domain.PriorityHigh:
		score *= r.cfg.PriorityBoostHigh
	}

	if ch.Metadata.IsCompleteFramework && len(pq.Frameworks) > 0 {
		score *= r.cfg.CompleteFrameworkBoost
	}

	return score
}

// applyRerank submits the leading candidates to the external reranker and
// reorders them by its scores. The tail past the rerank window keeps its
// fused order. Any error leaves results untouched.
func (r *HybridRetriever) applyRerank(ctx context.Context, pq domain.ProcessedQuery, results []domain.RetrievalResult) error {
	window := len(results)
	if r.rerankCfg.Candidates > 0 && window > r.rerankCfg.Candidates {
		window = r.rerankCfg.Candidates
	}

	texts := make([]string, window)
	for i := 0; i < window; i++ {
		texts[i] = results[i].Chunk.Text
	}

	var reranked []port.RerankedResult
	op := func() error {
		var err error
		reranked, err = r.reranker.Rerank(ctx, pq.Original, texts)
		return err
	}
	if err := RetryWithBackoff(ctx, op, r.cfg.RetryAttempts, time.Duration(r.cfg.RetryBaseDelayMs)*time.Millisecond); err != nil {
		return err
	}

	reordered := make([]domain.RetrievalResult, 0, window)
	seen := make(map[int]bool, window)
	for _, rr := range reranked {
		if rr.Index < 0 || rr.Index >= window || seen[rr.Index] {
			continue
		}
		seen[rr.Index] = true
		res := results[rr.Index]
		res.RerankScore = rr.Score
		reordered = append(reordered, res)
	}
	// A reranker returning a partial list leaves the rest in fused order.
	for i := 0; i < window; i++ {
		if !seen[i] {
			reordered = append(reordered, results[i])
		}
	}

	copy(results[:window], reordered)
	return nil
}

// GetFramework returns every atomic chunk of the named framework, most
// complete and most important first.
func (r *HybridRetriever) GetFramework(name string) []domain.RetrievalResult {
	ords := r.byFramework[strings.ToLower(strings.TrimSpace(name))]
	results := make([]domain.RetrievalResult, 0, len(ords))

	for _, ord := range ords {
		ch := r.chunks[ord]
		if ch.Kind != domain.ChunkAtomic {
			continue
		}

		score := 0.4
		if ch.Metadata.IsCompleteFramework {
			score += 0.4
		}
		if ch.Metadata.PriorityTier == domain.PriorityCritical {
			score += 0.2
		}

		results = append(results, domain.RetrievalResult{
			Chunk:       ch,
			Score:       score,
			MatchReason: "framework_lookup",
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// SearchByUseCase returns chunks tagged with the use case, ranked by a
// use-case importance score.
func (r *HybridRetriever) SearchByUseCase(useCase string) []domain.RetrievalResult {
	ords := r.byUseCase[strings.ToLower(strings.TrimSpace(useCase))]
	results := make([]domain.RetrievalResult, 0, len(ords))

	for _, ord := range ords {
		ch := r.chunks[ord]

		score := 0.4 * ch.CohesionScore
		switch ch.Metadata.PriorityTier {
		case domain.PriorityCritical:
			score += 0.3
		case domain.PriorityHigh:
			score += 0.15
		}
		if ch.Metadata.IsCompleteFramework {
			score += 0.3
		}

		results = append(results, domain.RetrievalResult{
			Chunk:       ch,
			Score:       score,
			MatchReason: "use_case_lookup",
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// intentMatches reports whether a chunk's content type serves the query
// intent.
func intentMatches(intent domain.QueryIntent, content domain.ContentType) bool {
	switch intent {
	case domain.IntentDefinition:
		return content == domain.ContentFramework || content == domain.ContentConcept
	case domain.IntentProcess:
		return content == domain.ContentProcess
	case domain.IntentExample:
		return content == domain.ContentExample
	case domain.IntentTemplate:
		return content == domain.ContentTemplate
	default:
		return false
	}
}

func useCaseOverlap(query, chunk []string) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(chunk))
	for _, uc := range chunk {
		set[strings.ToLower(uc)] = struct{}{}
	}

	matches := 0
	for _, uc := range query {
		if _, ok := set[strings.ToLower(uc)]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(query))
}

// cosineSimilarity clamps negative similarity to 0 so fusion weights stay
// monotone.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
