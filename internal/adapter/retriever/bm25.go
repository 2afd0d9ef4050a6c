package retriever

import (
	"math"

	"framerag/internal/adapter/analyzer"
	"framerag/internal/domain"
)

// BM25Index is an immutable lexical index over one chunk set, built once
// at construction and never mutated by a query.
type BM25Index struct {
	tokens    [][]string
	tf        []map[string]int
	df        map[string]int
	avgLen    float64
	totalDocs int
	k1        float64
	b         float64
}

// NewBM25Index builds the index.
func NewBM25Index(chunks []domain.Chunk, tokenizer *analyzer.Tokenizer, k1, b float64) *BM25Index {
	idx := &BM25Index{
		tokens:    make([][]string, len(chunks)),
		tf:        make([]map[string]int, len(chunks)),
		df:        make(map[string]int),
		totalDocs: len(chunks),
		k1:        k1,
		b:         b,
	}

	totalLen := 0
	for i, ch := range chunks {
		toks := tokenizer.Tokenize(ch.Text)
		idx.tokens[i] = toks
		totalLen += len(toks)

		tf := make(map[string]int, len(toks))
		for _, t := range toks {
			tf[t]++
		}
		idx.tf[i] = tf
		for term := range tf {
			idx.df[term]++
		}
	}
	if len(chunks) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(chunks))
	}

	return idx
}

// Score returns the BM25 score of the chunk at ordinal i against the
// query terms.
func (idx *BM25Index) Score(queryTerms []string, i int) float64 {
	if i < 0 || i >= idx.totalDocs || idx.avgLen == 0 {
		return 0
	}

	dl := float64(len(idx.tokens[i]))
	N := float64(idx.totalDocs)
	score := 0.0

	for _, term := range queryTerms {
		tf, exists := idx.tf[i][term]
		if !exists {
			continue
		}

		n := float64(idx.df[term])
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)

		tfFloat := float64(tf)
		score += idf * (tfFloat * (idx.k1 + 1)) / (tfFloat + idx.k1*(1-idx.b+idx.b*dl/idx.avgLen))
	}

	return score
}

// ScoreAll scores every chunk and returns the ordinals scoring at or
// above floor, in ordinal order, with their scores.
func (idx *BM25Index) ScoreAll(queryTerms []string, floor float64) ([]int, []float64) {
	var ids []int
	var scores []float64
	for i := 0; i < idx.totalDocs; i++ {
		if s := idx.Score(queryTerms, i); s > 0 && s >= floor {
			ids = append(ids, i)
			scores = append(scores, s)
		}
	}
	return ids, scores
}
