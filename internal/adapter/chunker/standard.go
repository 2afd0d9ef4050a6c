package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"framerag/config"
	"framerag/internal/domain"
)

// StandardChunker applies ordinary size-based segmentation: paragraph
// boundaries first, sentence boundaries when a paragraph is too large,
// hard splits when a single sentence still exceeds the maximum. Every
// chunk after the first in a range re-includes the trailing overlap of
// its predecessor, and Text is always the verbatim document slice
// doc[Start:End].
type StandardChunker struct {
	targetSize int
	maxSize    int
	overlap    int
}

// defaultStandardCohesion is the heuristic cohesion score assigned to
// ordinarily-segmented chunks.
const defaultStandardCohesion = 0.7

// NewStandardChunker creates a StandardChunker from chunking config.
func NewStandardChunker(cfg config.ChunkingConfig) *StandardChunker {
	return &StandardChunker{
		targetSize: cfg.TargetSize,
		maxSize:    cfg.MaxSize,
		overlap:    cfg.Overlap,
	}
}

// SegmentRange chunks doc[from:to). The produced core spans tile the
// range exactly; overlap appears only as a verbatim prefix borrowed from
// the preceding chunk.
func (c *StandardChunker) SegmentRange(doc string, from, to int) []domain.Chunk {
	if from >= to {
		return nil
	}

	atoms := c.atomStarts(doc, from, to)
	spans := c.packAtoms(atoms, from, to)

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		start := span[0]
		if i > 0 && c.overlap > 0 {
			start = span[0] - c.overlap
			if start < from {
				start = from
			}
			start = snapToRuneStart(doc, start)
		}

		text := doc[start:span[1]]
		chunks = append(chunks, domain.Chunk{
			ID:            chunkID(domain.ChunkStandard, start, span[1], text),
			Text:          text,
			Start:         start,
			End:           span[1],
			Kind:          domain.ChunkStandard,
			CohesionScore: defaultStandardCohesion,
			Metadata: domain.ChunkMetadata{
				ContentType:  domain.ContentConcept,
				PriorityTier: domain.PriorityMedium,
			},
		})
	}
	return chunks
}

// atomStarts returns the start offsets of the smallest units segmentation
// may cut at: paragraphs, or sentences inside oversized paragraphs, or
// fixed-size pieces inside oversized sentences. The first atom always
// starts at from.
func (c *StandardChunker) atomStarts(doc string, from, to int) []int {
	var atoms []int
	pos := from
	for pos < to {
		paraEnd, next := paragraphEndWithin(doc, pos, to)

		if paraEnd-pos <= c.maxSize {
			atoms = append(atoms, pos)
		} else {
			starts := sentenceStarts(doc, pos, paraEnd)
			for si, ss := range starts {
				atoms = append(atoms, ss)

				// A single sentence beyond maxSize gets hard cut points.
				sentEnd := paraEnd
				if si+1 < len(starts) {
					sentEnd = starts[si+1]
				}
				for cut := ss + c.maxSize; cut < sentEnd; cut += c.maxSize {
					atoms = append(atoms, snapToRuneStart(doc, cut))
				}
			}
		}
		pos = next
	}
	return atoms
}

// packAtoms greedily accumulates atoms into contiguous core spans no
// larger than targetSize (except when a single atom already is).
func (c *StandardChunker) packAtoms(atoms []int, from, to int) [][2]int {
	if len(atoms) == 0 {
		return [][2]int{{from, to}}
	}

	var spans [][2]int
	spanStart := from
	for i := 1; i < len(atoms); i++ {
		atomEnd := to
		if i+1 < len(atoms) {
			atomEnd = atoms[i+1]
		}
		if atomEnd-spanStart > c.targetSize && atoms[i] > spanStart {
			spans = append(spans, [2]int{spanStart, atoms[i]})
			spanStart = atoms[i]
		}
	}
	return append(spans, [2]int{spanStart, to})
}

// paragraphEndWithin returns the end of the paragraph containing pos and
// the start of the next paragraph, both clamped to the window end.
func paragraphEndWithin(doc string, pos, to int) (end, next int) {
	if i := strings.Index(doc[pos:to], "\n\n"); i >= 0 {
		end = pos + i
		next = end
		for next < to && doc[next] == '\n' {
			next++
		}
		return end, next
	}
	return to, to
}

// sentenceStarts returns the start offsets of sentences in doc[from:to).
func sentenceStarts(doc string, from, to int) []int {
	starts := []int{from}
	for i := from; i < to-1; i++ {
		ch := doc[i]
		if (ch == '.' || ch == '!' || ch == '?') && (doc[i+1] == ' ' || doc[i+1] == '\n') {
			next := i + 1
			for next < to && (doc[next] == ' ' || doc[next] == '\n') {
				next++
			}
			if next < to {
				starts = append(starts, next)
			}
		}
	}
	return starts
}

// snapToRuneStart moves pos left to the nearest UTF-8 rune boundary.
func snapToRuneStart(doc string, pos int) int {
	for pos > 0 && pos < len(doc) && doc[pos]&0xC0 == 0x80 {
		pos--
	}
	return pos
}

func chunkID(kind domain.ChunkKind, start, end int, text string) string {
	head := text
	if len(head) > 64 {
		head = head[:64]
	}
	data := fmt.Sprintf("%s:%d-%d:%s", kind, start, end, head)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
