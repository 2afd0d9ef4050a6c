package chunker

import (
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"framerag/internal/adapter/detector"
	"framerag/internal/domain"
	"framerag/internal/port"
)

// ErrEmptyDocument is returned when Segment receives no text.
var ErrEmptyDocument = errors.New("empty document")

// completeComponentFraction is the share of a framework's expected
// components a chunk must contain to count as a complete framework.
const completeComponentFraction = 0.75

// CohesionChunker is the cohesion-aware segmenter: it detects atomic
// units, resolves them into protected regions, emits one verbatim chunk
// per region, and segments the gaps ordinarily. Any unexpected internal
// failure degrades to plain standard segmentation of the whole document
// rather than producing no chunks.
type CohesionChunker struct {
	detector port.Detector
	standard *StandardChunker
	vocab    domain.Vocabulary
	logger   *slog.Logger
}

// NewCohesionChunker creates a CohesionChunker. A nil logger uses
// slog.Default().
func NewCohesionChunker(det port.Detector, standard *StandardChunker, vocab domain.Vocabulary, logger *slog.Logger) *CohesionChunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CohesionChunker{
		detector: det,
		standard: standard,
		vocab:    vocab,
		logger:   logger,
	}
}

// Segment splits text into atomic and standard chunks. Input validation
// errors are returned as-is; everything past validation always yields a
// chunk set.
func (c *CohesionChunker) Segment(text string) (chunks []domain.Chunk, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cohesion-aware segmentation failed, degrading to standard segmentation", "panic", r)
			chunks = c.standardOnly(text)
			err = nil
		}
	}()

	units, derr := c.detector.Detect(text)
	if derr != nil {
		if errors.Is(derr, detector.ErrEmptyText) || errors.Is(derr, detector.ErrTextTooShort) {
			return nil, derr
		}
		c.logger.Error("detection failed, degrading to standard segmentation", "err", derr)
		return c.standardOnly(text), nil
	}

	regions := ResolveRegions(units)

	pos := 0
	for _, region := range regions {
		if region.Start > pos {
			chunks = append(chunks, c.enrich(text, c.standard.SegmentRange(text, pos, region.Start))...)
		}
		chunks = append(chunks, c.atomicChunk(text, region))
		pos = region.End
	}
	if pos < len(text) {
		chunks = append(chunks, c.enrich(text, c.standard.SegmentRange(text, pos, len(text)))...)
	}

	return chunks, nil
}

// standardOnly is the degraded path: the whole document through ordinary
// segmentation, no atomic protection.
func (c *CohesionChunker) standardOnly(text string) []domain.Chunk {
	return c.enrich(text, c.standard.SegmentRange(text, 0, len(text)))
}

// atomicChunk emits a protected region as a single verbatim chunk.
// Oversized regions are a quality warning, never split.
func (c *CohesionChunker) atomicChunk(doc string, region domain.ProtectedRegion) domain.Chunk {
	text := doc[region.Start:region.End]

	if len(text) > c.standard.maxSize {
		c.logger.Warn("atomic chunk exceeds standard maximum size",
			"size", len(text), "max", c.standard.maxSize, "reason", region.Reason)
	}

	meta := domain.ChunkMetadata{
		ContentType:  contentTypeFor(region.Kind),
		PriorityTier: region.Priority,
		UseCases:     c.vocab.DetectUseCases(text),
		Detail:       map[string]string{"protection_reason": region.Reason},
	}

	for _, unit := range region.SourceUnits {
		if unit.FrameworkTag == "" {
			continue
		}
		meta.FrameworkName = unit.FrameworkTag
		if pat, ok := c.vocab.FrameworkByName(unit.FrameworkTag); ok {
			meta.UseCases = mergeUseCases(meta.UseCases, pat.UseCases)
			expected := len(pat.Components)
			if expected > 0 {
				frac := float64(pat.CountComponents(text)) / float64(expected)
				meta.IsCompleteFramework = frac >= completeComponentFraction
			}
		}
		break
	}

	return domain.Chunk{
		ID:            chunkID(domain.ChunkAtomic, region.Start, region.End, text),
		Text:          text,
		Start:         region.Start,
		End:           region.End,
		Kind:          domain.ChunkAtomic,
		SourceUnits:   region.SourceUnits,
		CohesionScore: 1.0,
		Metadata:      meta,
	}
}

// enrich fills in content type and use cases for standard chunks.
func (c *CohesionChunker) enrich(doc string, chunks []domain.Chunk) []domain.Chunk {
	for i := range chunks {
		chunks[i].Metadata.ContentType = classifyStandard(chunks[i].Text)
		chunks[i].Metadata.UseCases = c.vocab.DetectUseCases(chunks[i].Text)
	}
	return chunks
}

func contentTypeFor(kind domain.UnitKind) domain.ContentType {
	switch kind {
	case domain.UnitFramework:
		return domain.ContentFramework
	case domain.UnitNumberedList, domain.UnitSequence:
		return domain.ContentProcess
	case domain.UnitExamplePair:
		return domain.ContentExample
	default:
		return domain.ContentConcept
	}
}

var templateHintRe = regexp.MustCompile(`(?i)\b(template|script|word[- ]for[- ]word)\b`)

func classifyStandard(text string) domain.ContentType {
	lower := strings.ToLower(text)
	switch {
	case templateHintRe.MatchString(text):
		return domain.ContentTemplate
	case strings.Contains(lower, "for example") || strings.Contains(lower, "for instance"):
		return domain.ContentExample
	case strings.Contains(lower, "step "):
		return domain.ContentProcess
	default:
		return domain.ContentConcept
	}
}

func mergeUseCases(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
	}
	sort.Strings(merged)
	return merged
}
