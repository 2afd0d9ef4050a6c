package domain

// UnitKind identifies the kind of indivisible span a detector found.
type UnitKind int

const (
	UnitFramework UnitKind = iota
	UnitNumberedList
	UnitSequence
	UnitExamplePair
)

func (k UnitKind) String() string {
	switch k {
	case UnitFramework:
		return "framework"
	case UnitNumberedList:
		return "numbered_list"
	case UnitSequence:
		return "sequence"
	case UnitExamplePair:
		return "example_pair"
	default:
		return "unknown"
	}
}

// Priority orders units when overlapping spans compete for protection.
// Higher values win.
type Priority int

const (
	PriorityMedium Priority = iota
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	default:
		return "medium"
	}
}

// AtomicUnit is a detected text span that must not be split across chunks.
// Offsets are byte offsets into the source document, Start < End.
type AtomicUnit struct {
	Start        int
	End          int
	Kind         UnitKind
	FrameworkTag string
	Priority     Priority
	Confidence   float64
	Detail       map[string]string
}

// ProtectedRegion is a resolved, non-overlapping span derived from one or
// more atomic units. Within a resolved set no two regions overlap.
type ProtectedRegion struct {
	Start       int
	End         int
	Kind        UnitKind
	Priority    Priority
	SourceUnits []AtomicUnit
	Reason      string
}

// ChunkKind distinguishes protected chunks from ordinary ones.
type ChunkKind int

const (
	ChunkStandard ChunkKind = iota
	ChunkAtomic
)

func (k ChunkKind) String() string {
	if k == ChunkAtomic {
		return "atomic"
	}
	return "standard"
}

// ContentType classifies what a chunk's text is, for intent matching.
type ContentType int

const (
	ContentConcept ContentType = iota
	ContentFramework
	ContentProcess
	ContentExample
	ContentTemplate
)

func (c ContentType) String() string {
	switch c {
	case ContentFramework:
		return "framework"
	case ContentProcess:
		return "process"
	case ContentExample:
		return "example"
	case ContentTemplate:
		return "template"
	default:
		return "concept"
	}
}

// ChunkMetadata carries the invariant-bearing attributes of a chunk as
// typed fields; Detail is the escape hatch for open-ended annotations.
type ChunkMetadata struct {
	FrameworkName       string            `json:"framework_name,omitempty"`
	ContentType         ContentType       `json:"content_type"`
	PriorityTier        Priority          `json:"priority_tier"`
	UseCases            []string          `json:"use_cases,omitempty"`
	IsCompleteFramework bool              `json:"is_complete_framework"`
	Detail              map[string]string `json:"detail,omitempty"`
}

// Chunk is the unit of retrieval. Text is the verbatim slice
// doc[Start:End] of the source document, overlap prefix included. The
// one exception is a remediation-merged chunk, whose Text joins its
// member texts and whose span is nominal (marked Detail["span"]).
// CohesionScore is 1.0 for atomic chunks; standard chunks carry a
// heuristic default. Chunks are immutable once produced.
type Chunk struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	Start         int           `json:"start"`
	End           int           `json:"end"`
	Kind          ChunkKind     `json:"kind"`
	SourceUnits   []AtomicUnit  `json:"-"`
	CohesionScore float64       `json:"cohesion_score"`
	Metadata      ChunkMetadata `json:"metadata"`
}

// Severity ranks cohesion violations.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// CohesionViolation is one integrity problem found in a chunk set.
type CohesionViolation struct {
	Severity        Severity `json:"severity"`
	Kind            string   `json:"kind"`
	ChunkID         string   `json:"chunk_id"`
	Description     string   `json:"description"`
	AffectedContent string   `json:"affected_content,omitempty"`
	Suggestion      string   `json:"suggestion,omitempty"`
}

// CohesionReport aggregates validation results over one chunk set.
// The per-family rates default to 1.0 when no applicable units exist.
type CohesionReport struct {
	TotalChunks            int                 `json:"total_chunks"`
	AtomicChunks           int                 `json:"atomic_chunks"`
	Violations             []CohesionViolation `json:"violations,omitempty"`
	CohesionScore          float64             `json:"cohesion_score"`
	FrameworkIntegrityRate float64             `json:"framework_integrity_rate"`
	ListCompletenessRate   float64             `json:"list_completeness_rate"`
	ExampleCoherenceRate   float64             `json:"example_coherence_rate"`
	ProcessingTimeMs       int64               `json:"processing_time_ms"`
}

// HasCritical reports whether any violation is Critical.
func (r CohesionReport) HasCritical() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// QueryIntent is the coarse class of what a query is asking for.
type QueryIntent int

const (
	IntentGeneral QueryIntent = iota
	IntentDefinition
	IntentProcess
	IntentExample
	IntentTemplate
)

func (i QueryIntent) String() string {
	switch i {
	case IntentDefinition:
		return "definition"
	case IntentProcess:
		return "process"
	case IntentExample:
		return "example"
	case IntentTemplate:
		return "template"
	default:
		return "general"
	}
}

// ProcessedQuery is the query-processor output consumed by retrieval.
type ProcessedQuery struct {
	Original   string
	Expanded   string
	Intent     QueryIntent
	Frameworks []string
	UseCases   []string
	KeyTerms   []string
}

// RetrievalResult is one ranked candidate. The per-source scores are kept
// so callers can see which signal carried the result.
type RetrievalResult struct {
	Chunk        Chunk   `json:"chunk"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	KeywordScore float64 `json:"keyword_score"`
	RerankScore  float64 `json:"rerank_score"`
	MatchReason  string  `json:"match_reason"`
}

// RetrievalOutcome distinguishes "no relevant chunks" from "signals were
// unavailable": SignalsUsed lists the sources that actually ran, and
// Diagnostic is non-empty whenever capability was degraded.
type RetrievalOutcome struct {
	Results     []RetrievalResult `json:"results"`
	SignalsUsed []string          `json:"signals_used"`
	Diagnostic  string            `json:"diagnostic,omitempty"`
}
