package validator

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"framerag/config"
	"framerag/internal/domain"
)

// ErrCohesionBlocked is returned by Remediate under the "block" policy
// when critical violations remain.
var ErrCohesionBlocked = errors.New("critical cohesion violations block ingestion")

// CohesionValidator inspects a chunk set for integrity violations and
// produces a scored report. Remediation of critical violations follows an
// explicit configured policy instead of a silent best-effort pass.
type CohesionValidator struct {
	cfg    config.ValidationConfig
	vocab  domain.Vocabulary
	logger *slog.Logger
}

// New creates a CohesionValidator. A nil logger uses slog.Default().
func New(cfg config.ValidationConfig, vocab domain.Vocabulary, logger *slog.Logger) *CohesionValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CohesionValidator{cfg: cfg, vocab: vocab, logger: logger}
}

// Validate runs every check family over chunks and aggregates the report.
func (v *CohesionValidator) Validate(chunks []domain.Chunk) domain.CohesionReport {
	start := time.Now()

	report := domain.CohesionReport{
		TotalChunks:            len(chunks),
		FrameworkIntegrityRate: 1.0,
		ListCompletenessRate:   1.0,
		ExampleCoherenceRate:   1.0,
	}
	for _, ch := range chunks {
		if ch.Kind == domain.ChunkAtomic {
			report.AtomicChunks++
		}
	}

	fwViolations, fwTotal, fwBad := v.checkFrameworkIntegrity(chunks)
	listViolations, listTotal, listBad := v.checkListCompleteness(chunks)
	exViolations, exTotal, exBad := v.checkExampleCoherence(chunks)
	generalViolations := v.checkGeneralQuality(chunks)

	report.Violations = append(report.Violations, fwViolations...)
	report.Violations = append(report.Violations, listViolations...)
	report.Violations = append(report.Violations, exViolations...)
	report.Violations = append(report.Violations, generalViolations...)

	if fwTotal > 0 {
		report.FrameworkIntegrityRate = float64(fwTotal-fwBad) / float64(fwTotal)
	}
	if listTotal > 0 {
		report.ListCompletenessRate = float64(listTotal-listBad) / float64(listTotal)
	}
	if exTotal > 0 {
		report.ExampleCoherenceRate = float64(exTotal-exBad) / float64(exTotal)
	}

	report.CohesionScore = overallScore(chunks, report.Violations)
	report.ProcessingTimeMs = time.Since(start).Milliseconds()

	return report
}

// checkFrameworkIntegrity flags frameworks split across chunks and, for
// frameworks held in a single chunk, re-counts expected components
// against the completeness threshold.
func (v *CohesionValidator) checkFrameworkIntegrity(chunks []domain.Chunk) (violations []domain.CohesionViolation, total, bad int) {
	byFramework := make(map[string][]domain.Chunk)
	for _, ch := range chunks {
		if name := ch.Metadata.FrameworkName; name != "" {
			byFramework[name] = append(byFramework[name], ch)
		}
	}

	names := make([]string, 0, len(byFramework))
	for name := range byFramework {
		names = append(names, name)
	}
	sort.Strings(names)

	total = len(names)
	for _, name := range names {
		group := byFramework[name]
		if len(group) > 1 {
			bad++
			ids := make([]string, len(group))
			for i, ch := range group {
				ids[i] = ch.ID
			}
			violations = append(violations, domain.CohesionViolation{
				Severity:        domain.SeverityCritical,
				Kind:            "split_framework",
				ChunkID:         group[0].ID,
				Description:     fmt.Sprintf("framework %q is split across %d chunks", name, len(group)),
				AffectedContent: strings.Join(ids, ","),
				Suggestion:      "merge the chunks or re-segment with a larger max span",
			})
			continue
		}

		ch := group[0]
		pat, ok := v.vocab.FrameworkByName(name)
		if !ok || len(pat.Components) == 0 {
			continue
		}
		frac := float64(pat.CountComponents(ch.Text)) / float64(len(pat.Components))
		if frac < v.cfg.ComponentThreshold {
			bad++
			violations = append(violations, domain.CohesionViolation{
				Severity:    domain.SeverityCritical,
				Kind:        "incomplete_framework",
				ChunkID:     ch.ID,
				Description: fmt.Sprintf("framework %q carries %.0f%% of expected components, below %.0f%%", name, frac*100, v.cfg.ComponentThreshold*100),
				Suggestion:  "extend the protected span to cover the full explanation",
			})
		}
	}
	return violations, total, bad
}

// checkListCompleteness flags list chunks with too few items or with a
// truncated-looking tail.
func (v *CohesionValidator) checkListCompleteness(chunks []domain.Chunk) (violations []domain.CohesionViolation, total, bad int) {
	for _, ch := range chunks {
		if !isListChunk(ch) {
			continue
		}
		total++

		items := countListItems(ch.Text)
		if items < 2 {
			bad++
			violations = append(violations, domain.CohesionViolation{
				Severity:    domain.SeverityHigh,
				Kind:        "incomplete_list",
				ChunkID:     ch.ID,
				Description: fmt.Sprintf("list chunk holds %d item(s), minimum is 2", items),
				Suggestion:  "verify the list was not truncated during segmentation",
			})
			continue
		}

		if last := lastNonEmptyLine(ch.Text); looksTruncated(last) {
			bad++
			violations = append(violations, domain.CohesionViolation{
				Severity:        domain.SeverityHigh,
				Kind:            "truncated_list",
				ChunkID:         ch.ID,
				Description:     "last list line is abnormally short or ends mid-clause",
				AffectedContent: last,
				Suggestion:      "check the source document for a cut-off item",
			})
		}
	}
	return violations, total, bad
}

// checkExampleCoherence flags example chunks outside the plausible length
// window.
func (v *CohesionValidator) checkExampleCoherence(chunks []domain.Chunk) (violations []domain.CohesionViolation, total, bad int) {
	for _, ch := range chunks {
		if ch.Kind != domain.ChunkAtomic || ch.Metadata.ContentType != domain.ContentExample {
			continue
		}
		total++

		n := len(ch.Text)
		if n >= exampleMinLen && n <= exampleMaxLen {
			continue
		}
		bad++
		desc := fmt.Sprintf("example chunk is %d bytes, outside the plausible window [%d, %d]", n, exampleMinLen, exampleMaxLen)
		violations = append(violations, domain.CohesionViolation{
			Severity:    domain.SeverityMedium,
			Kind:        "incoherent_example",
			ChunkID:     ch.ID,
			Description: desc,
			Suggestion:  "review the example span boundaries",
		})
	}
	return violations, total, bad
}

// checkGeneralQuality flags oversized atomic chunks and chunks below the
// cohesion floor for manual review.
func (v *CohesionValidator) checkGeneralQuality(chunks []domain.Chunk) []domain.CohesionViolation {
	var violations []domain.CohesionViolation
	for _, ch := range chunks {
		if ch.Kind == domain.ChunkAtomic && len(ch.Text) > v.cfg.AtomicSizeCeiling {
			violations = append(violations, domain.CohesionViolation{
				Severity:    domain.SeverityLow,
				Kind:        "oversized_atomic",
				ChunkID:     ch.ID,
				Description: fmt.Sprintf("atomic chunk is %d bytes, ceiling is %d", len(ch.Text), v.cfg.AtomicSizeCeiling),
				Suggestion:  "flag for manual review",
			})
		}
		if ch.CohesionScore < v.cfg.CohesionFloor {
			violations = append(violations, domain.CohesionViolation{
				Severity:    domain.SeverityLow,
				Kind:        "low_cohesion",
				ChunkID:     ch.ID,
				Description: fmt.Sprintf("cohesion score %.2f below floor %.2f", ch.CohesionScore, v.cfg.CohesionFloor),
				Suggestion:  "flag for manual review",
			})
		}
	}
	return violations
}

// Plausible single-example length window, in bytes.
const (
	exampleMinLen = 40
	exampleMaxLen = 4000
)

func isListChunk(ch domain.Chunk) bool {
	if ch.Kind != domain.ChunkAtomic {
		return false
	}
	for _, u := range ch.SourceUnits {
		if u.Kind == domain.UnitNumberedList || u.Kind == domain.UnitSequence {
			return true
		}
	}
	return false
}

func countListItems(text string) int {
	items := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isListItemLine(trimmed) {
			items++
		}
	}
	return items
}

// stepLineRe matches the same step/phase/stage line shape the detector
// accepts for sequence units.
var stepLineRe = regexp.MustCompile(`(?i)^(step|phase|stage)\s+\d+`)

func isListItemLine(line string) bool {
	if len(line) == 0 {
		return false
	}
	if line[0] == '-' || line[0] == '*' || strings.HasPrefix(line, "•") {
		return true
	}
	if stepLineRe.MatchString(line) {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')')
}

func lastNonEmptyLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// looksTruncated is the heuristic truncation signal: an abnormally short
// final line, or one that ends on a dangling separator.
func looksTruncated(line string) bool {
	if line == "" {
		return false
	}
	if len(line) < 4 {
		return true
	}
	switch line[len(line)-1] {
	case ',', ';', ':', '-':
		return true
	}
	return false
}

// overallScore starts from the mean chunk cohesion and subtracts a
// severity-weighted penalty per violation, clamped to [0, 1].
func overallScore(chunks []domain.Chunk, violations []domain.CohesionViolation) float64 {
	if len(chunks) == 0 {
		return 0
	}

	sum := 0.0
	for _, ch := range chunks {
		sum += ch.CohesionScore
	}
	score := sum / float64(len(chunks))

	for _, viol := range violations {
		switch viol.Severity {
		case domain.SeverityCritical:
			score -= 0.20
		case domain.SeverityHigh:
			score -= 0.10
		case domain.SeverityMedium:
			score -= 0.05
		default:
			score -= 0.02
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
