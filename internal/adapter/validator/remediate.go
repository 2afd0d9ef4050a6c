package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"framerag/internal/domain"
)

// Remediate applies the configured policy when critical violations exist.
// Every critical violation is logged regardless of policy:
//
//	"merge"  — chunks of a split framework are merged into one atomic
//	           chunk and the report is regenerated (default)
//	"report" — chunks pass through unchanged
//	"block"  — returns ErrCohesionBlocked
//
// Without critical violations the input passes through untouched.
func (v *CohesionValidator) Remediate(chunks []domain.Chunk, report domain.CohesionReport) ([]domain.Chunk, domain.CohesionReport, error) {
	if !report.HasCritical() {
		return chunks, report, nil
	}

	for _, viol := range report.Violations {
		if viol.Severity == domain.SeverityCritical {
			v.logger.Error("critical cohesion violation",
				"kind", viol.Kind,
				"chunk", viol.ChunkID,
				"description", viol.Description)
		}
	}

	policy := v.cfg.RemediationPolicy
	if policy == "" {
		policy = "merge"
	}

	switch policy {
	case "report":
		return chunks, report, nil
	case "block":
		return chunks, report, ErrCohesionBlocked
	case "merge":
		merged := v.mergeSplitFrameworks(chunks, report)
		if len(merged) == len(chunks) {
			// Nothing mergeable (e.g. only incomplete_framework
			// violations); pass through with the original report.
			return chunks, report, nil
		}
		v.logger.Info("merged split-framework chunks",
			"before", len(chunks), "after", len(merged))
		return merged, v.Validate(merged), nil
	default:
		return chunks, report, fmt.Errorf("unknown remediation policy: %q", policy)
	}
}

// mergeSplitFrameworks folds the chunks of every split framework into a
// single atomic chunk, in document order, leaving all other chunks where
// they are.
func (v *CohesionValidator) mergeSplitFrameworks(chunks []domain.Chunk, report domain.CohesionReport) []domain.Chunk {
	splitNames := make(map[string]bool)
	for _, viol := range report.Violations {
		if viol.Severity == domain.SeverityCritical && viol.Kind == "split_framework" {
			for _, ch := range chunks {
				if ch.ID == viol.ChunkID {
					splitNames[ch.Metadata.FrameworkName] = true
				}
			}
		}
	}
	if len(splitNames) == 0 {
		return chunks
	}

	groups := make(map[string][]domain.Chunk)
	var out []domain.Chunk
	inserted := make(map[string]bool)

	// First pass collects each split framework's members.
	for _, ch := range chunks {
		if splitNames[ch.Metadata.FrameworkName] {
			groups[ch.Metadata.FrameworkName] = append(groups[ch.Metadata.FrameworkName], ch)
		}
	}

	// Second pass emits the merged chunk at the position of the group's
	// first member.
	for _, ch := range chunks {
		name := ch.Metadata.FrameworkName
		if !splitNames[name] {
			out = append(out, ch)
			continue
		}
		if inserted[name] {
			continue
		}
		inserted[name] = true
		out = append(out, v.mergeGroup(groups[name]))
	}

	return out
}

func (v *CohesionValidator) mergeGroup(group []domain.Chunk) domain.Chunk {
	sort.Slice(group, func(i, j int) bool { return group[i].Start < group[j].Start })

	texts := make([]string, len(group))
	var units []domain.AtomicUnit
	useCases := make(map[string]struct{})
	for i, ch := range group {
		texts[i] = ch.Text
		units = append(units, ch.SourceUnits...)
		for _, uc := range ch.Metadata.UseCases {
			useCases[uc] = struct{}{}
		}
	}

	mergedCases := make([]string, 0, len(useCases))
	for uc := range useCases {
		mergedCases = append(mergedCases, uc)
	}
	sort.Strings(mergedCases)

	first := group[0]
	text := strings.Join(texts, "\n\n")

	meta := first.Metadata
	meta.UseCases = mergedCases
	if pat, ok := v.vocab.FrameworkByName(meta.FrameworkName); ok && len(pat.Components) > 0 {
		frac := float64(pat.CountComponents(text)) / float64(len(pat.Components))
		meta.IsCompleteFramework = frac >= v.cfg.ComponentThreshold
	}
	if meta.Detail == nil {
		meta.Detail = map[string]string{}
	}
	meta.Detail["remediation"] = fmt.Sprintf("merged from %d split chunks", len(group))
	// Text joins member texts, so it is not the doc[Start:End] slice.
	meta.Detail["span"] = "nominal"

	return domain.Chunk{
		ID:            mergedChunkID(first.Metadata.FrameworkName, text),
		Text:          text,
		Start:         first.Start,
		End:           group[len(group)-1].End,
		Kind:          domain.ChunkAtomic,
		SourceUnits:   units,
		CohesionScore: 1.0,
		Metadata:      meta,
	}
}

func mergedChunkID(name, text string) string {
	hash := sha256.Sum256([]byte("merged:" + name + ":" + text))
	return hex.EncodeToString(hash[:8])
}
