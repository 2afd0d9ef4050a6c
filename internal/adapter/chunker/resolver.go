package chunker

import (
	"fmt"
	"sort"
	"strings"

	"framerag/internal/domain"
)

// ResolveRegions turns overlapping atomic units into a minimal set of
// non-overlapping protected regions. Units are processed in deterministic
// order (priority, then confidence, then earlier start); an accepted
// region beats any lower-ranked unit that overlaps it, and a final
// left-to-right pass folds touching regions together.
func ResolveRegions(units []domain.AtomicUnit) []domain.ProtectedRegion {
	ordered := make([]domain.AtomicUnit, 0, len(units))
	for _, u := range units {
		if u.Start < u.End {
			ordered = append(ordered, u)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Start < b.Start
	})

	var accepted []domain.ProtectedRegion
	for _, unit := range ordered {
		accepted = place(accepted, regionFromUnit(unit))
	}

	return mergeTouching(accepted)
}

// place inserts candidate into the accepted set unless a higher-ranked
// region overlaps it. When the candidate outranks an overlapping region,
// the loser is removed and the candidate is re-checked against the rest.
func place(accepted []domain.ProtectedRegion, candidate domain.ProtectedRegion) []domain.ProtectedRegion {
	for i, region := range accepted {
		if !overlaps(region.Start, region.End, candidate.Start, candidate.End) {
			continue
		}
		if candidate.Priority <= region.Priority {
			return accepted // existing region wins, candidate discarded
		}
		remaining := append(accepted[:i:i], accepted[i+1:]...)
		return place(remaining, candidate)
	}
	return append(accepted, candidate)
}

func regionFromUnit(u domain.AtomicUnit) domain.ProtectedRegion {
	reason := fmt.Sprintf("%s (confidence %.2f)", u.Kind, u.Confidence)
	if u.FrameworkTag != "" {
		reason = fmt.Sprintf("%s %q (confidence %.2f)", u.Kind, u.FrameworkTag, u.Confidence)
	}
	return domain.ProtectedRegion{
		Start:       u.Start,
		End:         u.End,
		Kind:        u.Kind,
		Priority:    u.Priority,
		SourceUnits: []domain.AtomicUnit{u},
		Reason:      reason,
	}
}

// mergeTouching sorts regions by start and folds spans that touch or
// overlap into one, keeping the higher-priority kind and concatenating
// source units and reasons.
func mergeTouching(regions []domain.ProtectedRegion) []domain.ProtectedRegion {
	if len(regions) == 0 {
		return nil
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Start < regions[j].Start
	})

	merged := []domain.ProtectedRegion{regions[0]}
	for _, next := range regions[1:] {
		last := &merged[len(merged)-1]
		if next.Start > last.End {
			merged = append(merged, next)
			continue
		}

		if next.End > last.End {
			last.End = next.End
		}
		if next.Priority > last.Priority {
			last.Priority = next.Priority
			last.Kind = next.Kind
		}
		last.SourceUnits = append(last.SourceUnits, next.SourceUnits...)
		last.Reason = strings.Join([]string{last.Reason, next.Reason}, "; ")
	}

	return merged
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
