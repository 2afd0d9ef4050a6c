package detector

import (
	"strings"

	"framerag/internal/domain"
)

var exampleTriggers = []string{
	"for example",
	"for instance",
	"example:",
	"let's say",
	"imagine you",
}

// exampleTerminators end an example span; the paragraph break is the usual
// one, the phrases catch examples that run on inside a paragraph.
var exampleTerminators = []string{
	"\n\n",
	"in summary",
	"the lesson",
	"the point is",
	"this shows",
}

// detectExamples finds worked-example spans: from a trigger phrase forward
// to the first terminator or the hard length cap, whichever comes first.
// Spans too short to be a real example are discarded.
func (d *CompositeDetector) detectExamples(text string) []domain.AtomicUnit {
	lower := strings.ToLower(text)
	var units []domain.AtomicUnit

	for _, trigger := range exampleTriggers {
		pos := 0
		for pos < len(lower) {
			rel := strings.Index(lower[pos:], trigger)
			if rel < 0 {
				break
			}
			start := pos + rel
			end := d.exampleEnd(lower, start)

			if end-start >= d.cfg.ExampleMinLen {
				units = append(units, domain.AtomicUnit{
					Start:      start,
					End:        end,
					Kind:       domain.UnitExamplePair,
					Priority:   domain.PriorityMedium,
					Confidence: 0.6,
					Detail:     map[string]string{"trigger": trigger},
				})
				pos = end
			} else {
				pos = start + len(trigger)
			}
		}
	}

	return units
}

// exampleEnd finds the earliest terminator after start, scanning past the
// trigger itself, bounded by the configured length cap.
func (d *CompositeDetector) exampleEnd(lower string, start int) int {
	limit := start + d.cfg.ExampleMaxLen
	if limit > len(lower) {
		limit = len(lower)
	}

	searchFrom := start + 1
	if searchFrom > len(lower) {
		searchFrom = len(lower)
	}

	end := limit
	for _, term := range exampleTerminators {
		if i := strings.Index(lower[searchFrom:], term); i >= 0 {
			if candidate := searchFrom + i; candidate < end {
				end = candidate
			}
		}
	}
	return end
}
