package detector

import (
	"regexp"
	"strconv"
	"strings"

	"framerag/internal/domain"
)

var (
	numberedItemRe = regexp.MustCompile(`^\s*\d+[.)]\s+\S`)
	bulletItemRe   = regexp.MustCompile(`^\s*[-*•]\s+\S`)
	stepItemRe     = regexp.MustCompile(`(?i)^\s*(step|phase|stage)\s+\d+`)
)

// textLine is one physical line with its byte span in the document.
type textLine struct {
	start int
	end   int // exclusive, not counting the newline
	text  string
}

func scanLines(text string) []textLine {
	var lines []textLine
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, textLine{start: start, end: i, text: text[start:i]})
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, textLine{start: start, end: len(text), text: text[start:]})
	}
	return lines
}

// detectLists finds runs of two or more numbered or bulleted lines. A
// single blank line inside a run does not break it; anything else does.
func (d *CompositeDetector) detectLists(text string) []domain.AtomicUnit {
	isItem := func(line string) bool {
		return numberedItemRe.MatchString(line) || bulletItemRe.MatchString(line)
	}
	return d.collectRuns(text, isItem, domain.UnitNumberedList)
}

// detectSequences finds runs of step/phase/stage-labeled lines.
func (d *CompositeDetector) detectSequences(text string) []domain.AtomicUnit {
	return d.collectRuns(text, stepItemRe.MatchString, domain.UnitSequence)
}

func (d *CompositeDetector) collectRuns(text string, isItem func(string) bool, kind domain.UnitKind) []domain.AtomicUnit {
	minItems := d.cfg.ListMinItems
	if minItems < 2 {
		minItems = 2
	}

	lines := scanLines(text)
	var units []domain.AtomicUnit

	runStart := -1 // index of first item line in the current run
	runEnd := -1   // index of last item line in the current run
	items := 0

	flush := func() {
		if items >= minItems {
			units = append(units, domain.AtomicUnit{
				Start:      lines[runStart].start,
				End:        lines[runEnd].end,
				Kind:       kind,
				Priority:   domain.PriorityHigh,
				Confidence: listConfidence(items),
				Detail: map[string]string{
					"item_count": strconv.Itoa(items),
				},
			})
		}
		runStart, runEnd, items = -1, -1, 0
	}

	blankPending := false
	for i, line := range lines {
		switch {
		case isItem(line.text):
			if runStart < 0 {
				runStart = i
			}
			runEnd = i
			items++
			blankPending = false
		case strings.TrimSpace(line.text) == "" && runStart >= 0 && !blankPending:
			blankPending = true // tolerate one blank line between items
		default:
			if runStart >= 0 {
				flush()
			}
			blankPending = false
		}
	}
	if runStart >= 0 {
		flush()
	}

	return units
}

// listConfidence grows with item count; even a minimal run is a fairly
// reliable signal.
func listConfidence(items int) float64 {
	return clampConfidence(0.5 + 0.1*float64(items))
}

// minimalListScan is the last-resort pattern set used when every kind pass
// has failed: strictly consecutive numbered lines only.
func minimalListScan(text string, minItems int) []domain.AtomicUnit {
	if minItems < 2 {
		minItems = 2
	}

	lines := scanLines(text)
	var units []domain.AtomicUnit

	runStart := -1
	for i := 0; i <= len(lines); i++ {
		ok := i < len(lines) && numberedItemRe.MatchString(lines[i].text)
		if ok {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 && i-runStart >= minItems {
			units = append(units, domain.AtomicUnit{
				Start:      lines[runStart].start,
				End:        lines[i-1].end,
				Kind:       domain.UnitNumberedList,
				Priority:   domain.PriorityHigh,
				Confidence: listConfidence(i - runStart),
				Detail:     map[string]string{"item_count": strconv.Itoa(i - runStart)},
			})
		}
		runStart = -1
	}

	return units
}
