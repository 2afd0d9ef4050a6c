package detector

import (
	"strconv"
	"strings"

	"framerag/internal/domain"
)

// detectFrameworks finds fully-explained occurrences of each known
// framework pattern. A start-marker hit is expanded rightward paragraph by
// paragraph until an end marker is seen or the components run out; the
// span is accepted only if it contains at least the pattern's minimum
// component count, which rejects passing mentions that merely reference a
// framework.
func (d *CompositeDetector) detectFrameworks(text string) []domain.AtomicUnit {
	lower := strings.ToLower(text)
	var units []domain.AtomicUnit

	for _, pat := range d.vocab.Frameworks {
		minRequired := pat.MinComponents
		if minRequired <= 0 {
			minRequired = 1
		}

		for _, marker := range pat.StartMarkers {
			m := strings.ToLower(marker)
			if m == "" {
				continue
			}

			pos := 0
			for pos < len(lower) {
				rel := strings.Index(lower[pos:], m)
				if rel < 0 {
					break
				}
				start := pos + rel

				end := d.expandFrameworkSpan(text, lower, start, pat)
				span := text[start:end]
				found := pat.CountComponents(span)

				if found >= minRequired {
					units = append(units, domain.AtomicUnit{
						Start:        start,
						End:          end,
						Kind:         domain.UnitFramework,
						FrameworkTag: pat.Name,
						Priority:     pat.Priority,
						Confidence:   clampConfidence(float64(found) / float64(len(pat.Components))),
						Detail: map[string]string{
							"components_found":    strconv.Itoa(found),
							"components_expected": strconv.Itoa(len(pat.Components)),
							"start_marker":        marker,
						},
					})
					pos = end
				} else {
					pos = start + len(m)
				}
			}
		}
	}

	return units
}

// expandFrameworkSpan grows a span from a start marker. The first
// paragraph is always included; each following paragraph is included while
// it still carries component phrases, and a paragraph carrying an end
// marker is included and terminates the span. Growth is capped at MaxSpan.
func (d *CompositeDetector) expandFrameworkSpan(text, lower string, start int, pat domain.FrameworkPattern) int {
	limit := start + d.cfg.MaxSpan
	if limit > len(text) {
		limit = len(text)
	}

	end := start
	pos := start
	first := true

	for pos < limit {
		paraEnd, next := paragraphEnd(text, pos)
		if paraEnd > limit {
			paraEnd = limit
		}
		para := lower[pos:paraEnd]

		hasComponent := containsAny(para, pat.Components)
		hasEnd := containsAny(para, pat.EndMarkers)

		if !first && !hasComponent && !hasEnd {
			break // component exhaustion
		}

		end = paraEnd
		if hasEnd {
			break
		}

		first = false
		pos = next
	}

	return end
}

// paragraphEnd returns the end of the paragraph containing pos and the
// start of the next paragraph.
func paragraphEnd(text string, pos int) (end, next int) {
	if i := strings.Index(text[pos:], "\n\n"); i >= 0 {
		end = pos + i
		next = end
		for next < len(text) && text[next] == '\n' {
			next++
		}
		return end, next
	}
	return len(text), len(text)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
