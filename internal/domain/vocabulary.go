package domain

import (
	"sort"
	"strings"
)

// FrameworkPattern describes how one named framework appears in source
// text: where it starts, which component phrases a full explanation must
// contain, and what marks its end. A match is accepted only when at least
// MinComponents of the expected components are present in the span.
type FrameworkPattern struct {
	Name          string   `yaml:"name"`
	StartMarkers  []string `yaml:"start_markers"`
	Components    []string `yaml:"components"`
	EndMarkers    []string `yaml:"end_markers"`
	MinComponents int      `yaml:"min_components"`
	Priority      Priority `yaml:"-"`
	UseCases      []string `yaml:"use_cases"`
}

// CountComponents returns how many of the expected component phrases occur
// in text (case-insensitive).
func (p FrameworkPattern) CountComponents(text string) int {
	lower := strings.ToLower(text)
	found := 0
	for _, comp := range p.Components {
		if strings.Contains(lower, strings.ToLower(comp)) {
			found++
		}
	}
	return found
}

// Vocabulary is the single shared table of domain language used by both
// the detector and the query processor, so the two can never diverge.
type Vocabulary struct {
	Frameworks []FrameworkPattern
	// Synonyms maps an anchor term to related terms appended during
	// query expansion.
	Synonyms map[string][]string
	// UseCases maps a use-case name to the phrases that signal it.
	UseCases map[string][]string
}

// FrameworkByName returns the pattern for name, matching case-insensitively.
func (v Vocabulary) FrameworkByName(name string) (FrameworkPattern, bool) {
	for _, p := range v.Frameworks {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return FrameworkPattern{}, false
}

// DetectFrameworks returns the names of frameworks referenced in text,
// matched by name or by any start marker.
func (v Vocabulary) DetectFrameworks(text string) []string {
	lower := strings.ToLower(text)
	var names []string
	for _, p := range v.Frameworks {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			names = append(names, p.Name)
			continue
		}
		for _, marker := range p.StartMarkers {
			if strings.Contains(lower, strings.ToLower(marker)) {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names
}

// DetectUseCases returns the use-case names whose trigger phrases occur
// in text.
func (v Vocabulary) DetectUseCases(text string) []string {
	lower := strings.ToLower(text)
	var cases []string
	for name, triggers := range v.UseCases {
		for _, trig := range triggers {
			if strings.Contains(lower, strings.ToLower(trig)) {
				cases = append(cases, name)
				break
			}
		}
	}
	sort.Strings(cases)
	return cases
}
