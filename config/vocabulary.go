package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"framerag/internal/domain"
)

// DefaultVocabulary returns the built-in table of framework patterns,
// synonym groups, and use-case triggers. The same table feeds detection
// and query processing so the two surfaces never disagree on what a
// framework is called.
func DefaultVocabulary() domain.Vocabulary {
	return domain.Vocabulary{
		Frameworks: []domain.FrameworkPattern{
			{
				Name:         "Value Equation",
				StartMarkers: []string{"value =", "value equation"},
				Components: []string{
					"dream outcome",
					"perceived likelihood",
					"time delay",
					"effort and sacrifice",
				},
				EndMarkers:    []string{"value equation", "maximize value"},
				MinComponents: 2,
				Priority:      domain.PriorityCritical,
				UseCases:      []string{"offer-creation", "pricing"},
			},
			{
				Name:         "Grand Slam Offer",
				StartMarkers: []string{"grand slam offer"},
				Components: []string{
					"dream outcome",
					"perceived likelihood",
					"scarcity",
					"urgency",
					"bonuses",
					"guarantee",
				},
				EndMarkers:    []string{"in summary", "to recap"},
				MinComponents: 3,
				Priority:      domain.PriorityCritical,
				UseCases:      []string{"offer-creation"},
			},
			{
				Name:         "MAGIC Naming Formula",
				StartMarkers: []string{"magic formula", "naming formula"},
				Components: []string{
					"magnet",
					"avatar",
					"goal",
					"interval",
					"container",
				},
				EndMarkers:    []string{"naming formula", "put it all together"},
				MinComponents: 3,
				Priority:      domain.PriorityCritical,
				UseCases:      []string{"naming", "marketing"},
			},
			{
				Name:         "Guarantee Stack",
				StartMarkers: []string{"types of guarantees", "guarantee stack"},
				Components: []string{
					"unconditional",
					"conditional",
					"anti-guarantee",
					"implied guarantee",
				},
				EndMarkers:    []string{"stack guarantees", "combine guarantees"},
				MinComponents: 2,
				Priority:      domain.PriorityCritical,
				UseCases:      []string{"guarantees", "risk-reversal"},
			},
			{
				Name:         "Scarcity Stack",
				StartMarkers: []string{"scarcity stack", "creating scarcity"},
				Components: []string{
					"limited supply",
					"limited time",
					"bonus expiration",
					"cohort",
				},
				EndMarkers:    []string{"honest scarcity"},
				MinComponents: 2,
				Priority:      domain.PriorityCritical,
				UseCases:      []string{"offer-creation", "marketing"},
			},
		},
		Synonyms: map[string][]string{
			"offer":     {"deal", "package", "proposition"},
			"price":     {"pricing", "cost", "charge"},
			"guarantee": {"risk reversal", "warranty", "promise"},
			"value":     {"worth", "benefit"},
			"lead":      {"prospect", "potential customer"},
			"framework": {"formula", "model", "method"},
			"upsell":    {"cross-sell", "order bump"},
			"niche":     {"market", "segment", "audience"},
		},
		UseCases: map[string][]string{
			"pricing":         {"price", "pricing", "charge", "premium", "discount"},
			"offer-creation":  {"offer", "grand slam", "value proposition"},
			"guarantees":      {"guarantee", "refund", "money back"},
			"risk-reversal":   {"risk reversal", "reverse the risk"},
			"lead-generation": {"lead", "prospect", "funnel", "acquisition"},
			"naming":          {"naming", "headline", "magnet"},
			"marketing":       {"marketing", "promotion", "campaign"},
		},
	}
}

// vocabularyFile is the yaml shape for a user-supplied vocabulary.
type vocabularyFile struct {
	Frameworks []domain.FrameworkPattern `yaml:"frameworks"`
	Synonyms   map[string][]string       `yaml:"synonyms"`
	UseCases   map[string][]string       `yaml:"use_cases"`
}

// LoadVocabulary reads a vocabulary from a YAML file. Frameworks listed in
// the file replace the defaults; synonym and use-case tables are merged
// over them. Missing file returns the defaults.
func LoadVocabulary(path string) (domain.Vocabulary, error) {
	vocab := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return vocab, nil
		}
		return domain.Vocabulary{}, err
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Vocabulary{}, err
	}

	if len(file.Frameworks) > 0 {
		for i := range file.Frameworks {
			// User files cannot express priority; detected frameworks
			// are always protection-critical.
			file.Frameworks[i].Priority = domain.PriorityCritical
			if file.Frameworks[i].MinComponents <= 0 {
				file.Frameworks[i].MinComponents = 1
			}
		}
		vocab.Frameworks = file.Frameworks
	}
	for anchor, terms := range file.Synonyms {
		vocab.Synonyms[anchor] = terms
	}
	for name, triggers := range file.UseCases {
		vocab.UseCases[name] = triggers
	}

	return vocab, nil
}
