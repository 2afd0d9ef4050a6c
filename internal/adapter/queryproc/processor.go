package queryproc

import (
	"errors"
	"sort"
	"strings"

	"framerag/internal/adapter/analyzer"
	"framerag/internal/domain"
)

// ErrEmptyQuery is returned when the query contains no text.
var ErrEmptyQuery = errors.New("empty query")

// Processor classifies a query's intent, detects referenced frameworks and
// use cases, expands it with domain synonyms, and extracts lexical key
// terms. It shares the pipeline's vocabulary table, so a framework the
// detector knows is always a framework the query side recognizes too.
type Processor struct {
	vocab     domain.Vocabulary
	tokenizer *analyzer.Tokenizer
}

// New creates a Processor.
func New(vocab domain.Vocabulary, tokenizer *analyzer.Tokenizer) *Processor {
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer()
	}
	return &Processor{vocab: vocab, tokenizer: tokenizer}
}

// Process analyzes a raw query.
func (p *Processor) Process(query string) (domain.ProcessedQuery, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return domain.ProcessedQuery{}, ErrEmptyQuery
	}

	pq := domain.ProcessedQuery{
		Original:   trimmed,
		Intent:     classifyIntent(trimmed),
		Frameworks: p.vocab.DetectFrameworks(trimmed),
		UseCases:   p.vocab.DetectUseCases(trimmed),
	}

	pq.Expanded = p.expand(trimmed)
	pq.KeyTerms = p.keyTerms(pq)

	return pq, nil
}

// intentPhrases maps each intent to the fixed phrase set that signals it.
// Order matters: the first intent with a matching phrase wins.
var intentPhrases = []struct {
	intent  domain.QueryIntent
	phrases []string
}{
	{domain.IntentDefinition, []string{"what is", "what are", "define", "definition of", "meaning of"}},
	{domain.IntentProcess, []string{"how to", "how do", "how can", "steps to", "process for", "walk me through"}},
	{domain.IntentExample, []string{"example", "for instance", "show me", "such as"}},
	{domain.IntentTemplate, []string{"template", "script", "word for word", "exact wording"}},
}

func classifyIntent(query string) domain.QueryIntent {
	lower := strings.ToLower(query)
	for _, entry := range intentPhrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(lower, phrase) {
				return entry.intent
			}
		}
	}
	return domain.IntentGeneral
}

// expand appends each synonym group whose anchor term appears in the
// query. Anchors are sorted so expansion is deterministic.
func (p *Processor) expand(query string) string {
	lower := strings.ToLower(query)

	anchors := make([]string, 0, len(p.vocab.Synonyms))
	for anchor := range p.vocab.Synonyms {
		anchors = append(anchors, anchor)
	}
	sort.Strings(anchors)

	var extra []string
	for _, anchor := range anchors {
		if !strings.Contains(lower, anchor) {
			continue
		}
		for _, syn := range p.vocab.Synonyms[anchor] {
			if !strings.Contains(lower, strings.ToLower(syn)) {
				extra = append(extra, syn)
			}
		}
	}

	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

// keyTerms is the stopword-filtered token set of the expanded query, plus
// the domain terms implied by any detected framework.
func (p *Processor) keyTerms(pq domain.ProcessedQuery) []string {
	terms := p.tokenizer.TokenizeUnique(pq.Expanded)

	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}

	for _, name := range pq.Frameworks {
		pat, ok := p.vocab.FrameworkByName(name)
		if !ok {
			continue
		}
		implied := append([]string{pat.Name}, pat.Components...)
		for _, phrase := range implied {
			for _, tok := range p.tokenizer.Tokenize(phrase) {
				if _, dup := seen[tok]; dup {
					continue
				}
				seen[tok] = struct{}{}
				terms = append(terms, tok)
			}
		}
	}

	return terms
}
