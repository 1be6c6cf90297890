package usecase

import (
	"strings"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// ExpanderOptions tunes vocabulary expansion.
type ExpanderOptions struct {
	ExpandAbbreviations bool
	ExpandSynonyms      bool
	// MaxExpansionTerms caps the contribution of one dictionary lookup.
	// There is deliberately no global cap beyond these per-source limits.
	MaxExpansionTerms int
}

// Expander widens a query with domain abbreviations and synonyms. Pure
// function over the static dictionaries; safe for concurrent use.
type Expander struct {
	opts          ExpanderOptions
	abbreviations map[string][]string
	synonyms      map[string][]string
}

func NewExpander(opts ExpanderOptions) *Expander {
	if opts.MaxExpansionTerms <= 0 {
		opts.MaxExpansionTerms = 5
	}
	return &Expander{
		opts:          opts,
		abbreviations: buildBidirectional(clinicalAbbreviations),
		synonyms:      buildBidirectional(clinicalSynonyms),
	}
}

// Expand tokenizes the lower-cased query into unigrams, bigrams and
// trigrams and looks each up in both directions of both dictionaries.
// Overlapping n-gram matches may each contribute separately.
func (e *Expander) Expand(query string) domain.QueryExpansion {
	expansion := domain.QueryExpansion{
		OriginalQuery:          query,
		ExpandedTerms:          []string{},
		AbbreviationExpansions: map[string][]string{},
		SynonymExpansions:      map[string][]string{},
		ExpandedQuery:          query,
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return expansion
	}

	seen := map[string]struct{}{normalized: {}}
	addTerms := func(terms []string) {
		for _, term := range terms {
			key := strings.ToLower(term)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			expansion.ExpandedTerms = append(expansion.ExpandedTerms, term)
		}
	}

	for _, phrase := range ngrams(words, 3) {
		if e.opts.ExpandAbbreviations {
			if found, ok := e.abbreviations[phrase]; ok {
				capped := capTerms(found, e.opts.MaxExpansionTerms)
				expansion.AbbreviationExpansions[phrase] = capped
				addTerms(capped)
			}
		}
		if e.opts.ExpandSynonyms {
			if found, ok := e.synonyms[phrase]; ok {
				capped := capTerms(found, e.opts.MaxExpansionTerms)
				expansion.SynonymExpansions[phrase] = capped
				addTerms(capped)
			}
		}
	}

	if len(expansion.ExpandedTerms) > 0 {
		expansion.ExpandedQuery = query + " " + strings.Join(expansion.ExpandedTerms, " ")
	}
	return expansion
}

// ngrams returns all n-grams of the word slice up to maxN words, joined by
// single spaces, unigrams first.
func ngrams(words []string, maxN int) []string {
	out := make([]string, 0, len(words)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}

func capTerms(terms []string, limit int) []string {
	if limit <= 0 || len(terms) <= limit {
		return terms
	}
	return terms[:limit]
}

// buildBidirectional merges the forward dictionary with its inverse so
// lookups resolve abbreviation->full term and full term->abbreviation alike.
func buildBidirectional(forward map[string][]string) map[string][]string {
	out := make(map[string][]string, len(forward)*2)
	for key, values := range forward {
		key = strings.ToLower(key)
		out[key] = append(out[key], values...)
		for _, value := range values {
			value = strings.ToLower(value)
			out[value] = appendUnique(out[value], key)
		}
	}
	return out
}

func appendUnique(list []string, term string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, term) {
			return list
		}
	}
	return append(list, term)
}
