package usecase

import (
	"strings"
	"testing"
)

func TestExpandResolvesClinicalAbbreviation(t *testing.T) {
	expander := NewExpander(ExpanderOptions{
		ExpandAbbreviations: true,
		ExpandSynonyms:      true,
		MaxExpansionTerms:   5,
	})

	expansion := expander.Expand("patient has HTN")

	found := false
	for _, term := range expansion.ExpandedTerms {
		if strings.EqualFold(term, "hypertension") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected expanded terms to contain hypertension, got %v", expansion.ExpandedTerms)
	}
	if expansion.OriginalQuery != "patient has HTN" {
		t.Fatalf("original query changed: %q", expansion.OriginalQuery)
	}
	if !strings.HasPrefix(expansion.ExpandedQuery, "patient has HTN ") {
		t.Fatalf("expanded query must start with the original query, got %q", expansion.ExpandedQuery)
	}
}

func TestExpandNeverIncludesOriginalQuery(t *testing.T) {
	expander := NewExpander(ExpanderOptions{
		ExpandAbbreviations: true,
		ExpandSynonyms:      true,
		MaxExpansionTerms:   5,
	})

	for _, query := range []string{"hypertension", "HTN", "diabetes mellitus", "heart attack"} {
		expansion := expander.Expand(query)
		for _, term := range expansion.ExpandedTerms {
			if strings.EqualFold(term, strings.TrimSpace(query)) {
				t.Fatalf("query %q appeared in its own expansion: %v", query, expansion.ExpandedTerms)
			}
		}
	}
}

func TestExpandIsBidirectional(t *testing.T) {
	expander := NewExpander(ExpanderOptions{
		ExpandAbbreviations: true,
		ExpandSynonyms:      false,
		MaxExpansionTerms:   5,
	})

	expansion := expander.Expand("hypertension management")

	found := false
	for _, term := range expansion.ExpandedTerms {
		if strings.EqualFold(term, "htn") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reverse lookup hypertension->htn, got %v", expansion.ExpandedTerms)
	}
}

func TestExpandDisabledSourcesContributeNothing(t *testing.T) {
	expander := NewExpander(ExpanderOptions{
		ExpandAbbreviations: false,
		ExpandSynonyms:      false,
	})

	expansion := expander.Expand("patient has HTN and DM")
	if len(expansion.ExpandedTerms) != 0 {
		t.Fatalf("expected no expansion with both sources disabled, got %v", expansion.ExpandedTerms)
	}
	if expansion.ExpandedQuery != "patient has HTN and DM" {
		t.Fatalf("expanded query must equal original when nothing expands, got %q", expansion.ExpandedQuery)
	}
}

func TestExpandCapsTermsPerLookup(t *testing.T) {
	expander := NewExpander(ExpanderOptions{
		ExpandAbbreviations: true,
		ExpandSynonyms:      true,
		MaxExpansionTerms:   1,
	})

	expansion := expander.Expand("chest pain")
	for source, terms := range expansion.SynonymExpansions {
		if len(terms) > 1 {
			t.Fatalf("lookup %q exceeded cap: %v", source, terms)
		}
	}
	for source, terms := range expansion.AbbreviationExpansions {
		if len(terms) > 1 {
			t.Fatalf("lookup %q exceeded cap: %v", source, terms)
		}
	}
}

func TestExpandEmptyQuery(t *testing.T) {
	expander := NewExpander(ExpanderOptions{ExpandAbbreviations: true, ExpandSynonyms: true})

	expansion := expander.Expand("   ")
	if len(expansion.ExpandedTerms) != 0 {
		t.Fatalf("expected no terms for blank query, got %v", expansion.ExpandedTerms)
	}
}

func TestNgramsCoverUnigramsThroughTrigrams(t *testing.T) {
	got := ngrams([]string{"a", "b", "c"}, 3)
	want := []string{"a", "b", "c", "a b", "b c", "a b c"}
	if len(got) != len(want) {
		t.Fatalf("ngrams length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ngrams[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
