package domain

// QueryExpansion holds the vocabulary expansion of one query. The derived
// ExpandedQuery is only ever used as a fallback lexical query; the embedding
// input is always the original query text.
type QueryExpansion struct {
	OriginalQuery string `json:"original_query"`

	// ExpandedTerms is deduplicated case-insensitively, in order of
	// discovery, and never contains the original query itself.
	ExpandedTerms []string `json:"expanded_terms"`

	AbbreviationExpansions map[string][]string `json:"abbreviation_expansions,omitempty"`
	SynonymExpansions      map[string][]string `json:"synonym_expansions,omitempty"`

	ExpandedQuery string `json:"expanded_query"`
}
