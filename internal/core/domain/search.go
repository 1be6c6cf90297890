package domain

import "time"

// SourceKind identifies which retrieval backend produced a raw result.
type SourceKind string

const (
	SourceVector  SourceKind = "vector"
	SourceLexical SourceKind = "lexical"
	SourceGraph   SourceKind = "graph"
)

// PipelineStage is the orchestrator state reported through progress events.
type PipelineStage string

const (
	StageEmbedding    PipelineStage = "embedding"
	StageSearching    PipelineStage = "searching"
	StageFusing       PipelineStage = "fusing"
	StageTemporal     PipelineStage = "temporal"
	StageDiversifying PipelineStage = "diversifying"
	StageDone         PipelineStage = "done"
)

// SearchFilters narrows the candidate set before ranking.
type SearchFilters struct {
	DocumentType    string     `json:"document_type,omitempty"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	ExcludedTerms   []string   `json:"excluded_terms,omitempty"`
	RequiredPhrases []string   `json:"required_phrases,omitempty"`
	EntityNames     []string   `json:"entity_names,omitempty"`
}

// SearchRequest is the immutable per-call input to the retrieval pipeline.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`

	UseGraph                bool `json:"use_graph"`
	EnableBM25              bool `json:"enable_bm25"`
	EnableQueryExpansion    bool `json:"enable_query_expansion"`
	EnableAdaptiveThreshold bool `json:"enable_adaptive_threshold"`
	EnableMMR               bool `json:"enable_mmr"`
	EnableTemporalReasoning bool `json:"enable_temporal_reasoning"`
	EnableFeedbackBoost     bool `json:"enable_feedback_boost"`

	SimilarityThreshold float64 `json:"similarity_threshold"`
	// SearchAccuracy is the ANN quality knob forwarded to the vector
	// backend (hnsw_ef for Qdrant). Zero means backend default.
	SearchAccuracy int `json:"search_accuracy"`

	Filters SearchFilters `json:"filters"`
}

// ResultMetadata is the payload carried along from whichever source first
// produced a chunk.
type ResultMetadata struct {
	Filename  string     `json:"filename,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Category  string     `json:"category,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// RawSourceResult is one backend hit before fusion. Score scale is
// backend-specific: cosine similarity for vector, normalized rank for
// lexical, heuristic relevance for graph.
type RawSourceResult struct {
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Embedding  []float32      `json:"-"`
	Metadata   ResultMetadata `json:"metadata"`
}

// GraphHit is one knowledge-graph match. Graph hits never become fused
// results on their own; they only boost chunks already retrieved.
type GraphHit struct {
	EntityName       string  `json:"entity_name"`
	EntityType       string  `json:"entity_type"`
	Fact             string  `json:"fact"`
	SourceDocumentID string  `json:"source_document_id,omitempty"`
	Score            float64 `json:"relevance_score"`
}

// FusedResult is the canonical ranked unit. Identity is
// (DocumentID, ChunkIndex), globally unique within one response.
type FusedResult struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`

	VectorScore   float64 `json:"vector_score"`
	BM25Score     float64 `json:"bm25_score"`
	GraphScore    float64 `json:"graph_score"`
	CombinedScore float64 `json:"combined_score"`
	// MMRScore stays zero until the diversity stage runs; once set it is
	// the final sort key.
	MMRScore float64 `json:"mmr_score,omitempty"`

	RelatedEntities []string       `json:"related_entities,omitempty"`
	Embedding       []float32      `json:"-"`
	Metadata        ResultMetadata `json:"metadata"`
}

// Key returns the fusion identity of the result.
func (r FusedResult) Key() ResultKey {
	return ResultKey{DocumentID: r.DocumentID, ChunkIndex: r.ChunkIndex}
}

type ResultKey struct {
	DocumentID string
	ChunkIndex int
}

// SearchResponse is the assembled output of one pipeline run. The boolean
// flags record which optional stages actually fired so callers can tell
// "no matches" apart from "a backend was degraded".
type SearchResponse struct {
	Query      string        `json:"query"`
	Results    []FusedResult `json:"results"`
	TotalCount int           `json:"total_count"`
	Elapsed    time.Duration `json:"elapsed_ms"`

	ContextText string `json:"context_text"`

	BM25Enabled              bool    `json:"bm25_enabled"`
	GraphEnabled             bool    `json:"graph_enabled"`
	MMRApplied               bool    `json:"mmr_applied"`
	TemporalFilteringApplied bool    `json:"temporal_filtering_applied"`
	FeedbackBoostsApplied    bool    `json:"feedback_boosts_applied"`
	AdaptiveThresholdUsed    float64 `json:"adaptive_threshold_used"`
}
