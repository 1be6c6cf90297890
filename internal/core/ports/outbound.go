package ports

import (
	"context"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// Embedder builds the query vector that precedes fan-out. A failure here is
// fatal for the request.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher performs ANN similarity search with cosine-style scores
// in [0,1].
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, topK int, similarityThreshold float64, accuracy int, filters domain.SearchFilters) ([]domain.RawSourceResult, error)
}

// LexicalSearcher performs BM25-style keyword search with normalized
// relevance scores. Expanded terms supplement, never replace, the original
// query text.
type LexicalSearcher interface {
	SearchBM25(ctx context.Context, queryText string, expandedTerms []string, topK int, filters domain.SearchFilters) ([]domain.RawSourceResult, error)
}

// GraphSearcher looks up entities and facts in the knowledge graph. Hits
// boost fused results; they never become results on their own.
type GraphSearcher interface {
	Search(ctx context.Context, queryText string, limit int) ([]domain.GraphHit, error)
}

// FeedbackStore reads per-document relevance boosts accumulated from user
// feedback. A read failure degrades to no boost.
type FeedbackStore interface {
	BoostFactors(ctx context.Context, documentIDs []string) (map[string]float64, error)
	RecordFeedback(ctx context.Context, documentID string, delta float64) error
}

// ProgressPublisher emits best-effort pipeline progress events. Publish
// failures must never fail the search request.
type ProgressPublisher interface {
	PublishSourceCompleted(ctx context.Context, requestID string, source domain.SourceKind, count int) error
	PublishStage(ctx context.Context, requestID string, stage domain.PipelineStage) error
}
