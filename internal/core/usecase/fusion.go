package usecase

import (
	"strings"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// FusionWeights are the per-source weights of the combined score,
// normalized to sum to 1.0 at configuration load time.
type FusionWeights struct {
	Vector float64
	BM25   float64
	Graph  float64
}

// fuseSources merges the three raw result sets into fused results keyed by
// (document_id, chunk_index). Vector results seed the map; lexical results
// update or insert; graph hits only ever raise GraphScore via max() and
// append entities. Graph hits never create fused entries of their own.
func fuseSources(
	vector, lexical []domain.RawSourceResult,
	graph []domain.GraphHit,
	weights FusionWeights,
	entitySubstringBoost bool,
) []domain.FusedResult {
	fused := make(map[domain.ResultKey]*domain.FusedResult, len(vector)+len(lexical))
	order := make([]domain.ResultKey, 0, len(vector)+len(lexical))

	for _, r := range vector {
		key := domain.ResultKey{DocumentID: r.DocumentID, ChunkIndex: r.ChunkIndex}
		if _, exists := fused[key]; exists {
			continue
		}
		fused[key] = &domain.FusedResult{
			DocumentID:  r.DocumentID,
			ChunkIndex:  r.ChunkIndex,
			Text:        r.Text,
			VectorScore: r.Score,
			Embedding:   r.Embedding,
			Metadata:    r.Metadata,
		}
		order = append(order, key)
	}

	for _, r := range lexical {
		key := domain.ResultKey{DocumentID: r.DocumentID, ChunkIndex: r.ChunkIndex}
		if existing, ok := fused[key]; ok {
			existing.BM25Score = r.Score
			continue
		}
		fused[key] = &domain.FusedResult{
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			BM25Score:  r.Score,
			Metadata:   r.Metadata,
		}
		order = append(order, key)
	}

	for _, hit := range graph {
		entity := strings.TrimSpace(hit.EntityName)
		loweredEntity := strings.ToLower(entity)
		for _, key := range order {
			result := fused[key]
			matchesDoc := hit.SourceDocumentID != "" && hit.SourceDocumentID == result.DocumentID
			matchesText := entitySubstringBoost && loweredEntity != "" &&
				strings.Contains(strings.ToLower(result.Text), loweredEntity)
			if !matchesDoc && !matchesText {
				continue
			}
			if hit.Score > result.GraphScore {
				result.GraphScore = hit.Score
			}
			result.RelatedEntities = appendUnique(result.RelatedEntities, entity)
		}
	}

	out := make([]domain.FusedResult, 0, len(order))
	for _, key := range order {
		result := fused[key]
		result.CombinedScore = combinedScore(*result, weights)
		out = append(out, *result)
	}
	sortByCombined(out)
	return out
}

func combinedScore(r domain.FusedResult, w FusionWeights) float64 {
	return r.VectorScore*w.Vector + r.BM25Score*w.BM25 + r.GraphScore*w.Graph
}

// applyThreshold drops fused results whose relevant per-source score is
// below the cutoff: vector score for vector-seeded entries, the best
// remaining source score otherwise.
func applyThreshold(results []domain.FusedResult, threshold float64) []domain.FusedResult {
	out := make([]domain.FusedResult, 0, len(results))
	for _, r := range results {
		relevant := r.VectorScore
		if relevant == 0 {
			relevant = r.BM25Score
			if r.GraphScore > relevant {
				relevant = r.GraphScore
			}
		}
		if relevant >= threshold {
			out = append(out, r)
		}
	}
	return out
}
