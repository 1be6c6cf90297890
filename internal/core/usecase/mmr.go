package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// MMROptions tunes maximal-marginal-relevance diversification. Lambda in
// [0,1]: higher favors relevance, lower favors diversity.
type MMROptions struct {
	Enabled bool
	Lambda  float64
}

// Reranker greedily selects a diverse top-K from a fused candidate pool.
// Deterministic for identical candidates, lambda and embeddings.
type Reranker struct {
	opts MMROptions
}

func NewReranker(opts MMROptions) *Reranker {
	if opts.Lambda < 0 {
		opts.Lambda = 0
	}
	if opts.Lambda > 1 {
		opts.Lambda = 1
	}
	return &Reranker{opts: opts}
}

// Rerank returns at most topK results ordered by greedy selection. When
// disabled, or the pool already fits, candidates come back ordered by
// combined score with MMRScore mirroring it.
func (r *Reranker) Rerank(candidates []domain.FusedResult, queryEmbedding []float32, topK int) []domain.FusedResult {
	if topK <= 0 {
		return nil
	}
	if !r.opts.Enabled || len(candidates) <= topK {
		out := make([]domain.FusedResult, len(candidates))
		copy(out, candidates)
		sortByCombined(out)
		for i := range out {
			out[i].MMRScore = out[i].CombinedScore
		}
		if len(out) > topK {
			out = out[:topK]
		}
		return out
	}

	remaining := make([]domain.FusedResult, len(candidates))
	copy(remaining, candidates)
	sortByCombined(remaining)

	useEmbeddings := allHaveEmbeddings(remaining)
	tokenSets := make([]map[string]struct{}, len(remaining))
	if !useEmbeddings {
		for i := range remaining {
			tokenSets[i] = wordSet(remaining[i].Text)
		}
	}

	similarity := func(i, j int) float64 {
		if useEmbeddings {
			return cosineSimilarity(remaining[i].Embedding, remaining[j].Embedding)
		}
		return jaccardSimilarity(tokenSets[i], tokenSets[j])
	}

	selected := make([]domain.FusedResult, 0, topK)
	selectedIdx := make([]int, 0, topK)
	taken := make([]bool, len(remaining))

	for len(selected) < topK {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := range remaining {
			if taken[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range selectedIdx {
				if sim := similarity(i, j); sim > maxSim {
					maxSim = sim
				}
			}
			score := r.opts.Lambda*remaining[i].CombinedScore - (1-r.opts.Lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		taken[bestIdx] = true
		picked := remaining[bestIdx]
		picked.MMRScore = bestScore
		selected = append(selected, picked)
		selectedIdx = append(selectedIdx, bestIdx)
	}
	return selected
}

// DiversityScore is a diagnostic: 1 minus the average pairwise similarity
// of the result set, using embedding cosine when every result has an
// embedding and Jaccard over word tokens otherwise.
func (r *Reranker) DiversityScore(results []domain.FusedResult) float64 {
	if len(results) < 2 {
		return 1
	}

	useEmbeddings := allHaveEmbeddings(results)
	tokenSets := make([]map[string]struct{}, len(results))
	if !useEmbeddings {
		for i := range results {
			tokenSets[i] = wordSet(results[i].Text)
		}
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if useEmbeddings {
				total += cosineSimilarity(results[i].Embedding, results[j].Embedding)
			} else {
				total += jaccardSimilarity(tokenSets[i], tokenSets[j])
			}
			pairs++
		}
	}
	return 1 - total/float64(pairs)
}

// truncateByCombined is the non-diversifying path: order by combined
// score, mirror it into MMRScore, and cut to topK.
func truncateByCombined(results []domain.FusedResult, topK int) []domain.FusedResult {
	out := make([]domain.FusedResult, len(results))
	copy(out, results)
	sortByCombined(out)
	for i := range out {
		out[i].MMRScore = out[i].CombinedScore
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func sortByCombined(results []domain.FusedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if results[i].DocumentID != results[j].DocumentID {
			return results[i].DocumentID < results[j].DocumentID
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}

func allHaveEmbeddings(results []domain.FusedResult) bool {
	for _, r := range results {
		if len(r.Embedding) == 0 {
			return false
		}
	}
	return len(results) > 0
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
