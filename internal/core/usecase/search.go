package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
	"github.com/arkhipovma/clinsearch/internal/core/ports"
)

// SearchOptions carries the orchestrator-level tuning derived from the
// search quality configuration.
type SearchOptions struct {
	DefaultTopK int
	// CandidateFactor widens each source's fetch beyond top_k so the
	// diversity stage has a pool to choose from.
	CandidateFactor int

	EnableBM25           bool
	EnableQueryExpansion bool
	EnableMMR            bool

	Weights                   FusionWeights
	GraphEntitySubstringBoost bool
}

// SearchUseCase runs the hybrid retrieval pipeline: expand, embed, fan out
// to the three backends concurrently, fuse, threshold, temporal pass,
// diversify, build context.
//
// Cancellation is cooperative: the context is checked before each fan-out
// task starts and at every stage boundary. In-flight backend calls are not
// forcibly interrupted, so a cancelled request may still pay for one
// outstanding call before the next checkpoint observes it.
type SearchUseCase struct {
	embedder ports.Embedder
	vector   ports.VectorSearcher
	lexical  ports.LexicalSearcher
	graph    ports.GraphSearcher
	feedback ports.FeedbackStore
	progress ports.ProgressPublisher

	expander  *Expander
	threshold *ThresholdCalculator
	reranker  *Reranker
	temporal  *TemporalReasoner

	opts   SearchOptions
	logger *slog.Logger
}

func NewSearchUseCase(
	embedder ports.Embedder,
	vector ports.VectorSearcher,
	lexical ports.LexicalSearcher,
	graph ports.GraphSearcher,
	feedback ports.FeedbackStore,
	progress ports.ProgressPublisher,
	expander *Expander,
	threshold *ThresholdCalculator,
	reranker *Reranker,
	temporal *TemporalReasoner,
	opts SearchOptions,
	logger *slog.Logger,
) *SearchUseCase {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 10
	}
	if opts.CandidateFactor <= 0 {
		opts.CandidateFactor = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		embedder:  embedder,
		vector:    vector,
		lexical:   lexical,
		graph:     graph,
		feedback:  feedback,
		progress:  progress,
		expander:  expander,
		threshold: threshold,
		reranker:  reranker,
		temporal:  temporal,
		opts:      opts,
		logger:    logger,
	}
}

// sourceResults collects fan-out output. Each concurrent task owns exactly
// one field, so no locking is needed.
type sourceResults struct {
	vector    []domain.RawSourceResult
	lexical   []domain.RawSourceResult
	graph     []domain.GraphHit
	lexicalOK bool
	graphOK   bool
}

func (uc *SearchUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = uc.opts.DefaultTopK
	}
	runID := uuid.NewString()

	expansion := domain.QueryExpansion{
		OriginalQuery: query,
		ExpandedTerms: []string{},
		ExpandedQuery: query,
	}
	if req.EnableQueryExpansion && uc.opts.EnableQueryExpansion {
		expansion = uc.expander.Expand(query)
	}

	// Embedding is the blocking prerequisite of fan-out; failure here is
	// fatal because no search is possible without a query vector.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uc.publishStage(ctx, runID, domain.StageEmbedding)
	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uc.publishStage(ctx, runID, domain.StageSearching)
	collected := uc.fanOut(ctx, runID, req, query, expansion, queryVector, topK)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uc.publishStage(ctx, runID, domain.StageFusing)

	effectiveThreshold := req.SimilarityThreshold
	if req.EnableAdaptiveThreshold {
		effectiveThreshold = uc.threshold.Calculate(
			vectorScores(collected.vector),
			len(strings.Fields(query)),
			req.SimilarityThreshold,
		)
	}

	results := fuseSources(
		collected.vector,
		collected.lexical,
		collected.graph,
		uc.opts.Weights,
		uc.opts.GraphEntitySubstringBoost,
	)

	boostsApplied := false
	if req.EnableFeedbackBoost && uc.feedback != nil {
		boostsApplied = uc.applyFeedbackBoosts(ctx, results)
	}

	results = applyThreshold(results, effectiveThreshold)
	sortByCombined(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	temporalApplied := false
	if req.EnableTemporalReasoning {
		uc.publishStage(ctx, runID, domain.StageTemporal)
		temporalQuery := uc.temporal.Parse(query)
		results = uc.temporal.Process(results, temporalQuery)
		temporalApplied = temporalQuery.HasTemporalReference
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uc.publishStage(ctx, runID, domain.StageDiversifying)

	mmrApplied := req.EnableMMR && uc.opts.EnableMMR && len(results) > topK
	if mmrApplied {
		results = uc.reranker.Rerank(results, queryVector, topK)
	} else {
		results = truncateByCombined(results, topK)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uc.publishStage(ctx, runID, domain.StageDone)

	response := &domain.SearchResponse{
		Query:       query,
		Results:     results,
		TotalCount:  len(results),
		Elapsed:     time.Since(start),
		ContextText: buildContextText(results),

		BM25Enabled:              collected.lexicalOK,
		GraphEnabled:             collected.graphOK,
		MMRApplied:               mmrApplied,
		TemporalFilteringApplied: temporalApplied,
		FeedbackBoostsApplied:    boostsApplied,
		AdaptiveThresholdUsed:    effectiveThreshold,
	}
	return response, nil
}

// fanOut runs the enabled backend searches concurrently. A failing source
// logs and yields an empty result set; it never aborts its siblings.
func (uc *SearchUseCase) fanOut(
	ctx context.Context,
	runID string,
	req domain.SearchRequest,
	query string,
	expansion domain.QueryExpansion,
	queryVector []float32,
	topK int,
) *sourceResults {
	pool := topK * uc.opts.CandidateFactor
	out := &sourceResults{}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		found, err := uc.vector.Search(ctx, queryVector, pool, req.SimilarityThreshold, req.SearchAccuracy, req.Filters)
		if err != nil {
			uc.logSourceFailure(domain.SourceVector, err)
			return
		}
		out.vector = found
		uc.publishSourceCompleted(ctx, runID, domain.SourceVector, len(found))
	}()

	if req.EnableBM25 && uc.opts.EnableBM25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			found, err := uc.lexical.SearchBM25(ctx, query, expansion.ExpandedTerms, pool, req.Filters)
			if err != nil {
				uc.logSourceFailure(domain.SourceLexical, err)
				return
			}
			out.lexical = found
			out.lexicalOK = true
			uc.publishSourceCompleted(ctx, runID, domain.SourceLexical, len(found))
		}()
	}

	if req.UseGraph {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			found, err := uc.graph.Search(ctx, query, topK)
			if err != nil {
				uc.logSourceFailure(domain.SourceGraph, err)
				return
			}
			out.graph = filterGraphHits(found, req.Filters.EntityNames)
			out.graphOK = true
			uc.publishSourceCompleted(ctx, runID, domain.SourceGraph, len(found))
		}()
	}

	wg.Wait()
	return out
}

// applyFeedbackBoosts multiplies accumulated per-document boost factors
// into the combined scores. A store failure degrades to no boost.
func (uc *SearchUseCase) applyFeedbackBoosts(ctx context.Context, results []domain.FusedResult) bool {
	if len(results) == 0 {
		return false
	}

	ids := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.DocumentID]; dup {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		ids = append(ids, r.DocumentID)
	}

	boosts, err := uc.feedback.BoostFactors(ctx, ids)
	if err != nil {
		uc.logger.Warn("feedback_boost_degraded", "error", err)
		return false
	}
	if len(boosts) == 0 {
		return false
	}

	applied := false
	for i := range results {
		if factor, ok := boosts[results[i].DocumentID]; ok && factor > 0 {
			results[i].CombinedScore *= factor
			applied = true
		}
	}
	return applied
}

func (uc *SearchUseCase) logSourceFailure(source domain.SourceKind, err error) {
	if domain.IsKind(err, domain.ErrCircuitOpen) {
		uc.logger.Warn("search_source_circuit_open", "source", string(source))
		return
	}
	uc.logger.Warn("search_source_failed", "source", string(source), "error", err)
}

func (uc *SearchUseCase) publishStage(ctx context.Context, runID string, stage domain.PipelineStage) {
	if uc.progress == nil {
		return
	}
	if err := uc.progress.PublishStage(ctx, runID, stage); err != nil {
		uc.logger.Debug("progress_publish_failed", "stage", string(stage), "error", err)
	}
}

func (uc *SearchUseCase) publishSourceCompleted(ctx context.Context, runID string, source domain.SourceKind, count int) {
	if uc.progress == nil {
		return
	}
	if err := uc.progress.PublishSourceCompleted(ctx, runID, source, count); err != nil {
		uc.logger.Debug("progress_publish_failed", "source", string(source), "error", err)
	}
}

// filterGraphHits narrows graph hits to the requested entity names. An
// empty allow list keeps everything.
func filterGraphHits(hits []domain.GraphHit, entityNames []string) []domain.GraphHit {
	if len(entityNames) == 0 {
		return hits
	}
	allowed := make(map[string]struct{}, len(entityNames))
	for _, name := range entityNames {
		allowed[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	out := make([]domain.GraphHit, 0, len(hits))
	for _, hit := range hits {
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(hit.EntityName))]; ok {
			out = append(out, hit)
		}
	}
	return out
}

func vectorScores(results []domain.RawSourceResult) []float64 {
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.Score)
	}
	return scores
}
