package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arkhipovma/clinsearch/internal/config"
	"github.com/arkhipovma/clinsearch/internal/core/ports"
	"github.com/arkhipovma/clinsearch/internal/core/usecase"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/embedding/ollama"
	eventsnats "github.com/arkhipovma/clinsearch/internal/infrastructure/events/nats"
	graphneo4j "github.com/arkhipovma/clinsearch/internal/infrastructure/graph/neo4j"
	lexicalqdrant "github.com/arkhipovma/clinsearch/internal/infrastructure/lexical/qdrant"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/repository/postgres"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/resilience"
	vectorqdrant "github.com/arkhipovma/clinsearch/internal/infrastructure/vector/qdrant"
	"github.com/arkhipovma/clinsearch/internal/observability/metrics"
)

// App wires the retrieval pipeline once at startup. All collaborators are
// injected explicitly; there is no ambient global state.
type App struct {
	Config  config.Config
	Quality config.SearchQualityConfig

	Searcher ports.PassageSearcher
	Feedback ports.FeedbackStore
	Executor *resilience.Executor
	Metrics  *metrics.SearchMetrics

	closeFn func(context.Context)
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	quality, err := config.LoadQuality(cfg.QualityConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load quality config: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	feedback := postgres.NewFeedbackRepository(db)
	if err := feedback.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure feedback schema: %w", err)
	}

	graph, err := graphneo4j.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init neo4j: %w", err)
	}

	progress, err := eventsnats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		_ = graph.Close(ctx)
		return nil, fmt.Errorf("init nats publisher: %w", err)
	}

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)
	vector := vectorqdrant.New(cfg.QdrantURL, cfg.QdrantDenseCollection, executor)
	lexical := lexicalqdrant.New(cfg.QdrantURL, cfg.QdrantSparseCollection, executor)

	searcher := usecase.NewSearchUseCase(
		embedder,
		vector,
		lexical,
		graph,
		feedback,
		progress,
		usecase.NewExpander(usecase.ExpanderOptions{
			ExpandAbbreviations: quality.ExpandAbbreviations,
			ExpandSynonyms:      quality.ExpandSynonyms,
			MaxExpansionTerms:   quality.MaxExpansionTerms,
		}),
		usecase.NewThresholdCalculator(usecase.ThresholdOptions{
			Enabled:           quality.EnableAdaptiveThreshold,
			MinThreshold:      quality.MinThreshold,
			MaxThreshold:      quality.MaxThreshold,
			TargetResultCount: quality.TargetResultCount,
		}),
		usecase.NewReranker(usecase.MMROptions{
			Enabled: quality.EnableMMR,
			Lambda:  quality.MMRLambda,
		}),
		usecase.NewTemporalReasoner(usecase.TemporalOptions{
			HalfLifeDays: quality.HalfLifeDays,
			MaxDecay:     quality.MaxDecay,
		}),
		usecase.SearchOptions{
			DefaultTopK:               quality.DefaultTopK,
			EnableBM25:                quality.EnableBM25,
			EnableQueryExpansion:      quality.EnableQueryExpansion,
			EnableMMR:                 quality.EnableMMR,
			Weights:                   usecase.FusionWeights{Vector: quality.VectorWeight, BM25: quality.BM25Weight, Graph: quality.GraphWeight},
			GraphEntitySubstringBoost: quality.GraphEntitySubstringBoost,
		},
		logger,
	)

	return &App{
		Config:   cfg,
		Quality:  quality,
		Searcher: searcher,
		Feedback: feedback,
		Executor: executor,
		Metrics:  metrics.NewSearchMetrics("clinsearch-api"),

		closeFn: func(closeCtx context.Context) {
			progress.Close()
			_ = graph.Close(closeCtx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
