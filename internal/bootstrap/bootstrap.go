package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dkoval/code-search-engine/internal/config"
	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
	"github.com/dkoval/code-search-engine/internal/core/usecase"
	"github.com/dkoval/code-search-engine/internal/infrastructure/embedding/ollama"
	neo4jgraph "github.com/dkoval/code-search-engine/internal/infrastructure/graph/neo4j"
	"github.com/dkoval/code-search-engine/internal/infrastructure/queue/nats"
	"github.com/dkoval/code-search-engine/internal/infrastructure/resilience"
	"github.com/dkoval/code-search-engine/internal/infrastructure/store/postgres"
)

type App struct {
	Config config.Config

	Search ports.SearchService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db, cfg.EmbeddingDim); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	lexicalStore := postgres.NewLexicalRepository(db)
	vectorStore := postgres.NewVectorRepository(db)
	metadataStore := postgres.NewMetadataRepository(db)

	graph, err := neo4jgraph.NewTraverser(neo4jgraph.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		MaxDepth: cfg.GraphMaxDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("init graph traverser: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaTextEmbedModel, cfg.OllamaCodeEmbedModel, executor)

	analyzer := usecase.NewQueryAnalyzer(embedder, cfg.SearchMaxQueryLen, time.Duration(cfg.EmbedTimeoutMS)*time.Millisecond)
	lexical := usecase.NewLexicalEngine(lexicalStore, cfg.LexicalMinTrigram, cfg.FusionPoolLimit)
	vector := usecase.NewVectorEngine(vectorStore, cfg.RecallBreadth, cfg.FusionPoolLimit)

	var expander *usecase.GraphExpander
	if cfg.GraphExpansionOn {
		expander = usecase.NewGraphExpander(graph, cfg.GraphExpandTopN, cfg.GraphFanOut)
	}

	pipeline := usecase.NewSearchPipeline(
		analyzer,
		lexical,
		vector,
		expander,
		metadataStore,
		publisher,
		usecase.PipelineConfig{
			Fusion:       domainFusionConfig(cfg),
			StageTimeout: time.Duration(cfg.StageTimeoutMS) * time.Millisecond,
			HydrateLimit: cfg.HydrateLimit,
		},
	)

	return &App{
		Config: cfg,
		Search: pipeline,

		closeFn: func() {
			publisher.Close()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = graph.Close(closeCtx)
			_ = db.Close()
		},
	}, nil
}

func domainFusionConfig(cfg config.Config) domain.FusionConfig {
	return domain.FusionConfig{
		K:         cfg.FusionK,
		PoolLimit: cfg.FusionPoolLimit,
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
