package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/mitscampus/campusbot/db"
	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/ingest"
	"github.com/mitscampus/campusbot/internal/knowledge"
	"github.com/mitscampus/campusbot/internal/log"
	"github.com/mitscampus/campusbot/internal/rag"
)

// Setup creates and initializes the application. Call Close on the
// returned App to release its resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(knowledge.NewQueries(pool), embedder, logger)

	generator := rag.NewGenkitGenerator(g, cfg.ModelName, cfg.Temperature, cfg.MaxTokens, logger)
	reranker := rag.NewReranker(cfg.Rerank.Keywords, cfg.Rerank.BoostTerms)
	a.Pipeline = rag.NewPipeline(
		rag.NewStoreRetriever(a.Knowledge),
		generator,
		reranker,
		logger,
		rag.WithTopK(cfg.TopK),
	)

	a.Ingestor, err = provideIngestor(cfg, a.Knowledge, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)
	return a, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool
// with pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes the Genkit runtime with the Google AI plugin.
// The plugin reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideEmbedder looks up the configured Gemini embedder.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// provideIngestor builds the crawler-backed ingestion runner.
func provideIngestor(cfg *config.Config, store *knowledge.Store, logger log.Logger) (*ingest.Ingestor, error) {
	splitter, err := ingest.NewSplitter(cfg.ChunkSize, cfg.Overlap)
	if err != nil {
		return nil, fmt.Errorf("configuring splitter: %w", err)
	}
	loader := ingest.NewCollyLoader(ingest.CollyConfig{
		Parallelism: cfg.Crawler.Parallelism,
		Delay:       time.Duration(cfg.Crawler.DelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.Crawler.TimeoutMs) * time.Millisecond,
	}, logger)
	return ingest.New(loader, store, splitter, logger), nil
}
