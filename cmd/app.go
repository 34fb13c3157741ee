package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragstack/ragstack/db"
	"github.com/ragstack/ragstack/internal/config"
	"github.com/ragstack/ragstack/internal/indexer"
	"github.com/ragstack/ragstack/internal/llm"
	"github.com/ragstack/ragstack/internal/log"
	"github.com/ragstack/ragstack/internal/rag"
	"github.com/ragstack/ragstack/internal/splitter"
	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/internal/vectordb"
)

// app wires configuration into the pipeline components a command needs.
// Construction is lazy: a command that never touches PostgreSQL never opens
// a pool.
type app struct {
	cfg    *config.Config
	logger log.Logger

	pool    *pgxpool.Pool
	vectors vectordb.Store
	closers []func()
}

// newApp loads configuration and sets up logging.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)

	return &app{cfg: cfg, logger: logger}, nil
}

// close tears components down in reverse construction order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// dbPool opens the PostgreSQL pool after applying pending migrations.
func (a *app) dbPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}

	if err := db.Migrate(a.cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(a.cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	a.pool = pool
	a.closers = append(a.closers, pool.Close)
	return pool, nil
}

// chunkStore builds the chunk persistence layer.
func (a *app) chunkStore(ctx context.Context) (*store.Store, error) {
	pool, err := a.dbPool(ctx)
	if err != nil {
		return nil, err
	}
	return store.New(pool, a.logger), nil
}

// vectorStore builds and connects the configured vector backend.
func (a *app) vectorStore(ctx context.Context) (vectordb.Store, error) {
	if a.vectors != nil {
		return a.vectors, nil
	}

	vectors, err := vectordb.NewStore(vectordb.Backend(a.cfg.VectorDBBackend), vectordb.Options{
		Path:           a.cfg.VectorDBPath,
		ConnString:     a.cfg.PostgresConnectionString(),
		Distance:       vectordb.Distance(a.cfg.VectorDBDistanceMethod),
		IndexThreshold: a.cfg.VectorDBIndexThreshold,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	if err := vectors.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting vector store: %w", err)
	}

	a.vectors = vectors
	a.closers = append(a.closers, func() {
		_ = vectors.Disconnect(context.Background())
	})
	return vectors, nil
}

// apiKeyFor resolves the credential for a provider backend.
func (a *app) apiKeyFor(backend llm.Backend) string {
	switch backend {
	case llm.BackendOpenAI:
		return a.cfg.OpenAIAPIKey
	case llm.BackendCohere:
		return a.cfg.CohereAPIKey
	case llm.BackendGoogle:
		return a.cfg.GoogleAPIKey
	default:
		return ""
	}
}

func (a *app) providerConfig(backend llm.Backend) llm.Config {
	cfg := llm.Config{
		APIKey:             a.apiKeyFor(backend),
		MaxInputCharacters: a.cfg.InputMaxCharacters,
		MaxOutputTokens:    a.cfg.MaxNewTokens,
		Temperature:        a.cfg.Temperature,
	}
	if backend == llm.BackendOpenAI {
		cfg.BaseURL = a.cfg.OpenAIBaseURL
	}
	return cfg
}

// embedder builds the provider bound to the embedding model.
func (a *app) embedder(ctx context.Context) (llm.Provider, error) {
	backend := llm.Backend(a.cfg.EmbeddingBackend)
	provider, err := llm.NewProvider(ctx, backend, a.providerConfig(backend), a.logger)
	if err != nil {
		return nil, fmt.Errorf("building embedding provider: %w", err)
	}
	provider.SetEmbeddingModel(a.cfg.EmbeddingModelID, a.cfg.EmbeddingSize)
	return provider, nil
}

// generator builds the provider bound to the generation model.
func (a *app) generator(ctx context.Context) (llm.Provider, error) {
	backend := llm.Backend(a.cfg.GenerationBackend)
	provider, err := llm.NewProvider(ctx, backend, a.providerConfig(backend), a.logger)
	if err != nil {
		return nil, fmt.Errorf("building generation provider: %w", err)
	}
	provider.SetGenerationModel(a.cfg.GenerationModelID)
	return provider, nil
}

// newSplitter builds the chunker from the configured bounds.
func (a *app) newSplitter() (*splitter.Splitter, error) {
	return splitter.New(a.cfg.ChunkSize, a.cfg.ChunkOverlap)
}

// newIndexer assembles the indexing pipeline.
func (a *app) newIndexer(ctx context.Context) (*indexer.Indexer, error) {
	chunks, err := a.chunkStore(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	vectors, err := a.vectorStore(ctx)
	if err != nil {
		return nil, err
	}
	return indexer.New(chunks, embedder, vectors, indexer.Options{
		PageSize:        a.cfg.IndexPageSize,
		InsertBatchSize: a.cfg.InsertBatchSize,
	}, a.logger), nil
}

// newComposer assembles the answering pipeline.
func (a *app) newComposer(ctx context.Context) (*rag.Composer, error) {
	vectors, err := a.vectorStore(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	generator, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	return rag.NewComposer(vectors, embedder, generator, a.logger), nil
}
