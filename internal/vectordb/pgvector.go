package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/ragstack/ragstack/internal/log"
)

// Collection names double as table names, so they must be safe identifiers.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGVector is the relational backend, one table per collection in PostgreSQL
// with the pgvector extension.
type PGVector struct {
	connString     string
	distance       Distance
	indexThreshold int
	logger         log.Logger

	pool *pgxpool.Pool
}

// PGVectorOptions carries construction parameters for the relational
// backend.
type PGVectorOptions struct {
	// ConnString is a pgx connection string or URL.
	ConnString string

	// Distance selects the similarity measure and the index operator class.
	Distance Distance

	// IndexThreshold is the row count at which an HNSW index is built. Zero
	// or negative disables index creation.
	IndexThreshold int
}

// NewPGVector builds a relational store. Connect must be called before use.
func NewPGVector(opts PGVectorOptions, logger log.Logger) *PGVector {
	return &PGVector{
		connString:     opts.ConnString,
		distance:       opts.Distance,
		indexThreshold: opts.IndexThreshold,
		logger:         logger,
	}
}

// Connect opens the pool, registers the vector type codecs on every
// connection, and makes sure the extension exists.
func (s *PGVector) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(s.connString)
	if err != nil {
		return fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return fmt.Errorf("enabling vector extension: %w", err)
	}

	s.pool = pool
	s.logger.Debug("connected to pgvector store")
	return nil
}

func (s *PGVector) Disconnect(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *PGVector) IsCollectionExist(ctx context.Context, name string) (bool, error) {
	if s.pool == nil {
		return false, ErrNotConnected
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = $1)",
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", name, err)
	}
	return exists, nil
}

func (s *PGVector) ListCollections(ctx context.Context) ([]string, error) {
	if s.pool == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.pool.Query(ctx,
		"SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename LIKE 'collection_%' ORDER BY tablename",
	)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PGVector) GetCollectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	if s.pool == nil {
		return CollectionInfo{}, ErrNotConnected
	}
	if err := s.requireCollection(ctx, name); err != nil {
		return CollectionInfo{}, err
	}

	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count); err != nil {
		return CollectionInfo{}, fmt.Errorf("counting rows in %s: %w", name, err)
	}

	var sizeBytes int64
	if err := s.pool.QueryRow(ctx, "SELECT pg_total_relation_size($1)", name).Scan(&sizeBytes); err != nil {
		return CollectionInfo{}, fmt.Errorf("measuring %s: %w", name, err)
	}

	return CollectionInfo{
		Name:        name,
		RecordCount: count,
		Metadata: map[string]any{
			"backend":    "pgvector",
			"size_bytes": sizeBytes,
		},
	}, nil
}

func (s *PGVector) CreateCollection(ctx context.Context, name string, dimension int, doReset bool) (bool, error) {
	if s.pool == nil {
		return false, ErrNotConnected
	}
	if !identPattern.MatchString(name) {
		return false, fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}

	exists, err := s.IsCollectionExist(ctx, name)
	if err != nil {
		return false, err
	}
	if exists && doReset {
		if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return false, fmt.Errorf("resetting collection %s: %w", name, err)
		}
		exists = false
	}
	if exists {
		return false, nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE %s (
		id bigserial PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		text text NOT NULL,
		metadata jsonb NOT NULL DEFAULT '{}',
		chunk_id text UNIQUE NOT NULL
	)`, name, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return false, fmt.Errorf("creating collection %s: %w", name, err)
	}

	s.logger.Info("created collection",
		"name", name,
		"backend", "pgvector",
		"dimension", dimension,
	)
	return true, nil
}

func (s *PGVector) DeleteCollection(ctx context.Context, name string) error {
	if s.pool == nil {
		return ErrNotConnected
	}
	if err := s.requireCollection(ctx, name); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// InsertBatch upserts records by chunk identity, one transaction per batch.
// After all batches land it checks whether the collection has grown past the
// index threshold and builds the HNSW index if so.
func (s *PGVector) InsertBatch(ctx context.Context, name string, records []Record, batchSize int) error {
	if s.pool == nil {
		return ErrNotConnected
	}
	if err := s.requireCollection(ctx, name); err != nil {
		return err
	}
	if batchSize < 1 {
		batchSize = len(records)
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (embedding, text, metadata, chunk_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chunk_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata`, name)

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.insertOne(ctx, upsert, records[start:end]); err != nil {
			return fmt.Errorf("insert batch into %s: %w", name, err)
		}
	}

	if err := s.maybeBuildIndex(ctx, name); err != nil {
		return err
	}

	s.logger.Debug("inserted records",
		"collection", name,
		"count", len(records),
	)
	return nil
}

func (s *PGVector) insertOne(ctx context.Context, upsert string, records []Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		metadata, err := json.Marshal(orEmpty(rec.Metadata))
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", rec.ID, err)
		}
		_, err = tx.Exec(ctx, upsert,
			pgvector.NewVector(rec.Vector),
			rec.Text,
			metadata,
			rec.ID,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// maybeBuildIndex creates the HNSW index once the collection is big enough
// for sequential scans to hurt. The check runs after every insert; the index
// is only ever built once.
func (s *PGVector) maybeBuildIndex(ctx context.Context, name string) error {
	if s.indexThreshold <= 0 {
		return nil
	}

	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count); err != nil {
		return fmt.Errorf("counting rows in %s: %w", name, err)
	}
	if count < int64(s.indexThreshold) {
		return nil
	}

	indexName := name + "_vector_idx"
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = $1)",
		indexName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	opclass := "vector_cosine_ops"
	if s.distance == DistanceDot {
		opclass = "vector_ip_ops"
	}
	ddl := fmt.Sprintf("CREATE INDEX %s ON %s USING hnsw (embedding %s)", indexName, name, opclass)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("building index %s: %w", indexName, err)
	}

	s.logger.Info("built vector index",
		"collection", name,
		"index", indexName,
		"rows", count,
	)
	return nil
}

func (s *PGVector) SearchByVector(ctx context.Context, name string, vector []float32, topK int) ([]RetrievedDocument, error) {
	if s.pool == nil {
		return nil, ErrNotConnected
	}
	if err := s.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	var query string
	switch s.distance {
	case DistanceDot:
		query = fmt.Sprintf(`SELECT text, metadata, (embedding <#> $1) * -1 AS score
			FROM %s ORDER BY embedding <#> $1 LIMIT $2`, name)
	default:
		query = fmt.Sprintf(`SELECT text, metadata, 1 - (embedding <=> $1) AS score
			FROM %s ORDER BY embedding <=> $1 LIMIT $2`, name)
	}

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", name, err)
	}
	defer rows.Close()

	docs := make([]RetrievedDocument, 0, topK)
	for rows.Next() {
		var (
			doc  RetrievedDocument
			meta []byte
		)
		if err := rows.Scan(&doc.Text, &meta, &doc.Score); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// requireCollection validates the name and resolves absence to
// ErrCollectionNotFound.
func (s *PGVector) requireCollection(ctx context.Context, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}
	exists, err := s.IsCollectionExist(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
