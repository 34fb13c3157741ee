// Package store persists projects, assets and their text chunks in
// PostgreSQL.
//
// A project groups everything ingested under one external identifier. An
// asset is one ingested source (a file, a page) and is unique by name within
// its project. Chunks carry the split text along with a 1-based order inside
// their asset; their UUIDs double as vector record identities downstream.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragstack/ragstack/internal/log"
)

var (
	// ErrNotFound indicates a lookup that matched nothing.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidChunk indicates a chunk that violates the schema contract.
	ErrInvalidChunk = errors.New("store: invalid chunk")
)

// Project groups assets and chunks under one external identifier.
type Project struct {
	ID        uuid.UUID
	ProjectID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Asset is one ingested source, unique by name within its project.
type Asset struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	Type      string
	Size      int64
	CreatedAt time.Time
}

// DataChunk is one bounded piece of an asset's text. Order is 1-based within
// the asset.
type DataChunk struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	AssetID   uuid.UUID
	Text      string
	Metadata  map[string]string
	Order     int
	CreatedAt time.Time
}

// Store runs all project, asset and chunk queries on a shared pool.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New builds a Store on an existing connection pool.
func New(pool *pgxpool.Pool, logger log.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// GetOrCreateProject resolves the external identifier to its project row,
// creating it on first use.
func (s *Store) GetOrCreateProject(ctx context.Context, projectID string) (Project, error) {
	const q = `INSERT INTO projects (project_id)
		VALUES ($1)
		ON CONFLICT (project_id) DO UPDATE SET updated_at = now()
		RETURNING id, project_id, created_at, updated_at`

	var p Project
	err := s.pool.QueryRow(ctx, q, projectID).Scan(&p.ID, &p.ProjectID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("get or create project %s: %w", projectID, err)
	}
	return p, nil
}

// GetProject resolves the external identifier without creating anything.
func (s *Store) GetProject(ctx context.Context, projectID string) (Project, error) {
	const q = `SELECT id, project_id, created_at, updated_at FROM projects WHERE project_id = $1`

	var p Project
	err := s.pool.QueryRow(ctx, q, projectID).Scan(&p.ID, &p.ProjectID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return p, nil
}

// CreateAsset upserts the asset by (project, name). Re-ingesting a source
// refreshes its type and size instead of failing.
func (s *Store) CreateAsset(ctx context.Context, asset Asset) (Asset, error) {
	const q = `INSERT INTO assets (project_id, name, type, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, name) DO UPDATE SET type = EXCLUDED.type, size = EXCLUDED.size
		RETURNING id, project_id, name, type, size, created_at`

	var out Asset
	err := s.pool.QueryRow(ctx, q, asset.ProjectID, asset.Name, asset.Type, asset.Size).
		Scan(&out.ID, &out.ProjectID, &out.Name, &out.Type, &out.Size, &out.CreatedAt)
	if err != nil {
		return Asset{}, fmt.Errorf("create asset %s: %w", asset.Name, err)
	}
	return out, nil
}

// GetAsset looks an asset up by name within a project.
func (s *Store) GetAsset(ctx context.Context, projectID uuid.UUID, name string) (Asset, error) {
	const q = `SELECT id, project_id, name, type, size, created_at
		FROM assets WHERE project_id = $1 AND name = $2`

	var a Asset
	err := s.pool.QueryRow(ctx, q, projectID, name).
		Scan(&a.ID, &a.ProjectID, &a.Name, &a.Type, &a.Size, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Asset{}, fmt.Errorf("%w: asset %s", ErrNotFound, name)
	}
	if err != nil {
		return Asset{}, fmt.Errorf("get asset %s: %w", name, err)
	}
	return a, nil
}

// ListProjectAssets returns a project's assets, oldest first.
func (s *Store) ListProjectAssets(ctx context.Context, projectID uuid.UUID) ([]Asset, error) {
	const q = `SELECT id, project_id, name, type, size, created_at
		FROM assets WHERE project_id = $1 ORDER BY created_at, name`

	rows, err := s.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Type, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// InsertManyChunks stores chunks in batches and returns how many landed.
// Chunks without an ID get one assigned, in place, so callers can reuse the
// identities as vector ids.
func (s *Store) InsertManyChunks(ctx context.Context, chunks []DataChunk, batchSize int) (int, error) {
	const q = `INSERT INTO chunks (id, project_id, asset_id, chunk_text, chunk_metadata, chunk_order)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if batchSize < 1 {
		batchSize = len(chunks)
	}

	for i := range chunks {
		if chunks[i].Order < 1 {
			return 0, fmt.Errorf("%w: order %d must be positive", ErrInvalidChunk, chunks[i].Order)
		}
		if chunks[i].ID == uuid.Nil {
			chunks[i].ID = uuid.New()
		}
	}

	inserted := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := &pgx.Batch{}
		for _, c := range chunks[start:end] {
			metadata, err := json.Marshal(orEmpty(c.Metadata))
			if err != nil {
				return inserted, fmt.Errorf("encode metadata for chunk %s: %w", c.ID, err)
			}
			batch.Queue(q, c.ID, c.ProjectID, c.AssetID, c.Text, metadata, c.Order)
		}

		results := s.pool.SendBatch(ctx, batch)
		for range chunks[start:end] {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return inserted, fmt.Errorf("insert chunk batch: %w", err)
			}
			inserted++
		}
		if err := results.Close(); err != nil {
			return inserted, fmt.Errorf("close chunk batch: %w", err)
		}
	}

	s.logger.Debug("inserted chunks", "count", inserted)
	return inserted, nil
}

// GetProjectChunks returns one page of a project's chunks in stable order.
// pageNo is 1-based; an out-of-range page is an empty slice, not an error.
func (s *Store) GetProjectChunks(ctx context.Context, projectID uuid.UUID, pageNo, pageSize int) ([]DataChunk, error) {
	const q = `SELECT id, project_id, asset_id, chunk_text, chunk_metadata, chunk_order, created_at
		FROM chunks WHERE project_id = $1
		ORDER BY asset_id, chunk_order
		LIMIT $2 OFFSET $3`

	if pageNo < 1 || pageSize < 1 {
		return nil, fmt.Errorf("store: invalid page %d with size %d", pageNo, pageSize)
	}

	rows, err := s.pool.Query(ctx, q, projectID, pageSize, (pageNo-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("get project chunks: %w", err)
	}
	defer rows.Close()

	var chunks []DataChunk
	for rows.Next() {
		var (
			c    DataChunk
			meta []byte
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.AssetID, &c.Text, &meta, &c.Order, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetTotalChunksCount reports how many chunks a project holds.
func (s *Store) GetTotalChunksCount(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunks WHERE project_id = $1", projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// DeleteChunksByProjectID removes all of a project's chunks and reports how
// many were removed.
func (s *Store) DeleteChunksByProjectID(ctx context.Context, projectID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM chunks WHERE project_id = $1", projectID)
	if err != nil {
		return 0, fmt.Errorf("delete project chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteChunksByAssetID removes one asset's chunks and reports how many were
// removed.
func (s *Store) DeleteChunksByAssetID(ctx context.Context, assetID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM chunks WHERE asset_id = $1", assetID)
	if err != nil {
		return 0, fmt.Errorf("delete asset chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
