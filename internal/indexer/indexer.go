// Package indexer drives the ingestion-to-vector pipeline: it pages through
// a project's stored chunks, embeds each page, and upserts the vectors into
// the project's collection.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ragstack/ragstack/internal/llm"
	"github.com/ragstack/ragstack/internal/log"
	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/internal/vectordb"
)

var (
	// ErrNoChunks indicates an indexing run over a project with nothing to
	// index.
	ErrNoChunks = errors.New("indexer: project has no chunks")

	// ErrEmbeddingMismatch indicates a provider returning the wrong number
	// of vectors for a page.
	ErrEmbeddingMismatch = errors.New("indexer: embedding count mismatch")
)

// ChunkSource is the slice of chunk persistence the indexer consumes.
type ChunkSource interface {
	GetProject(ctx context.Context, projectID string) (store.Project, error)
	GetProjectChunks(ctx context.Context, projectID uuid.UUID, pageNo, pageSize int) ([]store.DataChunk, error)
	GetTotalChunksCount(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// Options tunes an indexing run.
type Options struct {
	// PageSize is how many chunks are read and embedded per page.
	PageSize int

	// InsertBatchSize is forwarded to the vector store's batch insert.
	InsertBatchSize int
}

// Indexer pages chunks out of persistence and into the vector store.
type Indexer struct {
	source   ChunkSource
	embedder llm.Provider
	vectors  vectordb.Store
	opts     Options
	logger   log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an Indexer over its three collaborators.
func New(source ChunkSource, embedder llm.Provider, vectors vectordb.Store, opts Options, logger log.Logger) *Indexer {
	if opts.PageSize < 1 {
		opts.PageSize = 100
	}
	return &Indexer{
		source:   source,
		embedder: embedder,
		vectors:  vectors,
		opts:     opts,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// projectLock serialises runs per project, so a reset in one run cannot
// interleave with inserts from another.
func (ix *Indexer) projectLock(projectID string) *sync.Mutex {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	l, ok := ix.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[projectID] = l
	}
	return l
}

// Run indexes every chunk of the project and returns how many vectors were
// inserted. With doReset the collection is dropped and recreated once,
// before the first page; the reset never repeats mid-run. Pages are
// processed strictly in order and a failure aborts the run, leaving
// previously inserted pages in place.
func (ix *Indexer) Run(ctx context.Context, projectID string, doReset bool) (int, error) {
	lock := ix.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := ix.source.GetProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	total, err := ix.source.GetTotalChunksCount(ctx, project.ID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoChunks, projectID)
	}

	collection := vectordb.CollectionName(projectID)
	if _, err := ix.vectors.CreateCollection(ctx, collection, ix.embedder.EmbeddingSize(), doReset); err != nil {
		return 0, fmt.Errorf("prepare collection %s: %w", collection, err)
	}

	inserted := 0
	for pageNo := 1; ; pageNo++ {
		chunks, err := ix.source.GetProjectChunks(ctx, project.ID, pageNo, ix.opts.PageSize)
		if err != nil {
			return inserted, fmt.Errorf("read page %d: %w", pageNo, err)
		}
		if len(chunks) == 0 {
			break
		}

		records, err := ix.embedPage(ctx, chunks)
		if err != nil {
			return inserted, fmt.Errorf("embed page %d: %w", pageNo, err)
		}

		if err := ix.vectors.InsertBatch(ctx, collection, records, ix.opts.InsertBatchSize); err != nil {
			return inserted, fmt.Errorf("insert page %d: %w", pageNo, err)
		}
		inserted += len(records)

		ix.logger.Debug("indexed page",
			"project", projectID,
			"page", pageNo,
			"chunks", len(chunks),
		)
	}

	ix.logger.Info("indexing run finished",
		"project", projectID,
		"collection", collection,
		"inserted", inserted,
	)
	return inserted, nil
}

// embedPage turns one page of chunks into vector records, reusing chunk
// identities as record identities.
func (ix *Indexer) embedPage(ctx context.Context, chunks []store.DataChunk) ([]vectordb.Record, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedder.GetEmbedding(ctx, texts, llm.InputDocument)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingMismatch, len(vectors), len(chunks))
	}

	records := make([]vectordb.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectordb.Record{
			ID:       c.ID.String(),
			Text:     c.Text,
			Vector:   vectors[i],
			Metadata: c.Metadata,
		}
	}
	return records, nil
}

// CollectionInfo reports the state of the project's collection.
func (ix *Indexer) CollectionInfo(ctx context.Context, projectID string) (vectordb.CollectionInfo, error) {
	return ix.vectors.GetCollectionInfo(ctx, vectordb.CollectionName(projectID))
}

// ResetCollection drops the project's collection and its vectors. Stored
// chunks are untouched; a later run rebuilds the collection from them.
func (ix *Indexer) ResetCollection(ctx context.Context, projectID string) error {
	lock := ix.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	return ix.vectors.DeleteCollection(ctx, vectordb.CollectionName(projectID))
}
