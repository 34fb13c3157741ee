// Package vectordb stores and searches embedding vectors grouped into named
// collections.
//
// Two backends implement the same Store interface: an embedded chromem-go
// database for single-binary deployments, and PostgreSQL with the pgvector
// extension for shared ones. Collection names and record identities are the
// persisted contract: collections are named collection_{project_id} and each
// vector record reuses its chunk's identity, so re-indexing the same chunks
// overwrites rather than duplicates.
package vectordb

import (
	"context"
	"strings"
)

// Distance selects the similarity measure used at search time.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceDot    Distance = "dot"
)

// Record is one embedded chunk ready for storage. ID is the chunk identity
// and doubles as the vector record identity.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// RetrievedDocument is one search hit. Score is the backend's similarity,
// higher is closer.
type RetrievedDocument struct {
	Text     string
	Score    float64
	Metadata map[string]string
}

// CollectionInfo summarises a collection for inspection commands.
type CollectionInfo struct {
	Name        string
	RecordCount int64
	Metadata    map[string]any
}

// Store is the persistence contract shared by all vector backends.
type Store interface {
	// Connect opens the underlying database. Must be called before any
	// other operation.
	Connect(ctx context.Context) error

	// Disconnect releases the underlying database.
	Disconnect(ctx context.Context) error

	// IsCollectionExist reports whether the named collection exists.
	IsCollectionExist(ctx context.Context, name string) (bool, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// GetCollectionInfo returns ErrCollectionNotFound for a missing
	// collection.
	GetCollectionInfo(ctx context.Context, name string) (CollectionInfo, error)

	// CreateCollection creates the collection for vectors of the given
	// dimensionality. With doReset an existing collection is dropped first.
	// Reports whether a new collection was created.
	CreateCollection(ctx context.Context, name string, dimension int, doReset bool) (bool, error)

	// DeleteCollection drops the collection and its vectors. Returns
	// ErrCollectionNotFound for a missing collection.
	DeleteCollection(ctx context.Context, name string) error

	// InsertBatch upserts records by identity in slices of batchSize.
	// Returns ErrCollectionNotFound for a missing collection.
	InsertBatch(ctx context.Context, name string, records []Record, batchSize int) error

	// SearchByVector returns up to topK closest records. Zero hits is an
	// empty slice with a nil error; a missing collection is
	// ErrCollectionNotFound.
	SearchByVector(ctx context.Context, name string, vector []float32, topK int) ([]RetrievedDocument, error)
}

// CollectionName derives the canonical collection name for a project. The
// shape is persisted, so it must remain stable across releases.
func CollectionName(projectID string) string {
	return strings.TrimSpace("collection_" + projectID)
}
