package vectordb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ragstack/ragstack/internal/log"
)

// Chromem is the embedded backend, a persistent chromem-go database on the
// local filesystem. All similarity is cosine; chromem normalises vectors on
// write.
type Chromem struct {
	path   string
	logger log.Logger

	db *chromem.DB
}

// NewChromem builds an embedded store rooted at path. The directory is
// created on Connect if missing.
func NewChromem(path string, logger log.Logger) *Chromem {
	return &Chromem{path: path, logger: logger}
}

// precomputedOnly rejects any attempt by chromem to embed text itself. All
// vectors arrive precomputed through Record.Vector.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("vectordb: embeddings are precomputed, refusing to embed")
}

func (s *Chromem) Connect(_ context.Context) error {
	db, err := chromem.NewPersistentDB(s.path, false)
	if err != nil {
		return fmt.Errorf("open chromem db at %s: %w", s.path, err)
	}
	s.db = db
	s.logger.Debug("connected to embedded vector store", "path", s.path)
	return nil
}

func (s *Chromem) Disconnect(_ context.Context) error {
	s.db = nil
	return nil
}

func (s *Chromem) IsCollectionExist(_ context.Context, name string) (bool, error) {
	if s.db == nil {
		return false, ErrNotConnected
	}
	return s.db.GetCollection(name, precomputedOnly) != nil, nil
}

func (s *Chromem) ListCollections(_ context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	collections := s.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Chromem) GetCollectionInfo(_ context.Context, name string) (CollectionInfo, error) {
	if s.db == nil {
		return CollectionInfo{}, ErrNotConnected
	}
	col := s.db.GetCollection(name, precomputedOnly)
	if col == nil {
		return CollectionInfo{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return CollectionInfo{
		Name:        name,
		RecordCount: int64(col.Count()),
		Metadata:    map[string]any{"backend": "chromem", "path": s.path},
	}, nil
}

// CreateCollection ignores the dimension: chromem derives it from the first
// stored vector.
func (s *Chromem) CreateCollection(_ context.Context, name string, _ int, doReset bool) (bool, error) {
	if s.db == nil {
		return false, ErrNotConnected
	}

	exists := s.db.GetCollection(name, precomputedOnly) != nil
	if exists && doReset {
		if err := s.db.DeleteCollection(name); err != nil {
			return false, fmt.Errorf("reset collection %s: %w", name, err)
		}
		exists = false
	}
	if exists {
		return false, nil
	}

	if _, err := s.db.CreateCollection(name, nil, precomputedOnly); err != nil {
		return false, fmt.Errorf("create collection %s: %w", name, err)
	}
	s.logger.Info("created collection", "name", name, "backend", "chromem")
	return true, nil
}

func (s *Chromem) DeleteCollection(_ context.Context, name string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if s.db.GetCollection(name, precomputedOnly) == nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

func (s *Chromem) InsertBatch(ctx context.Context, name string, records []Record, batchSize int) error {
	if s.db == nil {
		return ErrNotConnected
	}
	col := s.db.GetCollection(name, precomputedOnly)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if batchSize < 1 {
		batchSize = len(records)
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		docs := make([]chromem.Document, 0, end-start)
		for _, rec := range records[start:end] {
			docs = append(docs, chromem.Document{
				ID:        rec.ID,
				Content:   rec.Text,
				Embedding: rec.Vector,
				Metadata:  rec.Metadata,
			})
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("insert batch into %s: %w", name, err)
		}
	}

	s.logger.Debug("inserted records",
		"collection", name,
		"count", len(records),
	)
	return nil
}

func (s *Chromem) SearchByVector(ctx context.Context, name string, vector []float32, topK int) ([]RetrievedDocument, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	col := s.db.GetCollection(name, precomputedOnly)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	// chromem rejects nResults above the collection size.
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return []RetrievedDocument{}, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", name, err)
	}

	docs := make([]RetrievedDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, RetrievedDocument{
			Text:     r.Content,
			Score:    float64(r.Similarity),
			Metadata: r.Metadata,
		})
	}
	return docs, nil
}
