package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragstack/internal/log"
)

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "collection_42", CollectionName("42"))
	assert.Equal(t, "collection_a1b2", CollectionName("a1b2"))
}

func newTestChromem(t *testing.T) *Chromem {
	t.Helper()

	s := NewChromem(t.TempDir(), log.NewNop())
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() {
		_ = s.Disconnect(context.Background())
	})
	return s
}

func TestChromem_NotConnected(t *testing.T) {
	s := NewChromem(t.TempDir(), log.NewNop())
	ctx := context.Background()

	_, err := s.IsCollectionExist(ctx, "collection_1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = s.CreateCollection(ctx, "collection_1", 3, false)
	assert.ErrorIs(t, err, ErrNotConnected)

	err = s.InsertBatch(ctx, "collection_1", nil, 10)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestChromem_CollectionLifecycle(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	name := CollectionName("1")

	exists, err := s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := s.CreateCollection(ctx, name, 3, false)
	require.NoError(t, err)
	assert.True(t, created)

	exists, err = s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)

	// Creating again without reset is a no-op.
	created, err = s.CreateCollection(ctx, name, 3, false)
	require.NoError(t, err)
	assert.False(t, created)

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
	assert.Zero(t, info.RecordCount)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	require.NoError(t, s.DeleteCollection(ctx, name))

	exists, err = s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChromem_MissingCollectionErrors(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()

	_, err := s.GetCollectionInfo(ctx, "collection_missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	err = s.DeleteCollection(ctx, "collection_missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	err = s.InsertBatch(ctx, "collection_missing", []Record{{ID: "c1", Vector: []float32{1}}}, 10)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = s.SearchByVector(ctx, "collection_missing", []float32{1}, 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestChromem_InsertAndSearch(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	name := CollectionName("7")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)

	records := []Record{
		{ID: "c1", Text: "alpha", Vector: []float32{1, 0}, Metadata: map[string]string{"asset": "a.txt"}},
		{ID: "c2", Text: "beta", Vector: []float32{0.9, 0.1}},
		{ID: "c3", Text: "gamma", Vector: []float32{0, 1}},
	}
	require.NoError(t, s.InsertBatch(ctx, name, records, 2))

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 3, info.RecordCount)

	docs, err := s.SearchByVector(ctx, name, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, "beta", docs[1].Text)
	assert.Greater(t, docs[0].Score, docs[1].Score)
	assert.Equal(t, "a.txt", docs[0].Metadata["asset"])
}

func TestChromem_InsertIsIdempotentByIdentity(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	name := CollectionName("8")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)

	records := []Record{
		{ID: "c1", Text: "one", Vector: []float32{1, 0}},
		{ID: "c2", Text: "two", Vector: []float32{0, 1}},
	}
	require.NoError(t, s.InsertBatch(ctx, name, records, 10))
	require.NoError(t, s.InsertBatch(ctx, name, records, 10))

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.RecordCount)
}

func TestChromem_SearchClampsTopK(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	name := CollectionName("9")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)

	// Empty collection: no hits, no error.
	docs, err := s.SearchByVector(ctx, name, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NotNil(t, docs)

	require.NoError(t, s.InsertBatch(ctx, name, []Record{
		{ID: "c1", Text: "only", Vector: []float32{1, 0}},
	}, 10))

	docs, err = s.SearchByVector(ctx, name, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestChromem_ResetDropsRecords(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	name := CollectionName("10")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)
	require.NoError(t, s.InsertBatch(ctx, name, []Record{
		{ID: "c1", Text: "old", Vector: []float32{1, 0}},
	}, 10))

	created, err := s.CreateCollection(ctx, name, 2, true)
	require.NoError(t, err)
	assert.True(t, created)

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.Zero(t, info.RecordCount)
}

func TestNewStore(t *testing.T) {
	logger := log.NewNop()

	chromemStore, err := NewStore(BackendChromem, Options{Path: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Chromem{}, chromemStore)

	pgStore, err := NewStore(BackendPGVector, Options{
		ConnString:     "postgres://localhost:5432/rag",
		Distance:       DistanceCosine,
		IndexThreshold: 100,
	}, logger)
	require.NoError(t, err)
	assert.IsType(t, &PGVector{}, pgStore)

	_, err = NewStore(Backend("faiss"), Options{}, logger)
	require.ErrorIs(t, err, ErrUnknownBackend)
}
