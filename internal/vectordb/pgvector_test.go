package vectordb_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragstack/internal/log"
	"github.com/ragstack/ragstack/internal/testutil"
	"github.com/ragstack/ragstack/internal/vectordb"
)

func newTestPGVector(t *testing.T, indexThreshold int) (*vectordb.PGVector, *testutil.TestDB) {
	t.Helper()

	testDB := testutil.SetupTestDB(t)
	s := vectordb.NewPGVector(vectordb.PGVectorOptions{
		ConnString:     testDB.ConnStr,
		Distance:       vectordb.DistanceCosine,
		IndexThreshold: indexThreshold,
	}, log.NewNop())

	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() {
		_ = s.Disconnect(context.Background())
	})
	return s, testDB
}

func TestPGVector_CollectionLifecycle(t *testing.T) {
	s, _ := newTestPGVector(t, 0)
	ctx := context.Background()
	name := vectordb.CollectionName("1")

	exists, err := s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := s.CreateCollection(ctx, name, 3, false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateCollection(ctx, name, 3, false)
	require.NoError(t, err)
	assert.False(t, created)

	exists, err = s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
	assert.Zero(t, info.RecordCount)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, name)

	require.NoError(t, s.DeleteCollection(ctx, name))

	exists, err = s.IsCollectionExist(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPGVector_MissingCollectionErrors(t *testing.T) {
	s, _ := newTestPGVector(t, 0)
	ctx := context.Background()

	_, err := s.GetCollectionInfo(ctx, "collection_missing")
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)

	err = s.InsertBatch(ctx, "collection_missing", []vectordb.Record{{ID: "c1", Vector: []float32{1, 0, 0}}}, 10)
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)

	_, err = s.SearchByVector(ctx, "collection_missing", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
}

func TestPGVector_RejectsUnsafeNames(t *testing.T) {
	s, _ := newTestPGVector(t, 0)
	ctx := context.Background()

	_, err := s.CreateCollection(ctx, "collection_1; DROP TABLE projects", 3, false)
	assert.ErrorIs(t, err, vectordb.ErrInvalidCollectionName)

	_, err = s.SearchByVector(ctx, "collection-1", []float32{1}, 5)
	assert.ErrorIs(t, err, vectordb.ErrInvalidCollectionName)
}

func TestPGVector_InsertAndSearch(t *testing.T) {
	s, _ := newTestPGVector(t, 0)
	ctx := context.Background()
	name := vectordb.CollectionName("7")

	_, err := s.CreateCollection(ctx, name, 3, false)
	require.NoError(t, err)

	records := []vectordb.Record{
		{ID: "c1", Text: "alpha", Vector: []float32{1, 0, 0}, Metadata: map[string]string{"asset": "a.txt"}},
		{ID: "c2", Text: "beta", Vector: []float32{0.7, 0.7, 0}},
		{ID: "c3", Text: "gamma", Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, s.InsertBatch(ctx, name, records, 2))

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 3, info.RecordCount)

	docs, err := s.SearchByVector(ctx, name, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, "beta", docs[1].Text)
	assert.InDelta(t, 1.0, docs[0].Score, 1e-4)
	assert.Equal(t, "a.txt", docs[0].Metadata["asset"])

	// Zero hits on an empty collection is not an error.
	empty := vectordb.CollectionName("8")
	_, err = s.CreateCollection(ctx, empty, 3, false)
	require.NoError(t, err)

	docs, err = s.SearchByVector(ctx, empty, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPGVector_UpsertByChunkIdentity(t *testing.T) {
	s, _ := newTestPGVector(t, 0)
	ctx := context.Background()
	name := vectordb.CollectionName("9")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)

	records := []vectordb.Record{
		{ID: "c1", Text: "one", Vector: []float32{1, 0}},
		{ID: "c2", Text: "two", Vector: []float32{0, 1}},
	}
	require.NoError(t, s.InsertBatch(ctx, name, records, 10))

	// Same identities, new content: count stays, content moves.
	records[0].Text = "one, revised"
	require.NoError(t, s.InsertBatch(ctx, name, records, 10))

	info, err := s.GetCollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.RecordCount)

	docs, err := s.SearchByVector(ctx, name, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one, revised", docs[0].Text)
}

func TestPGVector_LazyIndexBuild(t *testing.T) {
	s, testDB := newTestPGVector(t, 10)
	ctx := context.Background()
	name := vectordb.CollectionName("11")

	_, err := s.CreateCollection(ctx, name, 2, false)
	require.NoError(t, err)

	indexExists := func() bool {
		var exists bool
		err := testDB.Pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = $1)",
			name+"_vector_idx",
		).Scan(&exists)
		require.NoError(t, err)
		return exists
	}

	small := make([]vectordb.Record, 5)
	for i := range small {
		small[i] = vectordb.Record{ID: fmt.Sprintf("c%d", i), Text: "t", Vector: []float32{float32(i), 1}}
	}
	require.NoError(t, s.InsertBatch(ctx, name, small, 10))
	assert.False(t, indexExists())

	more := make([]vectordb.Record, 7)
	for i := range more {
		more[i] = vectordb.Record{ID: fmt.Sprintf("d%d", i), Text: "t", Vector: []float32{float32(i), 2}}
	}
	require.NoError(t, s.InsertBatch(ctx, name, more, 10))
	assert.True(t, indexExists())
}
