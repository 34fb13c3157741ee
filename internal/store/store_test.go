package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragstack/internal/log"
	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/internal/testutil"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	testDB := testutil.SetupTestDB(t)
	return store.New(testDB.Pool, log.NewNop())
}

func seedProject(t *testing.T, s *store.Store, projectID string) store.Project {
	t.Helper()
	p, err := s.GetOrCreateProject(context.Background(), projectID)
	require.NoError(t, err)
	return p
}

func seedAsset(t *testing.T, s *store.Store, projectID uuid.UUID, name string) store.Asset {
	t.Helper()
	a, err := s.CreateAsset(context.Background(), store.Asset{
		ProjectID: projectID,
		Name:      name,
		Type:      "file",
		Size:      128,
	})
	require.NoError(t, err)
	return a
}

func TestGetOrCreateProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, "proj-1", first.ProjectID)

	again, err := s.GetOrCreateProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := s.GetOrCreateProject(ctx, "proj-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGetProject_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProject(context.Background(), "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateAsset_UpsertsByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s, "proj-1")

	first, err := s.CreateAsset(ctx, store.Asset{ProjectID: p.ID, Name: "notes.txt", Type: "file", Size: 10})
	require.NoError(t, err)

	second, err := s.CreateAsset(ctx, store.Asset{ProjectID: p.ID, Name: "notes.txt", Type: "file", Size: 99})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 99, second.Size)

	got, err := s.GetAsset(ctx, p.ID, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.GetAsset(ctx, p.ID, "missing.txt")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListProjectAssets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s, "proj-1")
	seedAsset(t, s, p.ID, "a.txt")
	seedAsset(t, s, p.ID, "b.txt")

	assets, err := s.ListProjectAssets(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a.txt", assets[0].Name)
	assert.Equal(t, "b.txt", assets[1].Name)
}

func seedChunks(t *testing.T, s *store.Store, p store.Project, a store.Asset, n int) []store.DataChunk {
	t.Helper()

	chunks := make([]store.DataChunk, n)
	for i := range chunks {
		chunks[i] = store.DataChunk{
			ProjectID: p.ID,
			AssetID:   a.ID,
			Text:      fmt.Sprintf("chunk %d", i+1),
			Metadata:  map[string]string{"asset": a.Name},
			Order:     i + 1,
		}
	}
	inserted, err := s.InsertManyChunks(context.Background(), chunks, 10)
	require.NoError(t, err)
	require.Equal(t, n, inserted)
	return chunks
}

func TestInsertManyChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s, "proj-1")
	a := seedAsset(t, s, p.ID, "a.txt")

	chunks := seedChunks(t, s, p, a, 25)

	// IDs are assigned in place.
	for _, c := range chunks {
		assert.NotEqual(t, uuid.Nil, c.ID)
	}

	count, err := s.GetTotalChunksCount(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)
}

func TestInsertManyChunks_RejectsBadOrder(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s, "proj-1")
	a := seedAsset(t, s, p.ID, "a.txt")

	_, err := s.InsertManyChunks(context.Background(), []store.DataChunk{
		{ProjectID: p.ID, AssetID: a.ID, Text: "bad", Order: 0},
	}, 10)
	require.ErrorIs(t, err, store.ErrInvalidChunk)
}

func TestGetProjectChunks_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s, "proj-1")
	a := seedAsset(t, s, p.ID, "a.txt")
	seedChunks(t, s, p, a, 25)

	page1, err := s.GetProjectChunks(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	assert.Equal(t, 1, page1[0].Order)
	assert.Equal(t, "a.txt", page1[0].Metadata["asset"])

	page3, err := s.GetProjectChunks(ctx, p.ID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	page4, err := s.GetProjectChunks(ctx, p.ID, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page4)

	_, err = s.GetProjectChunks(ctx, p.ID, 0, 10)
	require.Error(t, err)
}

func TestDeleteChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProject(t, s, "proj-1")
	a := seedAsset(t, s, p.ID, "a.txt")
	b := seedAsset(t, s, p.ID, "b.txt")
	seedChunks(t, s, p, a, 5)

	chunks := []store.DataChunk{
		{ProjectID: p.ID, AssetID: b.ID, Text: "other", Order: 1},
	}
	_, err := s.InsertManyChunks(ctx, chunks, 10)
	require.NoError(t, err)

	deleted, err := s.DeleteChunksByAssetID(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)

	deleted, err = s.DeleteChunksByProjectID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	count, err := s.GetTotalChunksCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
