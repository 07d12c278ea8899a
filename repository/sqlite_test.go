package repository

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/models"
)

func newTestRepo(t *testing.T, retention int) *SQLiteSnapshotRepository {
	t.Helper()
	repo, err := NewSQLiteSnapshotRepository(context.Background(), filepath.Join(t.TempDir(), "atlas.db"), retention)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testSnapshot(loadedAt time.Time) *models.Snapshot {
	return &models.Snapshot{
		ID:          uuid.New(),
		LoadedAt:    loadedAt,
		Fingerprint: "00000000deadbeef",
		Tables: []models.TableStatus{
			{File: "combined.csv", Rows: 2},
			{File: "tram.csv", System: "Tram", Error: "table not found: tram.csv"},
		},
		Cities: []models.CityAggregate{
			{Name: "Paris", Country: "France", SystemCount: 2, TotalLength: 220.5, TotalStations: 380, TotalLines: 16},
			{Name: "Lyon", Country: "France", SystemCount: 1, TotalLength: 32, TotalStations: 40, TotalLines: 4},
		},
	}
}

func TestSQLiteSaveAndList(t *testing.T) {
	repo := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := testSnapshot(base)
	newer := testSnapshot(base.Add(90 * time.Minute))
	require.NoError(t, repo.SaveSnapshot(ctx, older))
	require.NoError(t, repo.SaveSnapshot(ctx, newer))

	list, err := repo.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.True(t, newer.LoadedAt.Equal(list[0].LoadedAt))
	assert.Equal(t, 2, list[0].CityCount)
	assert.Equal(t, 3, list[0].SystemTotal)
	assert.Equal(t, []string{"tram.csv"}, list[0].FailedTables)
}

func TestSQLiteExportRoundTrip(t *testing.T) {
	repo := newTestRepo(t, 10)
	ctx := context.Background()

	snap := testSnapshot(time.Now())
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	exportRows, err := repo.GetSnapshotExport(ctx, snap.ID)
	require.NoError(t, err)

	var fromHistory, fromSnapshot bytes.Buffer
	require.NoError(t, query.WriteExportRows(&fromHistory, exportRows))
	require.NoError(t, query.WriteExport(&fromSnapshot, snap.Cities))
	assert.Equal(t, fromSnapshot.String(), fromHistory.String())

	_, err = repo.GetSnapshotExport(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestSQLitePrunesToRetention(t *testing.T) {
	repo := newTestRepo(t, 2)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		snap := testSnapshot(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, snap.ID)
		require.NoError(t, repo.SaveSnapshot(ctx, snap))
	}

	list, err := repo.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[3], list[0].ID)
	assert.Equal(t, ids[2], list[1].ID)

	_, err = repo.GetSnapshotExport(ctx, ids[0])
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}
