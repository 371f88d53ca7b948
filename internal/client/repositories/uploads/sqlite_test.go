package uploads

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newEntry(id string, st models.EntryState) *models.QueueEntry {
	return &models.QueueEntry{
		ID: id,
		Metadata: models.FileMetadata{
			Name:       id + ".bin",
			MimeType:   "application/octet-stream",
			SizeBytes:  4,
			EnqueuedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Payload: []byte("data"),
		State:   st,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := newEntry("id1", models.StatePending)
	require.NoError(t, r.Insert(ctx, e))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "id1", got.ID)
	assert.Equal(t, "id1.bin", got.Metadata.Name)
	assert.Equal(t, []byte("data"), got.Payload)
	assert.Equal(t, models.StatePending, got.State)
	assert.Equal(t, 0, got.RetryCount)
	assert.False(t, got.DeleteRequested)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByState_OrderedSnapshot(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e1 := newEntry("a", models.StatePending)
	e2 := newEntry("b", models.StatePending)
	e2.Metadata.EnqueuedAt = e1.Metadata.EnqueuedAt.Add(time.Minute)
	e3 := newEntry("c", models.StateFailed)
	require.NoError(t, r.Insert(ctx, e1))
	require.NoError(t, r.Insert(ctx, e2))
	require.NoError(t, r.Insert(ctx, e3))

	pending, err := r.ListByState(ctx, models.StatePending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "b", pending[1].ID)
}

func TestMarkUploading_CASSemantics(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newEntry("id1", models.StatePending)))

	ok, err := r.MarkUploading(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, ok)

	// not pending anymore, second call must not touch the row
	ok, err = r.MarkUploading(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.StateUploading, got.State)
}

func TestMarkCompleted_ClearsErrorAndHonorsDeferredDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := newEntry("id1", models.StateUploading)
	e.LastError = "stale reason"
	require.NoError(t, r.Insert(ctx, e))

	ok, err := r.MarkCompleted(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, got.State)
	assert.Empty(t, got.LastError)

	// with a delete requested mid-flight the entry is reaped on completion
	e2 := newEntry("id2", models.StateUploading)
	require.NoError(t, r.Insert(ctx, e2))
	require.NoError(t, r.RequestDelete(ctx, "id2"))

	ok, err = r.MarkCompleted(ctx, "id2")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.GetByID(ctx, "id2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMarkRetry_IncrementsAndKeepsReason(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newEntry("id1", models.StateUploading)))

	ok, err := r.MarkRetry(ctx, "id1", "connection reset")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got.State)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "connection reset", got.LastError)
}

func TestMarkFailed_TerminalWithDeferredDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newEntry("id1", models.StateUploading)))
	require.NoError(t, r.RequestDelete(ctx, "id1"))

	ok, err := r.MarkFailed(ctx, "id1", common.MaxRetriesExceededReason)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.GetByID(ctx, "id1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResetStuck(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newEntry("stuck1", models.StateUploading)))
	require.NoError(t, r.Insert(ctx, newEntry("stuck2", models.StateUploading)))
	require.NoError(t, r.Insert(ctx, newEntry("ok", models.StatePending)))

	n, err := r.ResetStuck(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := r.ListByState(ctx, models.StatePending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestResetFailed_ClearsDiagnostics(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := newEntry("id1", models.StateFailed)
	e.RetryCount = 3
	e.LastError = common.MaxRetriesExceededReason
	require.NoError(t, r.Insert(ctx, e))

	n, err := r.ResetFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got.State)
	assert.Equal(t, 0, got.RetryCount)
	assert.Empty(t, got.LastError)
}

func TestDeleteCompletedAndDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newEntry("done1", models.StateCompleted)))
	require.NoError(t, r.Insert(ctx, newEntry("done2", models.StateCompleted)))
	require.NoError(t, r.Insert(ctx, newEntry("keep", models.StatePending)))

	n, err := r.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, r.Delete(ctx, "keep"))
	assert.ErrorIs(t, r.Delete(ctx, "keep"), common.ErrNotFound)
}

func TestListSummaries_OmitsPayload(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := newEntry("id1", models.StateFailed)
	e.RetryCount = 2
	e.LastError = "timeout"
	require.NoError(t, r.Insert(ctx, e))

	sums, err := r.ListSummaries(ctx, models.StateFailed)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "id1", sums[0].ID)
	assert.Equal(t, "id1.bin", sums[0].Name)
	assert.Equal(t, 2, sums[0].RetryCount)
	assert.Equal(t, "timeout", sums[0].LastError)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dsn := t.TempDir() + "/queue.db"
	ctx := context.Background()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteRepository(db).Insert(ctx, newEntry("id1", models.StatePending)))
	require.NoError(t, db.Close())

	db2, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer db2.Close()

	got, err := NewSQLiteRepository(db2).GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got.State)
}
