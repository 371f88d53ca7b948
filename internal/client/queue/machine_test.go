package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/client/repositories/uploads"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/akulikov/vaultsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupMachine(t *testing.T) (*Machine, uploads.Repository, *sql.DB) {
	t.Helper()
	db, err := uploads.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := uploads.NewSQLiteRepository(db)
	limits := Limits{
		MaxPayloadBytes:  1024,
		AllowedMimeTypes: []string{"application/octet-stream", "text/plain"},
	}
	m := NewMachine(repo, logging.NewDiscardLogger(), limits, common.DefaultMaxRetries)
	return m, repo, db
}

func meta(name, mime string) models.FileMetadata {
	return models.FileMetadata{Name: name, MimeType: mime}
}

func TestEnqueue_CreatesPendingEntry(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	id, err := m.Enqueue(ctx, []byte("payload"), meta("a.txt", "text/plain"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, e.State)
	assert.Equal(t, 0, e.RetryCount)
	assert.EqualValues(t, 7, e.Metadata.SizeBytes)
	assert.False(t, e.Metadata.EnqueuedAt.IsZero())
}

func TestEnqueue_RejectsOversizedPayload(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	_, err := m.Enqueue(ctx, make([]byte, 2048), meta("big.bin", "application/octet-stream"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "exceeds limit")

	// store untouched
	pending, err := repo.ListByState(ctx, models.StatePending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEnqueue_RejectsDisallowedMimeType(t *testing.T) {
	m, _, _ := setupMachine(t)

	_, err := m.Enqueue(context.Background(), []byte("x"), meta("a.exe", "application/x-msdownload"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "not allowed")
}

func TestTransitionGraph(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	id, err := m.Enqueue(ctx, []byte("x"), meta("a.txt", "text/plain"))
	require.NoError(t, err)

	// pending: success/failure are not acceptable yet
	assert.ErrorIs(t, m.RecordSuccess(ctx, id), common.ErrInvalidTransition)
	assert.ErrorIs(t, m.RecordFailure(ctx, id, "early"), common.ErrInvalidTransition)

	require.NoError(t, m.BeginUpload(ctx, id))

	// uploading: a second begin is rejected without mutating state
	assert.ErrorIs(t, m.BeginUpload(ctx, id), common.ErrInvalidTransition)
	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateUploading, e.State)

	require.NoError(t, m.RecordSuccess(ctx, id))

	// completed is terminal: idempotent no-op, not a duplicate completion
	assert.ErrorIs(t, m.RecordSuccess(ctx, id), common.ErrInvalidTransition)
	assert.ErrorIs(t, m.BeginUpload(ctx, id), common.ErrInvalidTransition)

	e, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, e.State)
	assert.Empty(t, e.LastError)
}

func TestRecordFailure_RetriesThenGivesUp(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	id, err := m.Enqueue(ctx, []byte("x"), meta("a.txt", "text/plain"))
	require.NoError(t, err)

	// retryCount=0, maxRetries=3: one failure leaves a pending retry
	require.NoError(t, m.BeginUpload(ctx, id))
	require.NoError(t, m.RecordFailure(ctx, id, "timeout"))

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, e.State)
	assert.Equal(t, 1, e.RetryCount)
	assert.Equal(t, "timeout", e.LastError)

	// second failure still retries
	require.NoError(t, m.BeginUpload(ctx, id))
	require.NoError(t, m.RecordFailure(ctx, id, "reset"))

	e, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, e.State)
	assert.Equal(t, 2, e.RetryCount)

	// retryCount=2, maxRetries=3: the next failure is terminal
	require.NoError(t, m.BeginUpload(ctx, id))
	require.NoError(t, m.RecordFailure(ctx, id, "refused"))

	e, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, e.State)
	assert.Equal(t, common.MaxRetriesExceededReason, e.LastError)
}

func TestRemove_ImmediateWhenNotUploading(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	id, err := m.Enqueue(ctx, []byte("x"), meta("a.txt", "text/plain"))
	require.NoError(t, err)

	require.NoError(t, m.Remove(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemove_DeferredDuringUpload(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	id, err := m.Enqueue(ctx, []byte("x"), meta("a.txt", "text/plain"))
	require.NoError(t, err)
	require.NoError(t, m.BeginUpload(ctx, id))

	// mid-upload: removal is deferred, the row survives for now
	require.NoError(t, m.Remove(ctx, id))
	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateUploading, e.State)
	assert.True(t, e.DeleteRequested)

	// the attempt resolving honors the pending delete
	require.NoError(t, m.RecordSuccess(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestView_SnapshotAndOperations(t *testing.T) {
	m, repo, _ := setupMachine(t)
	ctx := context.Background()

	idPending, err := m.Enqueue(ctx, []byte("x"), meta("p.txt", "text/plain"))
	require.NoError(t, err)

	idFailed, err := m.Enqueue(ctx, []byte("y"), meta("f.txt", "text/plain"))
	require.NoError(t, err)
	for i := 0; i < common.DefaultMaxRetries; i++ {
		require.NoError(t, m.BeginUpload(ctx, idFailed))
		require.NoError(t, m.RecordFailure(ctx, idFailed, "down"))
	}

	idDone, err := m.Enqueue(ctx, []byte("z"), meta("d.txt", "text/plain"))
	require.NoError(t, err)
	require.NoError(t, m.BeginUpload(ctx, idDone))
	require.NoError(t, m.RecordSuccess(ctx, idDone))

	running := false
	v := NewView(repo, m, func() bool { return running })

	view, err := v.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, view.Pending, 1)
	require.Len(t, view.Failed, 1)
	assert.Equal(t, idPending, view.Pending[0].ID)
	assert.Equal(t, idFailed, view.Failed[0].ID)
	assert.Equal(t, common.MaxRetriesExceededReason, view.Failed[0].LastError)
	assert.False(t, view.Processing)

	running = true
	view, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, view.Processing)

	n, err := v.RetryFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	e, err := repo.GetByID(ctx, idFailed)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, e.State)
	assert.Equal(t, 0, e.RetryCount)
	assert.Empty(t, e.LastError)

	n, err = v.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, v.DeleteEntry(ctx, idPending))
	_, err = repo.GetByID(ctx, idPending)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
