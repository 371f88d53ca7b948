package uploads

import (
	"context"

	"github.com/akulikov/vaultsync/internal/client/models"
)

// Repository is the durable store for queued uploads. Implementations are
// backed by a local SQLite database that persists across restarts.
//
// All state-changing methods use compare-and-swap semantics on the entry
// state: they report ok=false without touching the row when the entry is
// not in the expected source state. The state machine turns ok=false into
// an InvalidTransition signal.
type Repository interface {
	// Insert stores a new entry. The entry must already carry its ID,
	// metadata and initial state.
	Insert(ctx context.Context, e *models.QueueEntry) error

	// GetByID returns the entry, payload included. common.ErrNotFound when
	// no such row exists.
	GetByID(ctx context.Context, id string) (*models.QueueEntry, error)

	// ListByState returns all entries in the given state, payload included,
	// ordered by enqueue time.
	ListByState(ctx context.Context, st models.EntryState) ([]*models.QueueEntry, error)

	// ListSummaries returns payload-free projections for display, ordered
	// by enqueue time.
	ListSummaries(ctx context.Context, st models.EntryState) ([]models.EntrySummary, error)

	// MarkUploading transitions pending → uploading.
	MarkUploading(ctx context.Context, id string) (bool, error)

	// MarkCompleted transitions uploading → completed and clears the last
	// error. A pending delete request is honored here.
	MarkCompleted(ctx context.Context, id string) (bool, error)

	// MarkRetry transitions uploading → pending, increments the retry
	// count, and records reason as a diagnostic.
	MarkRetry(ctx context.Context, id string, reason string) (bool, error)

	// MarkFailed transitions uploading → failed with a terminal reason.
	// A pending delete request is honored here.
	MarkFailed(ctx context.Context, id string, reason string) (bool, error)

	// RequestDelete flags an uploading entry for removal once its in-flight
	// attempt resolves.
	RequestDelete(ctx context.Context, id string) error

	// Delete removes an entry immediately.
	Delete(ctx context.Context, id string) error

	// ResetStuck moves every uploading entry back to pending. Run at the
	// start of a sync pass to recover entries abandoned by a prior run.
	ResetStuck(ctx context.Context) (int64, error)

	// ResetFailed moves every failed entry back to pending with a fresh
	// retry budget, clearing the last error.
	ResetFailed(ctx context.Context) (int64, error)

	// DeleteCompleted removes all completed entries and reports how many.
	DeleteCompleted(ctx context.Context) (int64, error)
}
