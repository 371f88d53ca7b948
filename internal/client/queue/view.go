package queue

import (
	"context"
	"fmt"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/client/repositories/uploads"
)

// View is the foreground read model over the queue store. Reads go
// straight to the store and may lag the worker by a beat; that staleness
// is acceptable for display.
type View struct {
	repo       uploads.Repository
	machine    *Machine
	processing func() bool
}

// NewView builds a read model. processing reports whether a sync pass is
// currently running (typically Coordinator.Processing); nil means never.
func NewView(repo uploads.Repository, machine *Machine, processing func() bool) *View {
	if processing == nil {
		processing = func() bool { return false }
	}
	return &View{repo: repo, machine: machine, processing: processing}
}

// Snapshot returns the current pending and failed entries plus the
// processing flag.
func (v *View) Snapshot(ctx context.Context) (*models.QueueView, error) {
	pending, err := v.repo.ListSummaries(ctx, models.StatePending)
	if err != nil {
		return nil, fmt.Errorf("reading pending entries: %w", err)
	}
	failed, err := v.repo.ListSummaries(ctx, models.StateFailed)
	if err != nil {
		return nil, fmt.Errorf("reading failed entries: %w", err)
	}
	return &models.QueueView{
		Pending:    pending,
		Failed:     failed,
		Processing: v.processing(),
	}, nil
}

// RetryFailed puts every permanently failed entry back in line with a
// fresh retry budget and reports how many were reset.
func (v *View) RetryFailed(ctx context.Context) (int64, error) {
	return v.repo.ResetFailed(ctx)
}

// ClearCompleted removes completed entries and reports how many.
func (v *View) ClearCompleted(ctx context.Context) (int64, error) {
	return v.repo.DeleteCompleted(ctx)
}

// DeleteEntry removes a single entry, deferring if it is mid-upload.
func (v *View) DeleteEntry(ctx context.Context, id string) error {
	return v.machine.Remove(ctx, id)
}
