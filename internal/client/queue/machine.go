// Package queue implements the upload queue lifecycle: enqueue validation,
// the per-entry state machine, the retry policy, and the foreground read
// model.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/client/repositories/uploads"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/akulikov/vaultsync/internal/logging"
	"github.com/google/uuid"
)

// ValidationError reports a payload rejected at enqueue time. The store is
// never touched for a rejected payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Limits bounds what enqueue accepts.
type Limits struct {
	// MaxPayloadBytes is the largest accepted payload size.
	MaxPayloadBytes int64

	// AllowedMimeTypes lists acceptable MIME types. Empty means any.
	AllowedMimeTypes []string
}

// Machine owns every state and retry-count mutation of queue entries.
// All transitions go through the repository with compare-and-swap
// semantics, so a call made from the wrong state leaves the row unchanged.
type Machine struct {
	repo       uploads.Repository
	log        logging.Logger
	limits     Limits
	maxRetries int
	allowed    map[string]struct{}
}

func NewMachine(repo uploads.Repository, log logging.Logger, limits Limits, maxRetries int) *Machine {
	m := &Machine{
		repo:       repo,
		log:        log.With("component", "queue"),
		limits:     limits,
		maxRetries: maxRetries,
	}
	if len(limits.AllowedMimeTypes) > 0 {
		m.allowed = make(map[string]struct{}, len(limits.AllowedMimeTypes))
		for _, mt := range limits.AllowedMimeTypes {
			m.allowed[mt] = struct{}{}
		}
	}
	return m
}

// MaxRetries returns the retry cutoff this machine applies.
func (m *Machine) MaxRetries() int { return m.maxRetries }

// Enqueue validates the payload and creates a new pending entry.
func (m *Machine) Enqueue(ctx context.Context, payload []byte, meta models.FileMetadata) (string, error) {

	if err := m.validate(payload, meta); err != nil {
		return "", err
	}

	if meta.EnqueuedAt.IsZero() {
		meta.EnqueuedAt = time.Now().UTC()
	}
	meta.SizeBytes = int64(len(payload))

	e := &models.QueueEntry{
		ID:       uuid.NewString(),
		Metadata: meta,
		Payload:  payload,
		State:    models.StatePending,
	}

	if err := m.repo.Insert(ctx, e); err != nil {
		return "", fmt.Errorf("enqueueing entry: %w", err)
	}

	m.log.Info(ctx, "entry enqueued", "id", e.ID, "name", meta.Name, "size", meta.SizeBytes)
	return e.ID, nil
}

// BeginUpload transitions pending → uploading. Any other source state is a
// logged no-op signalled as ErrInvalidTransition.
func (m *Machine) BeginUpload(ctx context.Context, id string) error {

	ok, err := m.repo.MarkUploading(ctx, id)
	if err != nil {
		return fmt.Errorf("beginning upload: %w", err)
	}
	if !ok {
		m.log.Warn(ctx, "begin upload ignored", "id", id, "err", common.ErrInvalidTransition)
		return common.ErrInvalidTransition
	}
	return nil
}

// RecordSuccess transitions uploading → completed and clears the last
// error. Calling it on an already-completed entry is a no-op signalled as
// ErrInvalidTransition, never a duplicate completion.
func (m *Machine) RecordSuccess(ctx context.Context, id string) error {

	ok, err := m.repo.MarkCompleted(ctx, id)
	if err != nil {
		return fmt.Errorf("recording success: %w", err)
	}
	if !ok {
		m.log.Warn(ctx, "record success ignored", "id", id, "err", common.ErrInvalidTransition)
		return common.ErrInvalidTransition
	}
	return nil
}

// RecordFailure applies the retry policy to a failed upload attempt:
// either back to pending with an incremented retry count, or terminally
// failed once the budget is exhausted.
func (m *Machine) RecordFailure(ctx context.Context, id string, reason string) error {

	e, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	if e.State != models.StateUploading {
		m.log.Warn(ctx, "record failure ignored", "id", id, "state", string(e.State), "err", common.ErrInvalidTransition)
		return common.ErrInvalidTransition
	}

	var ok bool
	switch Decide(e.RetryCount, m.maxRetries) {
	case DecisionRetry:
		ok, err = m.repo.MarkRetry(ctx, id, reason)
		if err == nil && ok {
			m.log.Info(ctx, "entry scheduled for retry", "id", id, "attempt", e.RetryCount+1, "reason", reason)
		}
	case DecisionGiveUp:
		ok, err = m.repo.MarkFailed(ctx, id, common.MaxRetriesExceededReason)
		if err == nil && ok {
			m.log.Warn(ctx, "entry failed permanently", "id", id, "reason", reason)
		}
	}
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	if !ok {
		// raced with another transition; the CAS left the row alone
		m.log.Warn(ctx, "record failure ignored", "id", id, "err", common.ErrInvalidTransition)
		return common.ErrInvalidTransition
	}
	return nil
}

// Remove deletes an entry. If an upload attempt is in flight the removal
// is deferred until the attempt resolves.
func (m *Machine) Remove(ctx context.Context, id string) error {

	e, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}

	if e.State == models.StateUploading {
		if err := m.repo.RequestDelete(ctx, id); err != nil {
			return fmt.Errorf("removing entry: %w", err)
		}
		m.log.Info(ctx, "removal deferred until upload resolves", "id", id)
		return nil
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	m.log.Info(ctx, "entry removed", "id", id)
	return nil
}

func (m *Machine) validate(payload []byte, meta models.FileMetadata) error {
	if int64(len(payload)) > m.limits.MaxPayloadBytes {
		return &ValidationError{Reason: fmt.Sprintf("payload size %d exceeds limit %d", len(payload), m.limits.MaxPayloadBytes)}
	}
	if m.allowed != nil {
		if _, ok := m.allowed[meta.MimeType]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("mime type %q is not allowed", meta.MimeType)}
		}
	}
	return nil
}
