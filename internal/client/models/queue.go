// Package models defines client-side data models used by the vaultsync
// sync subsystem.
package models

import "time"

// EntryState is the lifecycle state of a queued upload.
//
// Allowed transitions:
//
//	pending → uploading → completed            (terminal success)
//	pending → uploading → failed → pending     (retry loop)
//	pending → uploading → failed               (terminal, retries exhausted)
type EntryState string

const (
	StatePending   EntryState = "pending"
	StateUploading EntryState = "uploading"
	StateCompleted EntryState = "completed"
	StateFailed    EntryState = "failed"
)

// FileMetadata describes an enqueued payload. Immutable after creation.
type FileMetadata struct {
	Name       string
	MimeType   string
	SizeBytes  int64
	EnqueuedAt time.Time
}

// QueueEntry is one unit of upload work persisted in the local store.
//
// State and RetryCount are written exclusively by the state machine and
// retry policy; producers and readers must treat them as read-only. An
// entry leaves the store only through explicit deletion or completed-entry
// cleanup, never silently.
type QueueEntry struct {
	// ID is assigned at enqueue time and never changes.
	ID string

	Metadata FileMetadata

	// Payload is the (already sealed) attachment content. Owned by the
	// entry; callers must not retain the slice after enqueueing.
	Payload []byte

	State EntryState

	// RetryCount is the number of failed attempts so far.
	RetryCount int

	// LastError holds the most recent failure reason. Kept as a diagnostic
	// while the entry is retried; cleared on the transition out of failed.
	LastError string

	// DeleteRequested marks an entry whose removal was requested while an
	// upload attempt was in flight. Honored once the attempt resolves.
	DeleteRequested bool
}
