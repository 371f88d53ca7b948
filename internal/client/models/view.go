package models

import "time"

// EntrySummary is the payload-free projection of a QueueEntry exposed to
// foreground contexts for display.
type EntrySummary struct {
	ID         string
	Name       string
	MimeType   string
	SizeBytes  int64
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}

// QueueView is the foreground read model of the upload queue.
type QueueView struct {
	Pending    []EntrySummary
	Failed     []EntrySummary
	Processing bool
}
