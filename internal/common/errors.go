// Package common defines shared constants and sentinel errors used across
// vaultsync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStoreCorrupt marks durable-store failures that will not be fixed
	// by retrying (unreadable rows, schema drift). Surfaced to the user,
	// never fed back into the retry loop.
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrInvalidTransition signals that a state-machine method was called
	// from a state that cannot accept it. Non-fatal; the entry is left
	// unchanged.
	ErrInvalidTransition = errors.New("invalid state transition")
)
