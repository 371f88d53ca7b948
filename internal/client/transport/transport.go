// Package transport ships queue entry payloads to remote storage. The
// sync core only depends on the Transport interface; request construction
// and authentication live entirely inside the implementations.
package transport

import (
	"context"
	"errors"
	"net"

	"github.com/akulikov/vaultsync/internal/client/models"
)

// ErrUnavailable marks network-classified failures: the upload may well
// succeed once connectivity returns, so the retry policy should get
// another shot at the entry.
var ErrUnavailable = errors.New("transport unavailable")

// Transport uploads a single entry. Implementations bound each attempt
// with their own timeout; a timeout is reported like any other failure.
type Transport interface {
	// Upload ships the entry's payload and metadata. Errors wrapped with
	// ErrUnavailable are network-classified.
	Upload(ctx context.Context, e *models.QueueEntry) error

	// Ping probes reachability of the remote end. Used by the
	// connectivity watcher, never for correctness.
	Ping(ctx context.Context) error
}

// IsNetworkError reports whether err looks like a connectivity problem
// rather than a permanent rejection.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
