package sync

import (
	"context"
	"time"

	"github.com/akulikov/vaultsync/internal/client/transport"
	"github.com/akulikov/vaultsync/internal/logging"
)

// Watcher probes the remote end on an interval and fires a sync pass on
// the offline-to-online edge. Staying online does not re-fire; a pass
// already drained the queue and new entries wait for the next edge or an
// explicit Notify.
type Watcher struct {
	transport   transport.Transport
	coordinator *Coordinator
	log         logging.Logger
	interval    time.Duration

	trigger chan struct{}
	online  bool
}

func NewWatcher(tr transport.Transport, coordinator *Coordinator, interval time.Duration, log logging.Logger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		transport:   tr,
		coordinator: coordinator,
		log:         log.With("component", "watcher"),
		interval:    interval,
		trigger:     make(chan struct{}, 1),
	}
}

// Notify requests a pass outside the probe schedule, for example right
// after a foreground enqueue while already online. Coalesces if a request
// is already queued.
func (w *Watcher) Notify() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. Each probe tick compares the new
// reachability against the previous one; passes run inline so a slow
// drain naturally delays the next probe.
func (w *Watcher) Run(ctx context.Context) error {

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.probe(ctx)
		case <-w.trigger:
			w.runPass(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {

	err := w.transport.Ping(ctx)
	nowOnline := err == nil

	wasOnline := w.online
	w.online = nowOnline

	switch {
	case nowOnline && !wasOnline:
		w.log.Info(ctx, "connectivity restored")
		w.runPass(ctx)
	case !nowOnline && wasOnline:
		w.log.Info(ctx, "connectivity lost", "err", err)
	}
}

func (w *Watcher) runPass(ctx context.Context) {
	if _, err := w.coordinator.RunPass(ctx); err != nil && ctx.Err() == nil {
		w.log.Error(ctx, "sync pass failed", "err", err)
	}
}
