// Package sync drives the background drain of the upload queue: the
// coordinator runs one pass per connectivity-restoration trigger, the
// watcher produces those triggers, and the ingestor admits externally
// shared payloads into the queue.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/akulikov/vaultsync/internal/client/messenger"
	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/client/queue"
	"github.com/akulikov/vaultsync/internal/client/repositories/uploads"
	"github.com/akulikov/vaultsync/internal/client/transport"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/akulikov/vaultsync/internal/logging"
)

// Coordinator drains pending entries when connectivity returns. It lives
// in the detached worker context and talks to foregrounds only through
// the bus.
type Coordinator struct {
	machine   *queue.Machine
	repo      uploads.Repository
	transport transport.Transport
	bus       *messenger.Bus
	log       logging.Logger

	processing atomic.Bool
}

func NewCoordinator(machine *queue.Machine, repo uploads.Repository, tr transport.Transport, bus *messenger.Bus, log logging.Logger) *Coordinator {
	return &Coordinator{
		machine:   machine,
		repo:      repo,
		transport: tr,
		bus:       bus,
		log:       log.With("component", "sync"),
	}
}

// Processing reports whether a pass is currently running. Exposed to the
// read model's processing flag.
func (c *Coordinator) Processing() bool {
	return c.processing.Load()
}

// RunPass performs one complete drain of the currently pending entries.
//
// The pass refuses to run with zero attached foreground contexts: burning
// retries that nobody can observe helps no one. It also refuses to
// overlap itself; entries enqueued mid-pass wait for the next trigger.
//
// Per-entry upload failures never abort the pass. Store-level trouble is
// corruption-classified: the remainder of the pass is abandoned, the
// foregrounds are told, and nothing is retried automatically. Only
// context cancellation (the network-classified, externally retriable
// case) propagates as an error.
func (c *Coordinator) RunPass(ctx context.Context) (*messenger.Summary, error) {

	if c.bus.AttachedCount() == 0 {
		c.log.Info(ctx, "skipping sync pass: no foreground context attached")
		return nil, nil
	}

	if !c.processing.CompareAndSwap(false, true) {
		c.log.Info(ctx, "skipping sync pass: another pass is running")
		return nil, nil
	}
	defer c.processing.Store(false)

	// Sweep rule: entries left in uploading by an abandoned prior pass are
	// reset before this pass touches anything.
	reset, err := c.repo.ResetStuck(ctx)
	if err != nil {
		return nil, c.reportCorruption(ctx, fmt.Errorf("sweeping stuck entries: %w", err))
	}
	if reset > 0 {
		c.log.Warn(ctx, "reset entries abandoned mid-upload", "count", reset)
	}

	// Snapshot: concurrent enqueues are picked up by the next trigger.
	entries, err := c.repo.ListByState(ctx, models.StatePending)
	if err != nil {
		return nil, c.reportCorruption(ctx, fmt.Errorf("listing pending entries: %w", err))
	}

	summary := &messenger.Summary{Total: len(entries)}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := c.uploadOne(ctx, e, summary); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			return summary, c.reportCorruption(ctx, err)
		}
	}

	c.log.Info(ctx, "sync pass finished",
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	c.bus.Publish(messenger.Message{Kind: messenger.KindSyncSummary, Summary: summary})

	return summary, nil
}

// uploadOne attempts a single entry. The returned error is store trouble
// only; upload failures are absorbed into the retry policy.
func (c *Coordinator) uploadOne(ctx context.Context, e *models.QueueEntry, summary *messenger.Summary) error {

	if err := c.machine.BeginUpload(ctx, e.ID); err != nil {
		if errors.Is(err, common.ErrInvalidTransition) {
			// entry was deleted or already moved on; not this pass's problem
			return nil
		}
		return err
	}

	if uploadErr := c.transport.Upload(ctx, e); uploadErr != nil {
		summary.Failed++
		c.log.Warn(ctx, "upload attempt failed", "id", e.ID, "err", uploadErr)
		if err := c.machine.RecordFailure(ctx, e.ID, uploadErr.Error()); err != nil && !errors.Is(err, common.ErrInvalidTransition) {
			return err
		}
	} else {
		summary.Succeeded++
		if err := c.machine.RecordSuccess(ctx, e.ID); err != nil && !errors.Is(err, common.ErrInvalidTransition) {
			return err
		}
	}

	c.bus.Publish(messenger.Message{Kind: messenger.KindQueueUpdated, EntryID: e.ID})
	return nil
}

// reportCorruption surfaces store trouble to the foregrounds and swallows
// the error: retrying will not fix corrupted state, so the trigger must
// not be asked to run the pass again.
func (c *Coordinator) reportCorruption(ctx context.Context, err error) error {
	c.log.Error(ctx, "sync pass aborted: store unusable", "err", err)
	c.bus.Publish(messenger.Message{
		Kind:  messenger.KindStoreCorrupt,
		Error: fmt.Errorf("%w: %v", common.ErrStoreCorrupt, err).Error(),
	})
	return nil
}
