// Package messenger carries queue events from the background worker to
// whatever foreground contexts are currently attached.
//
// Delivery is fire-and-forget and at-least-once at best: a slow consumer
// may miss messages and a re-published event may arrive twice. Consumers
// must key off ShareID and EntryID for idempotent handling, never off
// arrival count. ShareID is a correlation token, not a security boundary.
package messenger

import (
	"context"
	"sync"
	"time"

	"github.com/akulikov/vaultsync/internal/logging"
)

// Kind classifies a bus message.
type Kind string

const (
	// KindQueueUpdated reports a single entry changing state.
	KindQueueUpdated Kind = "queue_updated"

	// KindSyncSummary reports the aggregate outcome of one sync pass.
	KindSyncSummary Kind = "sync_summary"

	// KindIngestError reports a shared file rejected during ingestion.
	KindIngestError Kind = "ingest_error"

	// KindStoreCorrupt reports unrecoverable store trouble. Not retried;
	// requires manual intervention.
	KindStoreCorrupt Kind = "store_corrupt"
)

// Summary aggregates one sync pass.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Message is one event fanned out to foreground contexts.
type Message struct {
	Kind    Kind
	ShareID string
	EntryID string
	Summary *Summary
	Error   string
	SentAt  time.Time
}

const subscriberBuffer = 32

// Bus fans messages out to attached foreground contexts. The worker and
// the foregrounds share no other state; everything crosses here.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Message
	next int
	log  logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan Message),
		log:  log.With("component", "messenger"),
	}
}

// Attach registers a foreground context and returns its subscription id
// and receive channel.
func (b *Bus) Attach() (int, <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Message, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

// Detach removes a subscription and closes its channel.
func (b *Bus) Detach(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// AttachedCount reports how many foreground contexts are listening.
func (b *Bus) AttachedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers msg to every attached context without blocking the
// worker. A subscriber with a full buffer loses the message; that is the
// accepted delivery contract.
func (b *Bus) Publish(msg Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.log.Warn(context.Background(), "dropping message for slow subscriber",
				"subscriber", id, "kind", string(msg.Kind))
		}
	}
}
