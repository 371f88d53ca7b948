package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/akulikov/vaultsync/internal/client/messenger"
	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/client/queue"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/akulikov/vaultsync/internal/logging"
)

// SharedFile is one attachment of an externally shared payload.
type SharedFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// SharePayload is what an external share hand-off delivers: free-form
// text fields plus zero or more files. ShareID correlates the resulting
// bus messages back to the share that produced them.
type SharePayload struct {
	ShareID string
	Title   string
	Text    string
	URL     string
	Files   []SharedFile
}

// Ingestor admits shared payloads into the upload queue. It runs in the
// short-lived share context, so it does no uploading itself; it only
// persists entries and lets the next sync pass pick them up.
type Ingestor struct {
	machine *queue.Machine
	bus     *messenger.Bus
	log     logging.Logger
}

func NewIngestor(machine *queue.Machine, bus *messenger.Bus, log logging.Logger) *Ingestor {
	return &Ingestor{
		machine: machine,
		bus:     bus,
		log:     log.With("component", "ingest"),
	}
}

// Ingest enqueues every file of the payload. Files are independent: a
// rejected file is reported over the bus and dropped, the rest still go
// in. Returns the ids of the entries actually enqueued.
//
// Store trouble aborts the whole share and is surfaced to the caller;
// a half-ingested share is visible in the queue as ordinary pending
// entries, which is harmless.
func (i *Ingestor) Ingest(ctx context.Context, p SharePayload) ([]string, error) {

	if len(p.Files) == 0 {
		return nil, &queue.ValidationError{Reason: "share contains no files"}
	}

	var ids []string
	for _, f := range p.Files {

		meta := models.FileMetadata{
			Name:     f.Name,
			MimeType: f.MimeType,
		}

		id, err := i.machine.Enqueue(ctx, f.Data, meta)
		if err != nil {
			var verr *queue.ValidationError
			if errors.As(err, &verr) {
				i.log.Warn(ctx, "shared file rejected", "share", p.ShareID, "name", f.Name, "reason", verr.Reason)
				i.bus.Publish(messenger.Message{
					Kind:    messenger.KindIngestError,
					ShareID: p.ShareID,
					Error:   verr.Reason,
				})
				continue
			}
			return ids, fmt.Errorf("%w: ingesting share %s: %v", common.ErrStoreCorrupt, p.ShareID, err)
		}

		ids = append(ids, id)
		i.bus.Publish(messenger.Message{
			Kind:    messenger.KindQueueUpdated,
			ShareID: p.ShareID,
			EntryID: id,
		})
	}

	i.log.Info(ctx, "share ingested", "share", p.ShareID, "accepted", len(ids), "rejected", len(p.Files)-len(ids))
	return ids, nil
}
