package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/akulikov/vaultsync/internal/client/config"
	"github.com/akulikov/vaultsync/internal/client/messenger"
	"github.com/akulikov/vaultsync/internal/client/queue"
	"github.com/akulikov/vaultsync/internal/client/repositories/uploads"
	syncpkg "github.com/akulikov/vaultsync/internal/client/sync"
	"github.com/akulikov/vaultsync/internal/client/transport"
	"github.com/akulikov/vaultsync/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the queue store, the background sync worker, and the REPL
// together. The REPL is one foreground context among possibly many; it
// observes the worker only through the bus.
type App struct {
	config      *config.Config
	db          *sql.DB
	view        *queue.View
	machine     *queue.Machine
	ingestor    *syncpkg.Ingestor
	coordinator *syncpkg.Coordinator
	watcher     *syncpkg.Watcher
	bus         *messenger.Bus
	log         logging.Logger
	reader      *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {

	db, err := uploads.Open(ctx, c.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("opening queue store: %w", err)
	}

	repo := uploads.NewSQLiteRepository(db)
	machine := queue.NewMachine(repo, log, queue.Limits{
		MaxPayloadBytes:  c.MaxPayloadBytes,
		AllowedMimeTypes: c.AllowedMimeTypes,
	}, c.MaxRetries)
	bus := messenger.NewBus(log)

	tr, err := transport.NewS3Transport(ctx, transport.S3Config{
		Endpoint:      c.S3Endpoint,
		Bucket:        c.S3Bucket,
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		UploadTimeout: c.UploadTimeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("building transport: %w", err)
	}

	coordinator := syncpkg.NewCoordinator(machine, repo, tr, bus, log)
	watcher := syncpkg.NewWatcher(tr, coordinator, c.OnlineCheckInterval, log)
	view := queue.NewView(repo, machine, coordinator.Processing)
	ingestor := syncpkg.NewIngestor(machine, bus, log)

	return &App{
		config:      c,
		db:          db,
		view:        view,
		machine:     machine,
		ingestor:    ingestor,
		coordinator: coordinator,
		watcher:     watcher,
		bus:         bus,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

// Run attaches the REPL as a foreground context, starts the worker, and
// blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subID, events := a.bus.Attach()
	defer a.bus.Detach(subID)

	go a.listen(ctx, events)
	go func() {
		_ = a.watcher.Run(ctx)
	}()

	a.Root(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// listen prints worker events as they arrive so the user sees progress
// without polling.
func (a *App) listen(ctx context.Context, events <-chan messenger.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			switch msg.Kind {
			case messenger.KindSyncSummary:
				if msg.Summary != nil && msg.Summary.Total > 0 {
					fmt.Printf("\nsync finished: %d uploaded, %d failed of %d\n",
						msg.Summary.Succeeded, msg.Summary.Failed, msg.Summary.Total)
				}
			case messenger.KindIngestError:
				fmt.Printf("\nshared file rejected: %s\n", msg.Error)
			case messenger.KindStoreCorrupt:
				fmt.Printf("\nqueue store is unusable: %s\n", msg.Error)
			}
		}
	}
}
