package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/cryptox"
)

// Status prints the pending and failed entries.
func (a *App) Status(ctx context.Context) error {
	v, err := a.view.Snapshot(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	if len(v.Pending) == 0 && len(v.Failed) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	printGroup := func(label string, entries []models.EntrySummary) {
		if len(entries) == 0 {
			return
		}
		fmt.Printf("%s:\n", label)
		for _, e := range entries {
			line := fmt.Sprintf("  %s  %s  %d bytes  attempts=%d", e.ID, e.Name, e.SizeBytes, e.RetryCount)
			if e.LastError != "" {
				line += "  last error: " + e.LastError
			}
			fmt.Println(line)
		}
	}

	printGroup("Pending", v.Pending)
	printGroup("Failed", v.Failed)
	if v.Processing {
		fmt.Println("A sync pass is running")
	}
	return nil
}

// Add encrypts a local file with a passphrase and enqueues it.
func (a *App) Add(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	passphrase, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	sealed, err := cryptox.Seal(data, passphrase)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	id, err := a.machine.Enqueue(ctx, sealed, models.FileMetadata{
		Name:     filepath.Base(path),
		MimeType: mimeType,
	})
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("Enqueued %s as %s\n", filepath.Base(path), id)
	a.watcher.Notify()
	return nil
}

// Retry resets permanently failed entries for another run.
func (a *App) Retry(ctx context.Context) error {
	n, err := a.view.RetryFailed(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Printf("%d entries queued for retry\n", n)
	if n > 0 {
		a.watcher.Notify()
	}
	return nil
}

// Clear removes completed entries.
func (a *App) Clear(ctx context.Context) error {
	n, err := a.view.ClearCompleted(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Printf("%d completed entries removed\n", n)
	return nil
}

// Delete removes one entry by id.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.view.DeleteEntry(ctx, id); err != nil {
		fmt.Println(err.Error())
		return err
	}
	fmt.Println("Entry removed")
	return nil
}

// Sync requests a sync pass outside the probe schedule.
func (a *App) Sync(ctx context.Context) error {
	a.watcher.Notify()
	fmt.Println("Sync requested")
	return nil
}
