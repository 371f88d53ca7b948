package uploads

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akulikov/vaultsync/internal/client/migrations"
	"github.com/pressly/goose/v3"
)

// Open opens (or creates) the local queue store at dsn and brings the
// schema up to date. The store has no teardown: it lives for the entire
// install lifetime of the application.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// One connection keeps :memory: stores coherent and sidesteps
	// SQLITE_BUSY between the worker's writes and foreground reads. The
	// queue is small; serialized access is not a bottleneck.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
