package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akulikov/vaultsync/internal/client/models"
	"github.com/akulikov/vaultsync/internal/common"
	"github.com/akulikov/vaultsync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.QueueEntry) error {

	query := `INSERT INTO queue_entries
			(id, name, mime_type, size_bytes, enqueued_at, payload, state, retry_count, last_error, delete_requested)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Metadata.Name, e.Metadata.MimeType, e.Metadata.SizeBytes, e.Metadata.EnqueuedAt,
		e.Payload, string(e.State), e.RetryCount, e.LastError, e.DeleteRequested)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {

	query := `SELECT id, name, mime_type, size_bytes, enqueued_at, payload, state, retry_count, last_error, delete_requested
			FROM queue_entries WHERE id=?`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) ListByState(ctx context.Context, st models.EntryState) ([]*models.QueueEntry, error) {

	query := `SELECT id, name, mime_type, size_bytes, enqueued_at, payload, state, retry_count, last_error, delete_requested
			FROM queue_entries WHERE state=? ORDER BY enqueued_at, id`

	rows, err := r.db.QueryContext(ctx, query, string(st))
	if err != nil {
		return nil, fmt.Errorf("error selecting entries: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueEntry

	for rows.Next() {
		item, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning entry: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) ListSummaries(ctx context.Context, st models.EntryState) ([]models.EntrySummary, error) {

	query := `SELECT id, name, mime_type, size_bytes, enqueued_at, retry_count, last_error
			FROM queue_entries WHERE state=? ORDER BY enqueued_at, id`

	rows, err := r.db.QueryContext(ctx, query, string(st))
	if err != nil {
		return nil, fmt.Errorf("error selecting summaries: %w", err)
	}
	defer rows.Close()

	var result []models.EntrySummary

	for rows.Next() {
		var s models.EntrySummary
		err := rows.Scan(&s.ID, &s.Name, &s.MimeType, &s.SizeBytes, &s.EnqueuedAt, &s.RetryCount, &s.LastError)
		if err != nil {
			return nil, fmt.Errorf("error scanning summary: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) MarkUploading(ctx context.Context, id string) (bool, error) {

	query := `UPDATE queue_entries SET state=? WHERE id=? AND state=?`
	return r.exec1(ctx, r.db, query, string(models.StateUploading), id, string(models.StatePending))
}

func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id string) (ok bool, err error) {

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `UPDATE queue_entries SET state=?, last_error='' WHERE id=? AND state=?`
		ok, err = r.exec1(ctx, tx, query, string(models.StateCompleted), id, string(models.StateUploading))
		if err != nil || !ok {
			return err
		}
		return r.reapIfRequested(ctx, tx, id)
	})
	return ok, err
}

func (r *SQLiteRepository) MarkRetry(ctx context.Context, id string, reason string) (bool, error) {

	query := `UPDATE queue_entries SET state=?, retry_count=retry_count+1, last_error=? WHERE id=? AND state=?`
	return r.exec1(ctx, r.db, query, string(models.StatePending), reason, id, string(models.StateUploading))
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, reason string) (ok bool, err error) {

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `UPDATE queue_entries SET state=?, last_error=? WHERE id=? AND state=?`
		ok, err = r.exec1(ctx, tx, query, string(models.StateFailed), reason, id, string(models.StateUploading))
		if err != nil || !ok {
			return err
		}
		return r.reapIfRequested(ctx, tx, id)
	})
	return ok, err
}

func (r *SQLiteRepository) RequestDelete(ctx context.Context, id string) error {

	query := `UPDATE queue_entries SET delete_requested=1 WHERE id=?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to request delete: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {

	query := `DELETE FROM queue_entries WHERE id=?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func (r *SQLiteRepository) ResetStuck(ctx context.Context) (int64, error) {

	query := `UPDATE queue_entries SET state=? WHERE state=?`
	result, err := r.db.ExecContext(ctx, query, string(models.StatePending), string(models.StateUploading))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) ResetFailed(ctx context.Context) (int64, error) {

	query := `UPDATE queue_entries SET state=?, retry_count=0, last_error='' WHERE state=?`
	result, err := r.db.ExecContext(ctx, query, string(models.StatePending), string(models.StateFailed))
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) DeleteCompleted(ctx context.Context) (int64, error) {

	query := `DELETE FROM queue_entries WHERE state=?`
	result, err := r.db.ExecContext(ctx, query, string(models.StateCompleted))
	if err != nil {
		return 0, fmt.Errorf("failed to clear completed entries: %w", err)
	}
	return result.RowsAffected()
}

// exec1 runs an update expected to touch at most one row and reports
// whether it did.
func (r *SQLiteRepository) exec1(ctx context.Context, db dbx.DBTX, query string, args ...any) (bool, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// reapIfRequested removes the entry if a delete was requested while its
// upload attempt was in flight.
func (r *SQLiteRepository) reapIfRequested(ctx context.Context, db dbx.DBTX, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM queue_entries WHERE id=? AND delete_requested=1`, id)
	if err != nil {
		return fmt.Errorf("failed to reap entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.QueueEntry, error) {
	e := &models.QueueEntry{}
	var state string
	err := row.Scan(&e.ID, &e.Metadata.Name, &e.Metadata.MimeType, &e.Metadata.SizeBytes, &e.Metadata.EnqueuedAt,
		&e.Payload, &state, &e.RetryCount, &e.LastError, &e.DeleteRequested)
	if err != nil {
		return nil, err
	}
	e.State = models.EntryState(state)
	return e, nil
}
