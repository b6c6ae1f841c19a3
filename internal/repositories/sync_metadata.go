package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/kopisync/internal/models"
)

// DefaultWatermark is used when a sync domain has never completed a run.
var DefaultWatermark = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// StatusUpdate carries the fields written by [SyncMetadataRepository.WriteStatus].
// Nil fields are left untouched on an existing row and default on a new one.
type StatusUpdate struct {
	Status    models.SyncStatus
	Watermark *time.Time
	Added     *int
	Updated   *int
}

// SyncMetadataRepository persists the per-domain watermark, counters and run status.
//
// last_sync_timestamp and the stale-lock cutoff are both bound from the process clock in UTC.
type SyncMetadataRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSyncMetadataRepository creates a new SyncMetadataRepository with the given database connection
func NewSyncMetadataRepository(db *sql.DB) *SyncMetadataRepository {
	return &SyncMetadataRepository{db: db, now: time.Now}
}

// ReadWatermark returns the last successful sync date, or [DefaultWatermark] when none is stored.
func (r *SyncMetadataRepository) ReadWatermark(ctx context.Context, syncType models.SyncType) (time.Time, error) {
	var date *time.Time
	err := r.db.QueryRowContext(ctx, `SELECT last_sync_date FROM sync_metadata WHERE sync_type = ?`, string(syncType)).Scan(&date)
	switch {
	case err == sql.ErrNoRows:
		return DefaultWatermark, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	case date == nil:
		return DefaultWatermark, nil
	}
	return *date, nil
}

// WriteStatus updates the supplied fields of the row for syncType, creating the row when it
// does not exist yet. last_sync_timestamp is always refreshed.
func (r *SyncMetadataRepository) WriteStatus(ctx context.Context, syncType models.SyncType, u StatusUpdate) error {
	exists, err := r.exists(ctx, syncType)
	if err != nil {
		return err
	}

	if !exists {
		return r.insert(ctx, syncType, u)
	}

	sets := []string{"status = ?"}
	args := []any{string(u.Status)}
	if u.Watermark != nil {
		sets = append(sets, "last_sync_date = ?")
		args = append(args, dateArg(u.Watermark))
	}
	if u.Added != nil {
		sets = append(sets, "items_added = ?")
		args = append(args, *u.Added)
	}
	if u.Updated != nil {
		sets = append(sets, "items_updated = ?")
		args = append(args, *u.Updated)
	}
	sets = append(sets, "last_sync_timestamp = ?")
	args = append(args, r.stamp(0), string(syncType))

	query := `UPDATE sync_metadata SET ` + strings.Join(sets, ", ") + ` WHERE sync_type = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sync metadata: %w", err)
	}
	return nil
}

func (r *SyncMetadataRepository) insert(ctx context.Context, syncType models.SyncType, u StatusUpdate) error {
	var added, updated int
	if u.Added != nil {
		added = *u.Added
	}
	if u.Updated != nil {
		updated = *u.Updated
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (sync_type, status, last_sync_date, items_added, items_updated, last_sync_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(syncType), string(u.Status), dateArg(u.Watermark), added, updated, r.stamp(0))
	if err != nil {
		return fmt.Errorf("failed to insert sync metadata: %w", err)
	}
	return nil
}

// stamp formats the UTC time ago before now as a DATETIME literal.
func (r *SyncMetadataRepository) stamp(ago time.Duration) string {
	return r.now().Add(-ago).UTC().Format(time.DateTime)
}

func (r *SyncMetadataRepository) exists(ctx context.Context, syncType models.SyncType) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sync_metadata WHERE sync_type = ?)`, string(syncType),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sync metadata: %w", err)
	}
	return exists, nil
}

// TryAcquire atomically moves syncType to in_progress.
//
// It fails to acquire only when another run holds the row and its last_sync_timestamp is newer than
// staleAfter. A non-positive staleAfter never treats a held row as stale. The row is created when
// absent; losing the insert race to another process reports not acquired.
func (r *SyncMetadataRepository) TryAcquire(ctx context.Context, syncType models.SyncType, staleAfter time.Duration) (bool, error) {
	cutoff := "0001-01-01 00:00:00"
	if staleAfter > 0 {
		cutoff = r.stamp(staleAfter)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_metadata
		SET status = ?, last_sync_timestamp = ?
		WHERE sync_type = ? AND (status <> ? OR last_sync_timestamp < ?)
	`, string(models.StatusInProgress), r.stamp(0), string(syncType), string(models.StatusInProgress), cutoff)
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	exists, err := r.exists(ctx, syncType)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := r.insert(ctx, syncType, StatusUpdate{Status: models.StatusInProgress}); err != nil {
		if exists, checkErr := r.exists(ctx, syncType); checkErr == nil && exists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get returns the row for syncType.
func (r *SyncMetadataRepository) Get(ctx context.Context, syncType models.SyncType) (*models.SyncMetadata, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT sync_type, status, last_sync_date, items_added, items_updated, last_sync_timestamp
		FROM sync_metadata
		WHERE sync_type = ?
	`, string(syncType)), syncType)
}

// List returns every sync_metadata row ordered by sync type.
func (r *SyncMetadataRepository) List(ctx context.Context) ([]models.SyncMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sync_type, status, last_sync_date, items_added, items_updated, last_sync_timestamp
		FROM sync_metadata
		ORDER BY sync_type ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync metadata: %w", err)
	}
	defer rows.Close()

	var all []models.SyncMetadata
	for rows.Next() {
		m, err := r.scan(rows, "row")
		if err != nil {
			return nil, err
		}
		all = append(all, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return all, nil
}

func (r *SyncMetadataRepository) scan(row scanner, key any) (*models.SyncMetadata, error) {
	var m models.SyncMetadata
	err := row.Scan(&m.SyncType, &m.Status, &m.LastSyncDate, &m.ItemsAdded, &m.ItemsUpdated, &m.LastSyncTimestamp)
	if err != nil {
		return nil, notFound(err, "sync metadata", key)
	}
	return &m, nil
}
