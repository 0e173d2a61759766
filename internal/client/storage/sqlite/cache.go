package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
)

const cacheColumns = `id, household_id, entity_type, parent_id, payload,
       sync_status, local_updated_at, server_updated_at, deleted_at,
       updated_by, locked_by, locked_at, revision`

// SaveRecord stores or updates a cache record.
// The revision token is bumped by the storage on every update, so a
// concurrent MarkSynced with a stale revision becomes a no-op.
func (s *Storage) SaveRecord(ctx context.Context, record *models.CacheRecord) error {
	query := `
		INSERT INTO cache_records (
			id, household_id, entity_type, parent_id, payload,
			sync_status, local_updated_at, server_updated_at, deleted_at,
			updated_by, locked_by, locked_at, revision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			household_id = excluded.household_id,
			entity_type = excluded.entity_type,
			parent_id = excluded.parent_id,
			payload = excluded.payload,
			sync_status = excluded.sync_status,
			local_updated_at = excluded.local_updated_at,
			server_updated_at = excluded.server_updated_at,
			deleted_at = excluded.deleted_at,
			updated_by = excluded.updated_by,
			locked_by = excluded.locked_by,
			locked_at = excluded.locked_at,
			revision = cache_records.revision + 1
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.HouseholdID,
		record.EntityType,
		record.ParentID,
		[]byte(record.Payload),
		string(record.SyncStatus),
		record.LocalUpdatedAt.Unix(),
		nullTime(record.ServerUpdatedAt),
		nullTime(record.DeletedAt),
		record.UpdatedBy,
		nullString(record.LockedBy),
		nullTime(record.LockedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// GetRecord retrieves a record by ID (tombstones included)
func (s *Storage) GetRecord(ctx context.Context, id string) (*models.CacheRecord, error) {
	query := `SELECT ` + cacheColumns + ` FROM cache_records WHERE id = ?`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return record, nil
}

// DeleteRecord marks record as deleted (tombstone, status pending)
func (s *Storage) DeleteRecord(ctx context.Context, id string, deletedAt time.Time, deviceID string) error {
	query := `
		UPDATE cache_records
		SET deleted_at = ?, sync_status = ?, local_updated_at = ?,
		    updated_by = ?, revision = revision + 1
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		deletedAt.Unix(),
		string(models.StatusPending),
		deletedAt.Unix(),
		deviceID,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// QueryByParent returns all non-deleted records with the given parent
func (s *Storage) QueryByParent(ctx context.Context, parentID string) ([]*models.CacheRecord, error) {
	query := `SELECT ` + cacheColumns + `
		FROM cache_records
		WHERE parent_id = ? AND deleted_at IS NULL
		ORDER BY local_updated_at`

	return s.queryRecords(ctx, query, parentID)
}

// ListByType returns all non-deleted records of a type within a household
func (s *Storage) ListByType(ctx context.Context, householdID, entityType string) ([]*models.CacheRecord, error) {
	query := `SELECT ` + cacheColumns + `
		FROM cache_records
		WHERE household_id = ? AND entity_type = ? AND deleted_at IS NULL
		ORDER BY local_updated_at`

	return s.queryRecords(ctx, query, householdID, entityType)
}

// ListPending returns all records with sync status pending
func (s *Storage) ListPending(ctx context.Context) ([]*models.CacheRecord, error) {
	query := `SELECT ` + cacheColumns + `
		FROM cache_records
		WHERE sync_status = ?
		ORDER BY local_updated_at`

	return s.queryRecords(ctx, query, string(models.StatusPending))
}

// MarkSynced flips a record to synced with a check-then-set on revision.
// A record re-mutated since the revision was read keeps its pending
// status; a repeated call with the same arguments is a no-op.
func (s *Storage) MarkSynced(ctx context.Context, id string, revision int64, serverUpdatedAt time.Time) error {
	query := `
		UPDATE cache_records
		SET sync_status = ?, server_updated_at = ?
		WHERE id = ? AND revision = ? AND sync_status != ?
	`

	_, err := s.db.ExecContext(ctx, query,
		string(models.StatusSynced),
		serverUpdatedAt.Unix(),
		id,
		revision,
		string(models.StatusConflict),
	)
	if err != nil {
		return fmt.Errorf("failed to mark record synced: %w", err)
	}

	return nil
}

// MarkConflict flips a record to conflict status
func (s *Storage) MarkConflict(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cache_records SET sync_status = ? WHERE id = ?`,
		string(models.StatusConflict), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark record conflict: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// SetLockFields writes the replicated lock fields without touching sync
// status or the revision token
func (s *Storage) SetLockFields(ctx context.Context, id string, lockedBy *string, lockedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cache_records SET locked_by = ?, locked_at = ? WHERE id = ?`,
		nullString(lockedBy), nullTime(lockedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set lock fields: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// ReplaceAll atomically replaces the synced records of a household with
// the server snapshot. Rows holding unsent local changes (pending or
// conflict) survive the refresh and the server's copy for them is
// ignored - those rows rejoin the synced set through the push and
// conflict paths. Runs in one transaction: on any error the prior
// state is kept.
func (s *Storage) ReplaceAll(ctx context.Context, householdID string, records []*models.CacheRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cache_records WHERE household_id = ? AND sync_status = ?`,
		householdID, string(models.StatusSynced),
	); err != nil {
		return fmt.Errorf("failed to clear household records: %w", err)
	}

	insert := `
		INSERT INTO cache_records (
			id, household_id, entity_type, parent_id, payload,
			sync_status, local_updated_at, server_updated_at, deleted_at,
			updated_by, locked_by, locked_at, revision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`

	for _, record := range records {
		if _, err := tx.ExecContext(ctx, insert,
			record.ID,
			record.HouseholdID,
			record.EntityType,
			record.ParentID,
			[]byte(record.Payload),
			string(record.SyncStatus),
			record.LocalUpdatedAt.Unix(),
			nullTime(record.ServerUpdatedAt),
			nullTime(record.DeletedAt),
			record.UpdatedBy,
			nullString(record.LockedBy),
			nullTime(record.LockedAt),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	return nil
}

// Clear removes all records from storage
func (s *Storage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// queryRecords выполняет запрос и сканирует все строки в CacheRecord
func (s *Storage) queryRecords(ctx context.Context, query string, args ...any) ([]*models.CacheRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*models.CacheRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return records, nil
}

// scanner объединяет sql.Row и sql.Rows для общего сканирования
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord сканирует одну строку cache_records в CacheRecord
func scanRecord(row scanner) (*models.CacheRecord, error) {
	record := &models.CacheRecord{}

	var (
		payload         []byte
		syncStatus      string
		localUpdatedAt  int64
		serverUpdatedAt sql.NullInt64
		deletedAt       sql.NullInt64
		lockedBy        sql.NullString
		lockedAt        sql.NullInt64
	)

	if err := row.Scan(
		&record.ID,
		&record.HouseholdID,
		&record.EntityType,
		&record.ParentID,
		&payload,
		&syncStatus,
		&localUpdatedAt,
		&serverUpdatedAt,
		&deletedAt,
		&record.UpdatedBy,
		&lockedBy,
		&lockedAt,
		&record.Revision,
	); err != nil {
		return nil, err
	}

	record.Payload = payload
	record.SyncStatus = models.SyncStatus(syncStatus)
	record.LocalUpdatedAt = time.Unix(localUpdatedAt, 0).UTC()
	record.ServerUpdatedAt = timePtr(serverUpdatedAt)
	record.DeletedAt = timePtr(deletedAt)
	record.LockedAt = timePtr(lockedAt)
	if lockedBy.Valid {
		record.LockedBy = &lockedBy.String
	}

	return record, nil
}

// nullTime конвертирует *time.Time в nullable unix timestamp
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// nullString конвертирует *string в nullable значение
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// timePtr конвертирует nullable unix timestamp в *time.Time
func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
