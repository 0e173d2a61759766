package storage

import (
	"context"
	"time"

	"github.com/iudanet/mealsync/internal/models"
)

// CacheStorage defines interface for the device-local entity cache.
// This is a pure key/value layer: no retries, no network, no merge logic.
// Failure handling lives in the services above it.
type CacheStorage interface {
	// SaveRecord stores or updates a cache record.
	// The revision token is managed by the storage itself: every save
	// bumps it, so callers must re-read before a check-then-set.
	SaveRecord(ctx context.Context, record *models.CacheRecord) error

	// GetRecord retrieves a record by ID (tombstones included)
	// Returns ErrRecordNotFound if record doesn't exist
	GetRecord(ctx context.Context, id string) (*models.CacheRecord, error)

	// DeleteRecord marks record as deleted (tombstone, status pending)
	// Returns ErrRecordNotFound if record doesn't exist
	DeleteRecord(ctx context.Context, id string, deletedAt time.Time, deviceID string) error

	// QueryByParent returns all non-deleted records with the given parent
	QueryByParent(ctx context.Context, parentID string) ([]*models.CacheRecord, error)

	// ListByType returns all non-deleted records of a type within a household
	ListByType(ctx context.Context, householdID, entityType string) ([]*models.CacheRecord, error)

	// ListPending returns all records with sync status pending
	ListPending(ctx context.Context) ([]*models.CacheRecord, error)

	// MarkSynced flips a record to synced and stores the confirmed server
	// timestamp. Check-then-set on the revision token: a record re-mutated
	// since revision was read is left untouched. Idempotent.
	MarkSynced(ctx context.Context, id string, revision int64, serverUpdatedAt time.Time) error

	// MarkConflict flips a record to conflict status
	MarkConflict(ctx context.Context, id string) error

	// SetLockFields writes the replicated lock fields without touching
	// sync status or the revision token (lock writes are not queued)
	SetLockFields(ctx context.Context, id string, lockedBy *string, lockedAt *time.Time) error

	// ReplaceAll atomically replaces every record of a household with the
	// given set. Used by full sync; on error the prior state is kept.
	ReplaceAll(ctx context.Context, householdID string, records []*models.CacheRecord) error

	// Clear removes all records from storage
	Clear(ctx context.Context) error
}
