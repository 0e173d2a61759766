package api

import (
	"context"

	"github.com/iudanet/mealsync/pkg/api"
)

//go:generate moq -out remote_mock.go . RemoteStore

// RemoteStore defines the interface to the authoritative backend:
// REST verbs plus a realtime changefeed. The backend's storage and query
// implementation is out of scope - the engine only calls these verbs.
type RemoteStore interface {
	// Upsert creates or replaces a record by primary key. Idempotent.
	// Returns the server's copy with the authoritative updated_at.
	Upsert(ctx context.Context, record *api.Record) (*api.Record, error)

	// Update applies a partial update: soft-delete and lock field writes.
	// Returns the server's copy after the patch.
	Update(ctx context.Context, entityType, id string, patch *api.Patch) (*api.Record, error)

	// Get reads a single record. Used by the lock protocol for
	// server-authoritative lock reads.
	Get(ctx context.Context, entityType, id string) (*api.Record, error)

	// SelectAll bulk-reads all non-deleted records of a type within a
	// household. Used by full sync.
	SelectAll(ctx context.Context, entityType, householdID string) ([]*api.Record, error)

	// Subscribe opens the realtime changefeed for a household.
	// The channel is closed when ctx is cancelled or the stream ends.
	// Delivery is at-least-once; handling must be idempotent.
	Subscribe(ctx context.Context, householdID string) (<-chan api.ChangeEvent, error)
}
