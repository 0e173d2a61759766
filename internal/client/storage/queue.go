package storage

import (
	"context"
	"time"

	"github.com/iudanet/mealsync/internal/models"
)

// QueueStorage defines interface for the durable mutation queue rows.
// Merge rules live in the queue service; this layer only persists.
type QueueStorage interface {
	// SaveOperation inserts or replaces a queued operation.
	// The entity_id column is unique: replacing an operation for the same
	// entity overwrites the previous row.
	SaveOperation(ctx context.Context, op *models.QueuedOperation) error

	// GetOperationByEntity retrieves the queued operation for an entity
	// Returns ErrOperationNotFound if none exists
	GetOperationByEntity(ctx context.Context, entityID string) (*models.QueuedOperation, error)

	// DeleteOperation removes an operation by its ID
	DeleteOperation(ctx context.Context, id string) error

	// DeleteOperationByEntity removes the operation for an entity, if any
	DeleteOperationByEntity(ctx context.Context, entityID string) error

	// ListOperations returns all operations ordered by CreatedAt (FIFO)
	ListOperations(ctx context.Context) ([]*models.QueuedOperation, error)

	// RecordAttempt increments retry count and stores the error and time
	// of the failed attempt
	RecordAttempt(ctx context.Context, id string, attemptAt time.Time, lastError string) error

	// ResetAttempts zeroes retry count and clears the stored error
	// Used for explicit user-driven retry of a failed operation
	ResetAttempts(ctx context.Context, id string) error
}
