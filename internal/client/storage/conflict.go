package storage

import (
	"context"

	"github.com/iudanet/mealsync/internal/models"
)

// ConflictStorage defines interface for unresolved conflict records.
// Keyed by entity ID: saving a conflict for an entity that already has
// one replaces it, never duplicates.
type ConflictStorage interface {
	// SaveConflict stores or replaces the conflict for an entity
	SaveConflict(ctx context.Context, conflict *models.ConflictRecord) error

	// GetConflict retrieves the conflict for an entity
	// Returns ErrConflictNotFound if none exists
	GetConflict(ctx context.Context, entityID string) (*models.ConflictRecord, error)

	// DeleteConflict removes the conflict for an entity
	DeleteConflict(ctx context.Context, entityID string) error

	// ListConflicts returns all unresolved conflicts ordered by DetectedAt
	ListConflicts(ctx context.Context) ([]*models.ConflictRecord, error)

	// CountConflicts returns the number of unresolved conflicts
	CountConflicts(ctx context.Context) (int, error)
}
