package storage

import (
	"context"
	"time"
)

// MetadataStorage defines interface for storing client metadata scalars
type MetadataStorage interface {
	// SaveLastSync saves the time of the last successful full sync
	// for a household scope
	SaveLastSync(ctx context.Context, householdID string, ts time.Time) error

	// GetLastSync retrieves the time of the last successful full sync.
	// Returns the zero time if no full sync has been performed yet.
	GetLastSync(ctx context.Context, householdID string) (time.Time, error)
}
