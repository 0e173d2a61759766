package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const keyLastSyncPrefix = "last_sync:"

// SaveLastSync saves the time of the last successful full sync
// for a household scope
func (s *Storage) SaveLastSync(ctx context.Context, householdID string, ts time.Time) error {
	query := `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	_, err := s.db.ExecContext(ctx, query,
		keyLastSyncPrefix+householdID,
		strconv.FormatInt(ts.Unix(), 10),
	)
	if err != nil {
		return fmt.Errorf("failed to save last sync: %w", err)
	}

	return nil
}

// GetLastSync retrieves the time of the last successful full sync.
// Returns the zero time if no full sync has been performed yet.
func (s *Storage) GetLastSync(ctx context.Context, householdID string) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`,
		keyLastSyncPrefix+householdID,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Первая синхронизация еще не выполнялась
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last sync: %w", err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync value: %w", err)
	}

	return time.Unix(unix, 0).UTC(), nil
}
