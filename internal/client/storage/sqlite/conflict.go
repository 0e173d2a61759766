package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
)

// SaveConflict stores or replaces the conflict for an entity.
// Both record versions are serialized as JSON snapshots: resolution needs
// the state exactly as it was at detection time.
func (s *Storage) SaveConflict(ctx context.Context, conflict *models.ConflictRecord) error {
	localVersion, err := json.Marshal(conflict.LocalVersion)
	if err != nil {
		return fmt.Errorf("failed to marshal local version: %w", err)
	}

	serverVersion, err := json.Marshal(conflict.ServerVersion)
	if err != nil {
		return fmt.Errorf("failed to marshal server version: %w", err)
	}

	query := `
		INSERT INTO conflict_records (
			entity_id, entity_type, local_version, server_version,
			detected_at, local_changed_by, server_changed_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			local_version = excluded.local_version,
			server_version = excluded.server_version,
			detected_at = excluded.detected_at,
			local_changed_by = excluded.local_changed_by,
			server_changed_by = excluded.server_changed_by
	`

	_, err = s.db.ExecContext(ctx, query,
		conflict.EntityID,
		conflict.EntityType,
		localVersion,
		serverVersion,
		conflict.DetectedAt.Unix(),
		conflict.LocalChangedBy,
		conflict.ServerChangedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save conflict: %w", err)
	}

	return nil
}

// GetConflict retrieves the conflict for an entity
func (s *Storage) GetConflict(ctx context.Context, entityID string) (*models.ConflictRecord, error) {
	query := `
		SELECT entity_id, entity_type, local_version, server_version,
		       detected_at, local_changed_by, server_changed_by
		FROM conflict_records
		WHERE entity_id = ?
	`

	conflict, err := scanConflict(s.db.QueryRowContext(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrConflictNotFound
		}
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}

	return conflict, nil
}

// DeleteConflict removes the conflict for an entity
func (s *Storage) DeleteConflict(ctx context.Context, entityID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conflict_records WHERE entity_id = ?`, entityID,
	); err != nil {
		return fmt.Errorf("failed to delete conflict: %w", err)
	}
	return nil
}

// ListConflicts returns all unresolved conflicts ordered by DetectedAt
func (s *Storage) ListConflicts(ctx context.Context) ([]*models.ConflictRecord, error) {
	query := `
		SELECT entity_id, entity_type, local_version, server_version,
		       detected_at, local_changed_by, server_changed_by
		FROM conflict_records
		ORDER BY detected_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*models.ConflictRecord
	for rows.Next() {
		conflict, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		conflicts = append(conflicts, conflict)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return conflicts, nil
}

// CountConflicts returns the number of unresolved conflicts
func (s *Storage) CountConflicts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conflict_records`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicts: %w", err)
	}
	return count, nil
}

// scanConflict сканирует одну строку conflict_records
func scanConflict(row scanner) (*models.ConflictRecord, error) {
	conflict := &models.ConflictRecord{}

	var (
		localVersion  []byte
		serverVersion []byte
		detectedAt    int64
	)

	if err := row.Scan(
		&conflict.EntityID,
		&conflict.EntityType,
		&localVersion,
		&serverVersion,
		&detectedAt,
		&conflict.LocalChangedBy,
		&conflict.ServerChangedBy,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(localVersion, &conflict.LocalVersion); err != nil {
		return nil, fmt.Errorf("failed to unmarshal local version: %w", err)
	}
	if err := json.Unmarshal(serverVersion, &conflict.ServerVersion); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server version: %w", err)
	}
	conflict.DetectedAt = time.Unix(detectedAt, 0).UTC()

	return conflict, nil
}
