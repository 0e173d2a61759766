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

const queueColumns = `id, entity_id, entity_type, operation_type,
       created_at, retry_count, last_error, last_attempt_at`

// SaveOperation inserts or replaces a queued operation.
// The entity_id column is unique: a new operation for the same entity
// replaces the previous row.
func (s *Storage) SaveOperation(ctx context.Context, op *models.QueuedOperation) error {
	query := `
		INSERT INTO queue_operations (
			id, entity_id, entity_type, operation_type,
			created_at, retry_count, last_error, last_attempt_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			id = excluded.id,
			operation_type = excluded.operation_type,
			created_at = excluded.created_at,
			retry_count = excluded.retry_count,
			last_error = excluded.last_error,
			last_attempt_at = excluded.last_attempt_at
	`

	var lastError any
	if op.LastError != "" {
		lastError = op.LastError
	}

	// Времена очереди храним в наносекундах: порядок FIFO должен
	// сохраняться и для операций, созданных в одну секунду
	var lastAttemptAt any
	if op.LastAttemptAt != nil {
		lastAttemptAt = op.LastAttemptAt.UnixNano()
	}

	_, err := s.db.ExecContext(ctx, query,
		op.ID,
		op.EntityID,
		op.EntityType,
		string(op.OperationType),
		op.CreatedAt.UnixNano(),
		op.RetryCount,
		lastError,
		lastAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}

	return nil
}

// GetOperationByEntity retrieves the queued operation for an entity
func (s *Storage) GetOperationByEntity(ctx context.Context, entityID string) (*models.QueuedOperation, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_operations WHERE entity_id = ?`

	op, err := scanOperation(s.db.QueryRowContext(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOperationNotFound
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	return op, nil
}

// DeleteOperation removes an operation by its ID
func (s *Storage) DeleteOperation(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_operations WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	return nil
}

// DeleteOperationByEntity removes the operation for an entity, if any
func (s *Storage) DeleteOperationByEntity(ctx context.Context, entityID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_operations WHERE entity_id = ?`, entityID,
	); err != nil {
		return fmt.Errorf("failed to delete operation by entity: %w", err)
	}
	return nil
}

// ListOperations returns all operations ordered by CreatedAt (FIFO)
func (s *Storage) ListOperations(ctx context.Context) ([]*models.QueuedOperation, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_operations ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.QueuedOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ops, nil
}

// RecordAttempt increments retry count and stores the failed attempt
func (s *Storage) RecordAttempt(ctx context.Context, id string, attemptAt time.Time, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_operations
		SET retry_count = retry_count + 1, last_error = ?, last_attempt_at = ?
		WHERE id = ?`,
		lastError, attemptAt.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrOperationNotFound
	}

	return nil
}

// ResetAttempts zeroes retry count and clears the stored error
func (s *Storage) ResetAttempts(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_operations
		SET retry_count = 0, last_error = NULL, last_attempt_at = NULL
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrOperationNotFound
	}

	return nil
}

// scanOperation сканирует одну строку queue_operations
func scanOperation(row scanner) (*models.QueuedOperation, error) {
	op := &models.QueuedOperation{}

	var (
		operationType string
		createdAt     int64
		lastError     sql.NullString
		lastAttemptAt sql.NullInt64
	)

	if err := row.Scan(
		&op.ID,
		&op.EntityID,
		&op.EntityType,
		&operationType,
		&createdAt,
		&op.RetryCount,
		&lastError,
		&lastAttemptAt,
	); err != nil {
		return nil, err
	}

	op.OperationType = models.OperationType(operationType)
	op.CreatedAt = time.Unix(0, createdAt).UTC()
	op.LastError = lastError.String
	if lastAttemptAt.Valid {
		t := time.Unix(0, lastAttemptAt.Int64).UTC()
		op.LastAttemptAt = &t
	}

	return op, nil
}
