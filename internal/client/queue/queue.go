// Package queue implements the durable offline mutation queue.
//
// The queue holds at most one operation per entity: Enqueue collapses
// redundant operations so that a drain cycle sends exactly the net
// effect of all local edits since the last successful sync.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
)

// MaxRetries предел попыток отправки одной операции.
// Операция с исчерпанными попытками остается в очереди и требует
// явного ручного повтора - молча она не выбрасывается.
const MaxRetries = 5

// Queue управляет очередью отложенных операций записи
type Queue struct {
	storage storage.QueueStorage
	logger  *slog.Logger
}

// New creates a new mutation queue service
func New(st storage.QueueStorage, logger *slog.Logger) *Queue {
	return &Queue{
		storage: st,
		logger:  logger,
	}
}

// Enqueue registers a local write for later transmission, merging with
// any operation already queued for the same entity:
//
//	existing | incoming | result
//	add      | update   | keep add (the eventual add carries latest data)
//	add      | delete   | remove entry entirely (remote never saw it)
//	update   | update   | fresh update, retry count reset
//	update   | delete   | fresh delete
//	delete   | any      | keep delete (no resurrection by queuing)
func (q *Queue) Enqueue(ctx context.Context, opType models.OperationType, entityType, entityID string) error {
	existing, err := q.storage.GetOperationByEntity(ctx, entityID)
	if err != nil {
		if !errors.Is(err, storage.ErrOperationNotFound) {
			return fmt.Errorf("failed to look up queued operation: %w", err)
		}

		// Нет существующей операции - просто добавляем новую
		return q.append(ctx, opType, entityType, entityID)
	}

	switch existing.OperationType {
	case models.OperationAdd:
		switch opType {
		case models.OperationUpdate, models.OperationAdd:
			// Будущий add отправит свежие данные из кеша - очередь не трогаем
			q.logger.Debug("Keeping queued add", "entity_id", entityID)
			return nil
		case models.OperationDelete:
			// Сущность не дошла до сервера - отменяем целиком
			q.logger.Debug("Cancelling queued add", "entity_id", entityID)
			if err := q.storage.DeleteOperation(ctx, existing.ID); err != nil {
				return fmt.Errorf("failed to cancel queued add: %w", err)
			}
			return nil
		}

	case models.OperationUpdate:
		switch opType {
		case models.OperationUpdate, models.OperationAdd:
			// Свежий update сбрасывает счетчик попыток
			return q.append(ctx, models.OperationUpdate, entityType, entityID)
		case models.OperationDelete:
			return q.append(ctx, models.OperationDelete, entityType, entityID)
		}

	case models.OperationDelete:
		// Удаленную сущность нельзя воскресить постановкой в очередь
		q.logger.Debug("Keeping queued delete", "entity_id", entityID)
		return nil
	}

	return fmt.Errorf("unknown operation type: %s", existing.OperationType)
}

// append записывает новую операцию, заменяя существующую для той же сущности
func (q *Queue) append(ctx context.Context, opType models.OperationType, entityType, entityID string) error {
	op := &models.QueuedOperation{
		ID:            uuid.New().String(),
		OperationType: opType,
		EntityType:    entityType,
		EntityID:      entityID,
		CreatedAt:     time.Now(),
		RetryCount:    0,
	}

	if err := q.storage.SaveOperation(ctx, op); err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}

	q.logger.Debug("Queued operation",
		"operation", string(opType),
		"entity_type", entityType,
		"entity_id", entityID)

	return nil
}

// Drain returns operations ready for transmission, FIFO by CreatedAt.
// Operations at or above the retry ceiling are skipped, not dropped:
// they stay queued and show up in Failed until explicitly retried.
func (q *Queue) Drain(ctx context.Context) ([]*models.QueuedOperation, error) {
	ops, err := q.storage.ListOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	ready := make([]*models.QueuedOperation, 0, len(ops))
	for _, op := range ops {
		if op.RetryCount < MaxRetries {
			ready = append(ready, op)
		}
	}

	return ready, nil
}

// Failed returns operations that exhausted their retries and need
// explicit user intervention
func (q *Queue) Failed(ctx context.Context) ([]*models.QueuedOperation, error) {
	ops, err := q.storage.ListOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	var failed []*models.QueuedOperation
	for _, op := range ops {
		if op.RetryCount >= MaxRetries {
			failed = append(failed, op)
		}
	}

	return failed, nil
}

// RecordAttempt stores a failed transmission attempt for an operation
func (q *Queue) RecordAttempt(ctx context.Context, id string, attemptErr error) error {
	message := ""
	if attemptErr != nil {
		message = attemptErr.Error()
	}

	if err := q.storage.RecordAttempt(ctx, id, time.Now(), message); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	return nil
}

// Dequeue removes an operation after confirmed remote success
func (q *Queue) Dequeue(ctx context.Context, id string) error {
	if err := q.storage.DeleteOperation(ctx, id); err != nil {
		return fmt.Errorf("failed to dequeue operation: %w", err)
	}
	return nil
}

// Remove removes the queued operation for an entity, if any.
// Used by server-wins conflict resolution: the local edit is discarded,
// so its queued operation must not survive.
func (q *Queue) Remove(ctx context.Context, entityID string) error {
	if err := q.storage.DeleteOperationByEntity(ctx, entityID); err != nil {
		return fmt.Errorf("failed to remove operation: %w", err)
	}
	return nil
}

// Lookup returns the queued operation for an entity, if any
// Returns storage.ErrOperationNotFound when the queue has no entry
func (q *Queue) Lookup(ctx context.Context, entityID string) (*models.QueuedOperation, error) {
	return q.storage.GetOperationByEntity(ctx, entityID)
}

// Retry resets the attempt counter of a failed operation so the next
// drain picks it up again
func (q *Queue) Retry(ctx context.Context, id string) error {
	if err := q.storage.ResetAttempts(ctx, id); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

// PendingCount возвращает количество операций, ожидающих отправки
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	ops, err := q.storage.ListOperations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list operations: %w", err)
	}
	return len(ops), nil
}
