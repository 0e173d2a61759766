// Package conflict detects and resolves divergence between local
// pending edits and incoming server changes.
//
// A conflict freezes the entity: the sync engine neither pushes nor
// overwrites it until the user picks a winner. Resolution is whole
// record, local-wins or server-wins; field-level merging is out of
// scope for this version.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
)

// Resolution выбор победителя при разрешении конфликта
type Resolution string

const (
	ResolutionLocal  Resolution = "local"  // оставить локальную версию
	ResolutionServer Resolution = "server" // принять серверную версию
)

// ErrUnknownResolution returned for a resolution choice that is neither
// local nor server.
var ErrUnknownResolution = errors.New("unknown resolution choice")

// Service управляет журналом конфликтов и их разрешением
type Service struct {
	conflicts storage.ConflictStorage
	cache     storage.CacheStorage
	queue     *queue.Queue
	bus       *events.Bus
	logger    *slog.Logger
}

// NewService создает сервис конфликтов
func NewService(
	conflicts storage.ConflictStorage,
	cache storage.CacheStorage,
	q *queue.Queue,
	bus *events.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		conflicts: conflicts,
		cache:     cache,
		queue:     q,
		bus:       bus,
		logger:    logger,
	}
}

// Detect records a conflict between a local pending record and an
// incoming server version: both versions are snapshotted, the cache
// record is flipped to conflict status, and subscribers are notified.
// Re-detection for the same entity replaces the stored snapshot with
// the fresher server version.
func (s *Service) Detect(ctx context.Context, local, incoming *models.CacheRecord) error {
	record := &models.ConflictRecord{
		EntityType:      local.EntityType,
		EntityID:        local.ID,
		LocalVersion:    local.Clone(),
		ServerVersion:   incoming.Clone(),
		LocalChangedBy:  local.UpdatedBy,
		ServerChangedBy: incoming.UpdatedBy,
		DetectedAt:      time.Now(),
	}

	if err := s.conflicts.SaveConflict(ctx, record); err != nil {
		return fmt.Errorf("failed to save conflict: %w", err)
	}

	if err := s.cache.MarkConflict(ctx, local.ID); err != nil {
		return fmt.Errorf("failed to mark record as conflicted: %w", err)
	}

	s.logger.Warn("Conflict detected",
		"entity_type", local.EntityType,
		"entity_id", local.ID,
		"local_changed_by", local.UpdatedBy,
		"server_changed_by", incoming.UpdatedBy)

	s.bus.Publish(events.ConflictDetected{
		EntityType: local.EntityType,
		EntityID:   local.ID,
	})

	return nil
}

// Resolve applies the chosen winner for a conflicted entity.
//
// Local wins: локальная версия снова становится pending и ставится в
// очередь на отправку как обычное изменение. Server wins: серверная
// версия записывается в кеш как synced, локальная операция из очереди
// удаляется. В обоих случаях запись о конфликте удаляется.
//
// Idempotent in effect: resolving an already-resolved entity returns
// storage.ErrConflictNotFound and changes nothing.
func (s *Service) Resolve(ctx context.Context, entityID string, choice Resolution) error {
	record, err := s.conflicts.GetConflict(ctx, entityID)
	if err != nil {
		return fmt.Errorf("failed to load conflict: %w", err)
	}

	switch choice {
	case ResolutionLocal:
		if err := s.resolveLocal(ctx, record); err != nil {
			return err
		}
	case ResolutionServer:
		if err := s.resolveServer(ctx, record); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownResolution, choice)
	}

	if err := s.conflicts.DeleteConflict(ctx, entityID); err != nil {
		return fmt.Errorf("failed to delete resolved conflict: %w", err)
	}

	s.logger.Info("Conflict resolved",
		"entity_type", record.EntityType,
		"entity_id", entityID,
		"choice", string(choice))

	s.bus.Publish(events.DataChanged{
		EntityType: record.EntityType,
		EntityID:   entityID,
	})

	return nil
}

// resolveLocal переотправляет локальную версию как новое изменение
func (s *Service) resolveLocal(ctx context.Context, record *models.ConflictRecord) error {
	local := record.LocalVersion.Clone()
	local.SyncStatus = models.StatusPending
	local.LocalUpdatedAt = time.Now()

	if err := s.cache.SaveRecord(ctx, local); err != nil {
		return fmt.Errorf("failed to restore local version: %w", err)
	}

	// Локальная версия может быть tombstone-ом - тогда в очередь идет delete
	opType := models.OperationUpdate
	if local.IsDeleted() {
		opType = models.OperationDelete
	}

	if err := s.queue.Enqueue(ctx, opType, record.EntityType, record.EntityID); err != nil {
		return fmt.Errorf("failed to re-queue local version: %w", err)
	}

	return nil
}

// resolveServer принимает серверную версию и отбрасывает локальную
func (s *Service) resolveServer(ctx context.Context, record *models.ConflictRecord) error {
	server := record.ServerVersion.Clone()
	server.SyncStatus = models.StatusSynced

	if err := s.cache.SaveRecord(ctx, server); err != nil {
		return fmt.Errorf("failed to apply server version: %w", err)
	}

	// Отброшенное локальное изменение не должно уйти на сервер
	if err := s.queue.Remove(ctx, record.EntityID); err != nil {
		return fmt.Errorf("failed to drop queued operation: %w", err)
	}

	return nil
}

// List возвращает все неразрешенные конфликты в порядке обнаружения
func (s *Service) List(ctx context.Context) ([]*models.ConflictRecord, error) {
	return s.conflicts.ListConflicts(ctx)
}

// Get возвращает конфликт для сущности
func (s *Service) Get(ctx context.Context, entityID string) (*models.ConflictRecord, error) {
	return s.conflicts.GetConflict(ctx, entityID)
}

// Count возвращает количество неразрешенных конфликтов
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.conflicts.CountConflicts(ctx)
}
