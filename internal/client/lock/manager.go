// Package lock implements the collaborative edit lock for meal plans.
//
// The lock is advisory and server-authoritative: lock state lives in the
// record's locked_by/locked_at fields on the server, and every acquire
// and release goes through a fresh server read when online. Offline the
// lock degrades to a local hint - it is written to the cache only and
// reconciled on the next sync.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	clientapi "github.com/iudanet/mealsync/internal/client/api"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/pkg/api"
)

// DefaultTimeout срок, после которого не освобожденная блокировка
// считается протухшей и может быть перехвачена
const DefaultTimeout = 5 * time.Minute

// LockedError возвращается при попытке захватить блокировку,
// которую держит другой пользователь
type LockedError struct {
	LockedAt time.Time
	LockedBy string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("locked by %s since %s", e.LockedBy, e.LockedAt.Format(time.RFC3339))
}

// Status описывает состояние блокировки записи
type Status struct {
	LockedAt     time.Time
	LockedBy     string
	IsLocked     bool
	IsStale      bool // блокировка просрочена и может быть перехвачена
	IsOwn        bool // блокировку держит текущий пользователь
}

// Manager реализует протокол блокировки поверх удаленного хранилища
type Manager struct {
	remote  clientapi.RemoteStore
	cache   storage.CacheStorage
	online  func() bool
	logger  *slog.Logger
	userID  string
	timeout time.Duration
}

// NewManager creates a lock manager. online reports current
// connectivity; offline lock writes touch only the local cache.
func NewManager(
	remote clientapi.RemoteStore,
	cache storage.CacheStorage,
	online func() bool,
	userID string,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		remote:  remote,
		cache:   cache,
		online:  online,
		userID:  userID,
		logger:  logger,
		timeout: DefaultTimeout,
	}
}

// statusOf интерпретирует пару полей блокировки
func (m *Manager) statusOf(lockedBy *string, lockedAt *time.Time) Status {
	if lockedBy == nil || lockedAt == nil {
		return Status{}
	}
	return Status{
		IsLocked: true,
		LockedBy: *lockedBy,
		LockedAt: *lockedAt,
		IsStale:  time.Since(*lockedAt) > m.timeout,
		IsOwn:    *lockedBy == m.userID,
	}
}

// Acquire takes the edit lock on a record for the current user.
//
// Online: fresh server read, then a lock-field patch. A live lock held
// by someone else fails with *LockedError; a stale one is taken over.
// Re-acquiring an own lock refreshes its timestamp. Offline: the lock
// is written to the local cache only.
func (m *Manager) Acquire(ctx context.Context, entityType, id string) error {
	now := time.Now()

	if !m.online() {
		// Оффлайн - только локальная пометка, сервер узнает при следующем sync
		m.logger.Debug("Acquiring lock offline", "entity_id", id)
		return m.setLocal(ctx, id, &m.userID, &now)
	}

	record, err := m.remote.Get(ctx, entityType, id)
	if err != nil {
		return fmt.Errorf("failed to read lock state: %w", err)
	}

	status := m.statusOf(record.LockedBy, record.LockedAt)
	if status.IsLocked && !status.IsOwn && !status.IsStale {
		return &LockedError{LockedBy: status.LockedBy, LockedAt: status.LockedAt}
	}

	patch := &api.Patch{
		LockedBy:  &m.userID,
		LockedAt:  &now,
		UpdatedAt: now,
	}
	updated, err := m.remote.Update(ctx, entityType, id, patch)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	m.logger.Info("Lock acquired", "entity_type", entityType, "entity_id", id)

	return m.setLocal(ctx, id, updated.LockedBy, updated.LockedAt)
}

// Release drops the edit lock. Holder check is advisory: releasing a
// lock held by someone else is refused, releasing an unlocked record
// is a no-op.
func (m *Manager) Release(ctx context.Context, entityType, id string) error {
	if !m.online() {
		m.logger.Debug("Releasing lock offline", "entity_id", id)
		return m.setLocal(ctx, id, nil, nil)
	}

	record, err := m.remote.Get(ctx, entityType, id)
	if err != nil {
		return fmt.Errorf("failed to read lock state: %w", err)
	}

	status := m.statusOf(record.LockedBy, record.LockedAt)
	if !status.IsLocked {
		return m.setLocal(ctx, id, nil, nil)
	}
	if !status.IsOwn {
		return &LockedError{LockedBy: status.LockedBy, LockedAt: status.LockedAt}
	}

	return m.clearRemote(ctx, entityType, id)
}

// ForceUnlock clears a lock regardless of holder, but only when it is
// stale. Breaking a live lock held by another user is refused.
func (m *Manager) ForceUnlock(ctx context.Context, entityType, id string) error {
	if !m.online() {
		return m.setLocal(ctx, id, nil, nil)
	}

	record, err := m.remote.Get(ctx, entityType, id)
	if err != nil {
		return fmt.Errorf("failed to read lock state: %w", err)
	}

	status := m.statusOf(record.LockedBy, record.LockedAt)
	if status.IsLocked && !status.IsOwn && !status.IsStale {
		return &LockedError{LockedBy: status.LockedBy, LockedAt: status.LockedAt}
	}

	m.logger.Warn("Force unlocking", "entity_id", id, "was_locked_by", status.LockedBy)

	return m.clearRemote(ctx, entityType, id)
}

// Check returns the current lock status without side effects on the
// lock itself. Online the server is authoritative and the result is
// reconciled into the local cache; offline the cached fields are used.
func (m *Manager) Check(ctx context.Context, entityType, id string) (Status, error) {
	if m.online() {
		record, err := m.remote.Get(ctx, entityType, id)
		if err != nil {
			return Status{}, fmt.Errorf("failed to read lock state: %w", err)
		}
		// Подтягиваем серверное состояние в кеш, чтобы оффлайн-подсказка
		// была максимально свежей
		if err := m.cache.SetLockFields(ctx, id, record.LockedBy, record.LockedAt); err != nil {
			m.logger.Warn("Failed to cache lock state", "entity_id", id, "error", err)
		}
		return m.statusOf(record.LockedBy, record.LockedAt), nil
	}

	cached, err := m.cache.GetRecord(ctx, id)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read cached lock state: %w", err)
	}
	return m.statusOf(cached.LockedBy, cached.LockedAt), nil
}

// KeepAlive refreshes an own lock periodically until the returned stop
// func is called or ctx is cancelled. Interval is half the staleness
// timeout so a healthy editor never goes stale.
func (m *Manager) KeepAlive(ctx context.Context, entityType, id string) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(m.timeout / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Acquire(ctx, entityType, id); err != nil {
					m.logger.Warn("Lock refresh failed", "entity_id", id, "error", err)
				}
			}
		}
	}()

	return cancel
}

// setLocal записывает поля блокировки в локальный кеш
func (m *Manager) setLocal(ctx context.Context, id string, lockedBy *string, lockedAt *time.Time) error {
	if err := m.cache.SetLockFields(ctx, id, lockedBy, lockedAt); err != nil {
		return fmt.Errorf("failed to write local lock state: %w", err)
	}
	return nil
}

// clearRemote сбрасывает блокировку на сервере и в кеше
func (m *Manager) clearRemote(ctx context.Context, entityType, id string) error {
	patch := &api.Patch{
		ClearLock: true,
		UpdatedAt: time.Now(),
	}
	if _, err := m.remote.Update(ctx, entityType, id, patch); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	m.logger.Info("Lock released", "entity_type", entityType, "entity_id", id)

	return m.setLocal(ctx, id, nil, nil)
}
