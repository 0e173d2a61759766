// Package sync orchestrates the synchronization cycle: full refresh on
// connect, draining the offline mutation queue, and applying realtime
// changefeed events against the local cache.
//
// The engine never mutates business data itself - it moves records
// between the cache, the queue and the remote store, and hands
// divergent pairs to the conflict service.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/iudanet/mealsync/internal/client/api"
	"github.com/iudanet/mealsync/internal/client/conflict"
	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
	"github.com/iudanet/mealsync/pkg/api"
)

// State состояние цикла синхронизации
type State string

const (
	StateIdle    State = "idle"    // изменений нет, очередь пуста
	StateSyncing State = "syncing" // идет отправка или полная синхронизация
	StateOffline State = "offline" // сети нет, изменения копятся в очереди
	StateError   State = "error"   // последний цикл завершился ошибкой
)

// reconnectDelay пауза перед повторным подключением changefeed
const reconnectDelay = 5 * time.Second

// Config собирает зависимости движка синхронизации
type Config struct {
	Remote      clientapi.RemoteStore
	Cache       storage.CacheStorage
	Metadata    storage.MetadataStorage
	Queue       *queue.Queue
	Conflicts   *conflict.Service
	Bus         *events.Bus
	Logger      *slog.Logger
	DeviceID    string
	HouseholdID string
}

// Engine управляет циклом синхронизации одного household
type Engine struct {
	remote      clientapi.RemoteStore
	cache       storage.CacheStorage
	metadata    storage.MetadataStorage
	queue       *queue.Queue
	conflicts   *conflict.Service
	bus         *events.Bus
	logger      *slog.Logger
	deviceID    string
	householdID string

	mu      sync.Mutex
	state   State
	online  bool
	pushing bool
	rerun   bool
}

// NewEngine создает движок синхронизации
func NewEngine(cfg Config) *Engine {
	return &Engine{
		remote:      cfg.Remote,
		cache:       cfg.Cache,
		metadata:    cfg.Metadata,
		queue:       cfg.Queue,
		conflicts:   cfg.Conflicts,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		deviceID:    cfg.DeviceID,
		householdID: cfg.HouseholdID,
		state:       StateOffline,
	}
}

// State возвращает текущее состояние цикла синхронизации
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Online сообщает, считает ли движок себя подключенным
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// setState меняет состояние и уведомляет подписчиков
func (e *Engine) setState(s State) {
	e.mu.Lock()
	if e.state == s {
		e.mu.Unlock()
		return
	}
	e.state = s
	e.mu.Unlock()

	e.bus.Publish(events.SyncStateChanged{State: string(s)})
}

// SetOnline switches connectivity. Going online triggers a queue drain;
// going offline parks the engine without touching queued work.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	changed := e.online != online
	e.online = online
	e.mu.Unlock()

	if !changed {
		return
	}

	if online {
		e.logger.Info("Connectivity restored")
		e.SchedulePush()
	} else {
		e.logger.Info("Connectivity lost")
		e.setState(StateOffline)
	}
}

// FullSync replaces the synced part of the local cache with the
// server's current state. Records holding unsent local changes
// (pending or conflict) survive the refresh untouched, so a full sync
// racing a queue drain cannot destroy an offline edit. On any error
// the cache is left as it was and the engine reports the error state.
func (e *Engine) FullSync(ctx context.Context) error {
	e.setState(StateSyncing)

	var records []*models.CacheRecord
	for _, entityType := range models.EntityTypes {
		remote, err := e.remote.SelectAll(ctx, entityType, e.householdID)
		if err != nil {
			e.setState(StateError)
			return fmt.Errorf("failed to fetch %s records: %w", entityType, err)
		}
		for _, r := range remote {
			records = append(records, e.toCacheRecord(r, models.StatusSynced))
		}
	}

	if err := e.cache.ReplaceAll(ctx, e.householdID, records); err != nil {
		e.setState(StateError)
		return fmt.Errorf("failed to replace cache: %w", err)
	}

	if err := e.metadata.SaveLastSync(ctx, e.householdID, time.Now()); err != nil {
		e.logger.Warn("Failed to record sync time", "error", err)
	}

	e.logger.Info("Full sync completed",
		"household_id", e.householdID,
		"records", len(records))

	e.setState(StateIdle)
	e.bus.Publish(events.DataChanged{})

	return nil
}

// LastSync возвращает время последней успешной полной синхронизации
func (e *Engine) LastSync(ctx context.Context) (time.Time, error) {
	return e.metadata.GetLastSync(ctx, e.householdID)
}

// SchedulePush requests an asynchronous queue drain. Single flight: a
// drain already in progress absorbs the request and reruns once more
// after finishing, so no enqueued change is left behind.
func (e *Engine) SchedulePush() {
	e.mu.Lock()
	if e.pushing {
		e.rerun = true
		e.mu.Unlock()
		return
	}
	e.pushing = true
	e.mu.Unlock()

	go func() {
		for {
			if err := e.Push(context.Background()); err != nil {
				e.logger.Warn("Push cycle failed", "error", err)
			}

			e.mu.Lock()
			if !e.rerun {
				e.pushing = false
				e.mu.Unlock()
				return
			}
			e.rerun = false
			e.mu.Unlock()
		}
	}()
}

// Push drains the mutation queue FIFO. Per-operation failures are
// recorded on the operation and do not stop the drain; a later
// operation for a different entity still gets its chance.
func (e *Engine) Push(ctx context.Context) error {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()

	if !online {
		e.setState(StateOffline)
		return nil
	}

	e.setState(StateSyncing)

	ops, err := e.queue.Drain(ctx)
	if err != nil {
		e.setState(StateError)
		return fmt.Errorf("failed to drain queue: %w", err)
	}

	var lastErr error
	for _, op := range ops {
		if err := e.pushOne(ctx, op); err != nil {
			lastErr = err
			if rerr := e.queue.RecordAttempt(ctx, op.ID, err); rerr != nil {
				e.logger.Error("Failed to record attempt", "operation_id", op.ID, "error", rerr)
			}
			e.logger.Warn("Operation push failed",
				"operation", string(op.OperationType),
				"entity_id", op.EntityID,
				"retry_count", op.RetryCount+1,
				"error", err)
		}
	}

	// Добираем pending-записи, оставшиеся без операции в очереди
	// (например, Enqueue упал после успешного SaveRecord)
	if err := e.sweepPending(ctx); err != nil {
		lastErr = err
	}

	if lastErr != nil {
		e.setState(StateError)
		return fmt.Errorf("push cycle finished with errors: %w", lastErr)
	}

	e.setState(StateIdle)
	return nil
}

// pushOne отправляет одну операцию очереди на сервер
func (e *Engine) pushOne(ctx context.Context, op *models.QueuedOperation) error {
	record, err := e.cache.GetRecord(ctx, op.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			// Записи больше нет - операции нечего отправлять
			e.logger.Debug("Dropping operation for missing record", "entity_id", op.EntityID)
			return e.queue.Dequeue(ctx, op.ID)
		}
		return fmt.Errorf("failed to load record: %w", err)
	}

	// Замороженные конфликтом записи не отправляются до разрешения
	if record.SyncStatus == models.StatusConflict {
		e.logger.Debug("Skipping conflicted record", "entity_id", op.EntityID)
		return nil
	}

	if err := e.pushRecord(ctx, record); err != nil {
		return err
	}

	if err := e.queue.Dequeue(ctx, op.ID); err != nil {
		return fmt.Errorf("failed to dequeue confirmed operation: %w", err)
	}

	return nil
}

// pushRecord sends the current local state of one record to the server
// and marks it synced on confirmation. A tombstoned record goes out as
// a soft-delete patch, everything else as an upsert.
func (e *Engine) pushRecord(ctx context.Context, record *models.CacheRecord) error {
	// Ревизия читается до отправки: если запись изменится во время
	// запроса, MarkSynced ниже не затрет свежий pending-статус
	revision := record.Revision

	var confirmed *api.Record
	var err error
	if record.IsDeleted() {
		patch := &api.Patch{
			DeletedAt: record.DeletedAt,
			UpdatedAt: record.LocalUpdatedAt,
			UpdatedBy: e.deviceID,
		}
		confirmed, err = e.remote.Update(ctx, record.EntityType, record.ID, patch)
	} else {
		confirmed, err = e.remote.Upsert(ctx, e.toWireRecord(record))
	}
	if err != nil {
		return err
	}

	if err := e.cache.MarkSynced(ctx, record.ID, revision, confirmed.UpdatedAt); err != nil {
		return fmt.Errorf("failed to mark record synced: %w", err)
	}

	e.bus.Publish(events.DataChanged{
		EntityType: record.EntityType,
		EntityID:   record.ID,
	})

	return nil
}

// sweepPending pushes pending records that have no queue entry.
// Normally every pending record is backed by a queued operation, but a
// write path that saved the record and then failed to enqueue leaves
// the row stranded; the sweep is its way back. Records with a queue
// entry are left to the regular drain.
func (e *Engine) sweepPending(ctx context.Context) error {
	pending, err := e.cache.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending records: %w", err)
	}

	var lastErr error
	for _, record := range pending {
		if record.HouseholdID != e.householdID {
			continue
		}

		_, lerr := e.queue.Lookup(ctx, record.ID)
		if lerr == nil {
			continue
		}
		if !errors.Is(lerr, storage.ErrOperationNotFound) {
			lastErr = lerr
			continue
		}

		if err := e.pushRecord(ctx, record); err != nil {
			lastErr = err
			e.logger.Warn("Stranded record push failed",
				"entity_id", record.ID,
				"error", err)
		}
	}

	return lastErr
}

// HandleEvent applies one realtime changefeed event to the local cache.
//
// Events caused by this device are acknowledgments of its own pushes
// and are skipped. An event landing on a locally pending record is a
// conflict; everything else is applied as the new synced truth.
// Idempotent: replaying an already-applied event changes nothing
// observable.
func (e *Engine) HandleEvent(ctx context.Context, event api.ChangeEvent) error {
	incoming := &event.Record

	if incoming.UpdatedBy == e.deviceID {
		// Эхо собственного изменения - подтверждение уже обработано в Push
		return nil
	}

	local, err := e.cache.GetRecord(ctx, incoming.ID)
	if err != nil && !errors.Is(err, storage.ErrRecordNotFound) {
		return fmt.Errorf("failed to load local record: %w", err)
	}

	if local != nil {
		switch local.SyncStatus {
		case models.StatusPending, models.StatusConflict:
			// Чужое изменение поверх неотправленного локального - конфликт.
			// Для уже конфликтной записи обновляется снимок серверной версии.
			return e.conflicts.Detect(ctx, local, e.toCacheRecord(incoming, models.StatusSynced))
		}
	}

	record := e.toCacheRecord(incoming, models.StatusSynced)
	if event.Type == api.EventDelete && record.DeletedAt == nil {
		now := incoming.UpdatedAt
		record.DeletedAt = &now
	}

	if err := e.cache.SaveRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to apply remote change: %w", err)
	}

	e.bus.Publish(events.DataChanged{
		EntityType: record.EntityType,
		EntityID:   record.ID,
	})

	return nil
}

// Run keeps the changefeed subscription alive until ctx is cancelled.
// Every (re)connect starts with a full sync followed by a queue drain,
// which supersedes anything missed while disconnected.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ch, err := e.remote.Subscribe(ctx, e.householdID)
		if err != nil {
			e.SetOnline(false)
			e.logger.Warn("Changefeed connect failed", "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
				continue
			}
		}

		e.SetOnline(true)

		if err := e.FullSync(ctx); err != nil {
			e.logger.Warn("Full sync after connect failed", "error", err)
		}

		// Читаем поток до обрыва, затем цикл переподключается
		for event := range ch {
			if err := e.HandleEvent(ctx, event); err != nil {
				e.logger.Error("Failed to handle change event",
					"entity_id", event.Record.ID,
					"error", err)
			}
		}

		e.SetOnline(false)
	}
}

// OnSyncStateChange подписывает обработчик на смену состояния синхронизации
func (e *Engine) OnSyncStateChange(fn func(state string)) func() {
	return e.bus.Subscribe(func(ev events.Event) {
		if s, ok := ev.(events.SyncStateChanged); ok {
			fn(s.State)
		}
	})
}

// OnDataChange подписывает обработчик на изменения данных в кеше
func (e *Engine) OnDataChange(fn func(entityType, entityID string)) func() {
	return e.bus.Subscribe(func(ev events.Event) {
		if d, ok := ev.(events.DataChanged); ok {
			fn(d.EntityType, d.EntityID)
		}
	})
}

// OnConflict подписывает обработчик на обнаружение конфликтов
func (e *Engine) OnConflict(fn func(entityType, entityID string)) func() {
	return e.bus.Subscribe(func(ev events.Event) {
		if c, ok := ev.(events.ConflictDetected); ok {
			fn(c.EntityType, c.EntityID)
		}
	})
}

// toCacheRecord переводит проводную запись в запись локального кеша
func (e *Engine) toCacheRecord(r *api.Record, status models.SyncStatus) *models.CacheRecord {
	serverAt := r.UpdatedAt
	return &models.CacheRecord{
		ID:              r.ID,
		HouseholdID:     r.HouseholdID,
		EntityType:      r.EntityType,
		ParentID:        r.ParentID,
		Payload:         r.Payload,
		SyncStatus:      status,
		LocalUpdatedAt:  r.UpdatedAt,
		ServerUpdatedAt: &serverAt,
		DeletedAt:       r.DeletedAt,
		UpdatedBy:       r.UpdatedBy,
		LockedBy:        r.LockedBy,
		LockedAt:        r.LockedAt,
	}
}

// toWireRecord переводит запись кеша в проводной формат
func (e *Engine) toWireRecord(r *models.CacheRecord) *api.Record {
	return &api.Record{
		ID:          r.ID,
		HouseholdID: r.HouseholdID,
		EntityType:  r.EntityType,
		ParentID:    r.ParentID,
		Payload:     r.Payload,
		UpdatedAt:   r.LocalUpdatedAt,
		DeletedAt:   r.DeletedAt,
		UpdatedBy:   e.deviceID,
		LockedBy:    r.LockedBy,
		LockedAt:    r.LockedAt,
	}
}
