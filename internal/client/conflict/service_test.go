package conflict

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/client/storage/sqlite"
	"github.com/iudanet/mealsync/internal/models"
)

type fixture struct {
	service *Service
	storage *sqlite.Storage
	queue   *queue.Queue
	bus     *events.Bus
}

func setupService(t *testing.T) (*fixture, func()) {
	ctx := context.Background()

	st, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus()
	q := queue.New(st, logger)

	return &fixture{
		service: NewService(st, st, q, bus, logger),
		storage: st,
		queue:   q,
		bus:     bus,
	}, func() { _ = st.Close() }
}

func pendingRecord(t *testing.T, ctx context.Context, st *sqlite.Storage, name string) *models.CacheRecord {
	payload, err := json.Marshal(map[string]string{"name": name})
	require.NoError(t, err)

	record := &models.CacheRecord{
		ID:             uuid.New().String(),
		HouseholdID:    "household-1",
		EntityType:     models.EntityTypeDish,
		Payload:        payload,
		SyncStatus:     models.StatusPending,
		LocalUpdatedAt: time.Now(),
		UpdatedBy:      "device-1",
	}
	require.NoError(t, st.SaveRecord(ctx, record))

	saved, err := st.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	return saved
}

func serverVersion(local *models.CacheRecord, name string) *models.CacheRecord {
	server := local.Clone()
	payload, _ := json.Marshal(map[string]string{"name": name})
	server.Payload = payload
	server.SyncStatus = models.StatusSynced
	server.UpdatedBy = "device-2"
	return server
}

func TestService_Detect(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")
	incoming := serverVersion(local, "server name")

	var notified []events.ConflictDetected
	f.bus.Subscribe(func(e events.Event) {
		if c, ok := e.(events.ConflictDetected); ok {
			notified = append(notified, c)
		}
	})

	require.NoError(t, f.service.Detect(ctx, local, incoming))

	// Запись о конфликте сохранена с обеими версиями
	conflict, err := f.service.Get(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, local.Payload, conflict.LocalVersion.Payload)
	assert.Equal(t, incoming.Payload, conflict.ServerVersion.Payload)
	assert.Equal(t, "device-1", conflict.LocalChangedBy)
	assert.Equal(t, "device-2", conflict.ServerChangedBy)

	// Запись кеша заморожена в статусе conflict
	record, err := f.storage.GetRecord(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, record.SyncStatus)

	// Подписчики уведомлены
	require.Len(t, notified, 1)
	assert.Equal(t, local.ID, notified[0].EntityID)
}

func TestService_Detect_RedetectionReplaces(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")

	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server v1")))
	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server v2")))

	count, err := f.service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "re-detection must replace, not duplicate")

	conflict, err := f.service.Get(ctx, local.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"server v2"}`, string(conflict.ServerVersion.Payload))
}

func TestService_Resolve_LocalWins(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")
	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server name")))

	require.NoError(t, f.service.Resolve(ctx, local.ID, ResolutionLocal))

	// Локальная версия снова pending и стоит в очереди на отправку
	record, err := f.storage.GetRecord(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, record.SyncStatus)
	assert.JSONEq(t, `{"name":"local name"}`, string(record.Payload))

	op, err := f.queue.Lookup(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationUpdate, op.OperationType)

	// Конфликт закрыт
	_, err = f.service.Get(ctx, local.ID)
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestService_Resolve_ServerWins(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")

	// Локальное изменение уже стояло в очереди
	require.NoError(t, f.queue.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, local.ID))

	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server name")))
	require.NoError(t, f.service.Resolve(ctx, local.ID, ResolutionServer))

	// Серверная версия применена как synced
	record, err := f.storage.GetRecord(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, record.SyncStatus)
	assert.JSONEq(t, `{"name":"server name"}`, string(record.Payload))

	// Отброшенное локальное изменение снято с очереди
	_, err = f.queue.Lookup(ctx, local.ID)
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)
}

func TestService_Resolve_AlreadyResolved(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")
	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server name")))

	require.NoError(t, f.service.Resolve(ctx, local.ID, ResolutionServer))

	// Повторное разрешение - конфликт уже закрыт
	err := f.service.Resolve(ctx, local.ID, ResolutionServer)
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestService_Resolve_UnknownChoice(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")
	require.NoError(t, f.service.Detect(ctx, local, serverVersion(local, "server name")))

	err := f.service.Resolve(ctx, local.ID, Resolution("merge"))
	assert.ErrorIs(t, err, ErrUnknownResolution)
}

func TestService_Resolve_LocalWins_Tombstone(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	local := pendingRecord(t, ctx, f.storage, "local name")

	// Локальная версия - удаление
	require.NoError(t, f.storage.DeleteRecord(ctx, local.ID, time.Now(), "device-1"))
	deleted, err := f.storage.GetRecord(ctx, local.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Detect(ctx, deleted, serverVersion(local, "server name")))
	require.NoError(t, f.service.Resolve(ctx, local.ID, ResolutionLocal))

	// Удаление переотправляется как delete, не как update
	op, err := f.queue.Lookup(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationDelete, op.OperationType)
}
