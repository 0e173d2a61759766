package data

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/mealsync/internal/client/api"
	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/client/storage/sqlite"
	"github.com/iudanet/mealsync/internal/models"
)

// pusherStub считает запросы на отправку очереди
type pusherStub struct {
	calls atomic.Int64
}

func (p *pusherStub) SchedulePush() {
	p.calls.Add(1)
}

type fixture struct {
	service *Service
	storage *sqlite.Storage
	queue   *queue.Queue
	pusher  *pusherStub
	online  *atomic.Bool
}

func setupService(t *testing.T) (*fixture, func()) {
	ctx := context.Background()

	st, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus()
	q := queue.New(st, logger)
	pusher := &pusherStub{}

	// Оффлайн по умолчанию: проверки блокировки читают локальный кеш
	online := &atomic.Bool{}
	remote := &clientapi.RemoteStoreMock{}
	locks := lock.NewManager(remote, st, online.Load, "alice", logger)

	service := NewService(st, q, locks, pusher, bus, logger,
		"device-1", "alice", "household-1")

	return &fixture{
		service: service,
		storage: st,
		queue:   q,
		pusher:  pusher,
		online:  online,
	}, func() { _ = st.Close() }
}

func TestService_AddDish(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	dish, err := f.service.AddDish(ctx, "Borscht", "Classic beet soup", []string{"soup"})
	require.NoError(t, err)
	assert.NotEmpty(t, dish.ID)
	assert.Equal(t, "household-1", dish.HouseholdID)

	// Запись локальная и pending
	record, err := f.storage.GetRecord(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, record.SyncStatus)
	assert.Equal(t, "device-1", record.UpdatedBy)

	// Операция в очереди, движок разбужен
	op, err := f.queue.Lookup(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationAdd, op.OperationType)
	assert.Equal(t, int64(1), f.pusher.calls.Load())
}

func TestService_AddDish_InvalidName(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	_, err := f.service.AddDish(ctx, "", "", nil)
	assert.Error(t, err)

	count, cerr := f.queue.PendingCount(ctx)
	require.NoError(t, cerr)
	assert.Equal(t, 0, count, "invalid write must not reach the queue")
}

func TestService_UpdateDish(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	dish, err := f.service.AddDish(ctx, "Borscht", "", nil)
	require.NoError(t, err)

	dish.Description = "with garlic"
	require.NoError(t, f.service.UpdateDish(ctx, dish))

	got, err := f.service.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, "with garlic", got.Description)

	// add + update схлопнулись в одну операцию add
	op, err := f.queue.Lookup(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationAdd, op.OperationType)
}

func TestService_UpdateDish_ConflictFrozen(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	dish, err := f.service.AddDish(ctx, "Borscht", "", nil)
	require.NoError(t, err)
	require.NoError(t, f.storage.MarkConflict(ctx, dish.ID))

	err = f.service.UpdateDish(ctx, dish)
	assert.ErrorIs(t, err, ErrConflictPending)

	err = f.service.DeleteDish(ctx, dish.ID)
	assert.ErrorIs(t, err, ErrConflictPending)
}

func TestService_DeleteDish(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	dish, err := f.service.AddDish(ctx, "Borscht", "", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteDish(ctx, dish.ID))

	// Tombstone скрывает запись от чтения
	_, err = f.service.GetDish(ctx, dish.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	dishes, err := f.service.ListDishes(ctx)
	require.NoError(t, err)
	assert.Empty(t, dishes)

	// add + delete схлопнулись: на сервер не уйдет ничего
	_, err = f.queue.Lookup(ctx, dish.ID)
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)
}

func TestService_ListDishes(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	_, err := f.service.AddDish(ctx, "Borscht", "", nil)
	require.NoError(t, err)
	_, err = f.service.AddDish(ctx, "Pelmeni", "", nil)
	require.NoError(t, err)

	dishes, err := f.service.ListDishes(ctx)
	require.NoError(t, err)
	assert.Len(t, dishes, 2)
}

func TestService_CreateMealPlan_InvalidDate(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	_, err := f.service.CreateMealPlan(ctx, "31-08-2026")
	assert.Error(t, err)
}

func TestService_UpdateMealPlan_ValidatesEntries(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	plan, err := f.service.CreateMealPlan(ctx, "2026-08-31")
	require.NoError(t, err)

	plan.Entries = []models.MealPlanEntry{
		{Date: "2026-09-01", Meal: "brunch", DishID: "dish-1"},
	}

	err = f.service.UpdateMealPlan(ctx, plan)
	assert.Error(t, err, "unknown meal name must be rejected")
}

func TestService_UpdateMealPlan_RefusedWhileLocked(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	plan, err := f.service.CreateMealPlan(ctx, "2026-08-31")
	require.NoError(t, err)

	// Живая чужая блокировка в кеше
	bob := "bob"
	lockedAt := time.Now()
	require.NoError(t, f.storage.SetLockFields(ctx, plan.ID, &bob, &lockedAt))

	plan.Entries = []models.MealPlanEntry{
		{Date: "2026-09-01", Meal: "dinner", DishID: "dish-1"},
	}

	err = f.service.UpdateMealPlan(ctx, plan)
	var lockedErr *lock.LockedError
	assert.ErrorAs(t, err, &lockedErr)
}

func TestService_UpdateMealPlan_OwnOrStaleLockAllowed(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	plan, err := f.service.CreateMealPlan(ctx, "2026-08-31")
	require.NoError(t, err)

	plan.Entries = []models.MealPlanEntry{
		{Date: "2026-09-01", Meal: "dinner", DishID: "dish-1"},
	}

	// Своя блокировка не мешает
	alice := "alice"
	lockedAt := time.Now()
	require.NoError(t, f.storage.SetLockFields(ctx, plan.ID, &alice, &lockedAt))
	assert.NoError(t, f.service.UpdateMealPlan(ctx, plan))

	// Протухшая чужая - тоже
	bob := "bob"
	stale := time.Now().Add(-lock.DefaultTimeout - time.Minute)
	require.NoError(t, f.storage.SetLockFields(ctx, plan.ID, &bob, &stale))
	assert.NoError(t, f.service.UpdateMealPlan(ctx, plan))
}

func TestService_SyncStatus(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupService(t)
	defer cleanup()

	dish, err := f.service.AddDish(ctx, "Borscht", "", nil)
	require.NoError(t, err)

	status, err := f.service.SyncStatus(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)
}
