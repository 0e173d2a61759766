// Package data is the application-facing write and read path.
//
// Every write lands in the local cache immediately (local-first), is
// queued for transmission, and pokes the sync engine to drain the
// queue if the device is online. Reads never touch the network.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/models"
	"github.com/iudanet/mealsync/internal/validation"
)

// ErrConflictPending returned when mutating an entity frozen by an
// unresolved conflict. The user has to resolve the conflict first.
var ErrConflictPending = errors.New("entity has an unresolved conflict")

// Pusher будит движок синхронизации после локальной записи
type Pusher interface {
	SchedulePush()
}

// Service реализует операции над блюдами и планами питания
type Service struct {
	cache       storage.CacheStorage
	queue       *queue.Queue
	locks       *lock.Manager
	pusher      Pusher
	bus         *events.Bus
	logger      *slog.Logger
	deviceID    string
	userID      string
	householdID string
}

// NewService создает сервис данных для одного household
func NewService(
	cache storage.CacheStorage,
	q *queue.Queue,
	locks *lock.Manager,
	pusher Pusher,
	bus *events.Bus,
	logger *slog.Logger,
	deviceID, userID, householdID string,
) *Service {
	return &Service{
		cache:       cache,
		queue:       q,
		locks:       locks,
		pusher:      pusher,
		bus:         bus,
		logger:      logger,
		deviceID:    deviceID,
		userID:      userID,
		householdID: householdID,
	}
}

// AddDish creates a dish locally and queues it for sync
func (s *Service) AddDish(ctx context.Context, name, description string, tags []string) (*models.Dish, error) {
	if err := validation.ValidateDishName(name); err != nil {
		return nil, err
	}

	dish := &models.Dish{
		ID:          uuid.New().String(),
		HouseholdID: s.householdID,
		Name:        name,
		Description: description,
		Tags:        tags,
	}

	if err := s.write(ctx, models.OperationAdd, models.EntityTypeDish, dish.ID, "", dish); err != nil {
		return nil, err
	}

	return dish, nil
}

// UpdateDish replaces a dish's business fields locally and queues the
// change for sync
func (s *Service) UpdateDish(ctx context.Context, dish *models.Dish) error {
	if err := validation.ValidateDishName(dish.Name); err != nil {
		return err
	}

	if err := s.ensureMutable(ctx, dish.ID); err != nil {
		return err
	}

	return s.write(ctx, models.OperationUpdate, models.EntityTypeDish, dish.ID, "", dish)
}

// DeleteDish tombstones a dish locally and queues the deletion
func (s *Service) DeleteDish(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// GetDish reads a dish from the local cache
func (s *Service) GetDish(ctx context.Context, id string) (*models.Dish, error) {
	record, err := s.liveRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	var dish models.Dish
	if err := json.Unmarshal(record.Payload, &dish); err != nil {
		return nil, fmt.Errorf("failed to decode dish: %w", err)
	}
	return &dish, nil
}

// ListDishes reads all non-deleted dishes from the local cache
func (s *Service) ListDishes(ctx context.Context) ([]*models.Dish, error) {
	records, err := s.cache.ListByType(ctx, s.householdID, models.EntityTypeDish)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}

	dishes := make([]*models.Dish, 0, len(records))
	for _, record := range records {
		var dish models.Dish
		if err := json.Unmarshal(record.Payload, &dish); err != nil {
			return nil, fmt.Errorf("failed to decode dish %s: %w", record.ID, err)
		}
		dishes = append(dishes, &dish)
	}
	return dishes, nil
}

// CreateMealPlan creates an empty weekly plan locally
func (s *Service) CreateMealPlan(ctx context.Context, weekStart string) (*models.MealPlan, error) {
	if err := validation.ValidateDate(weekStart); err != nil {
		return nil, err
	}

	plan := &models.MealPlan{
		ID:          uuid.New().String(),
		HouseholdID: s.householdID,
		WeekStart:   weekStart,
		Entries:     []models.MealPlanEntry{},
	}

	if err := s.write(ctx, models.OperationAdd, models.EntityTypeMealPlan, plan.ID, "", plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// UpdateMealPlan replaces the plan's entries locally and queues the
// change for sync. The plan is a shared mutable resource: when online,
// the write is refused while another user holds a live edit lock.
func (s *Service) UpdateMealPlan(ctx context.Context, plan *models.MealPlan) error {
	for _, entry := range plan.Entries {
		if err := validation.ValidateDate(entry.Date); err != nil {
			return err
		}
		if err := validation.ValidateMeal(entry.Meal); err != nil {
			return err
		}
	}

	if err := s.ensureMutable(ctx, plan.ID); err != nil {
		return err
	}

	status, err := s.locks.Check(ctx, models.EntityTypeMealPlan, plan.ID)
	if err != nil {
		// Запись могла еще не доехать до кеша - тогда блокировки точно нет
		if !errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("failed to check edit lock: %w", err)
		}
	}
	if status.IsLocked && !status.IsOwn && !status.IsStale {
		return &lock.LockedError{LockedBy: status.LockedBy, LockedAt: status.LockedAt}
	}

	return s.write(ctx, models.OperationUpdate, models.EntityTypeMealPlan, plan.ID, "", plan)
}

// DeleteMealPlan tombstones a plan locally and queues the deletion
func (s *Service) DeleteMealPlan(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// GetMealPlan reads a plan from the local cache
func (s *Service) GetMealPlan(ctx context.Context, id string) (*models.MealPlan, error) {
	record, err := s.liveRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	var plan models.MealPlan
	if err := json.Unmarshal(record.Payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode meal plan: %w", err)
	}
	return &plan, nil
}

// ListMealPlans reads all non-deleted plans from the local cache
func (s *Service) ListMealPlans(ctx context.Context) ([]*models.MealPlan, error) {
	records, err := s.cache.ListByType(ctx, s.householdID, models.EntityTypeMealPlan)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}

	plans := make([]*models.MealPlan, 0, len(records))
	for _, record := range records {
		var plan models.MealPlan
		if err := json.Unmarshal(record.Payload, &plan); err != nil {
			return nil, fmt.Errorf("failed to decode meal plan %s: %w", record.ID, err)
		}
		plans = append(plans, &plan)
	}
	return plans, nil
}

// SyncStatus возвращает статус синхронизации записи
func (s *Service) SyncStatus(ctx context.Context, id string) (models.SyncStatus, error) {
	record, err := s.cache.GetRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return record.SyncStatus, nil
}

// write выполняет общий путь локальной записи: кеш -> очередь -> события
func (s *Service) write(ctx context.Context, opType models.OperationType, entityType, id, parentID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	record := &models.CacheRecord{
		ID:             id,
		HouseholdID:    s.householdID,
		EntityType:     entityType,
		ParentID:       parentID,
		Payload:        data,
		SyncStatus:     models.StatusPending,
		LocalUpdatedAt: time.Now(),
		UpdatedBy:      s.deviceID,
	}

	if err := s.cache.SaveRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	if err := s.queue.Enqueue(ctx, opType, entityType, id); err != nil {
		return fmt.Errorf("failed to queue operation: %w", err)
	}

	s.logger.Debug("Local write",
		"operation", string(opType),
		"entity_type", entityType,
		"entity_id", id)

	s.bus.Publish(events.DataChanged{EntityType: entityType, EntityID: id})
	s.pusher.SchedulePush()

	return nil
}

// delete tombstones a record and queues the deletion
func (s *Service) delete(ctx context.Context, id string) error {
	if err := s.ensureMutable(ctx, id); err != nil {
		return err
	}

	record, err := s.cache.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}

	if err := s.cache.DeleteRecord(ctx, id, time.Now(), s.deviceID); err != nil {
		return fmt.Errorf("failed to tombstone record: %w", err)
	}

	if err := s.queue.Enqueue(ctx, models.OperationDelete, record.EntityType, id); err != nil {
		return fmt.Errorf("failed to queue deletion: %w", err)
	}

	s.logger.Debug("Local delete", "entity_type", record.EntityType, "entity_id", id)

	s.bus.Publish(events.DataChanged{EntityType: record.EntityType, EntityID: id})
	s.pusher.SchedulePush()

	return nil
}

// ensureMutable отклоняет запись в сущность с неразрешенным конфликтом
func (s *Service) ensureMutable(ctx context.Context, id string) error {
	record, err := s.cache.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load record: %w", err)
	}

	if record.SyncStatus == models.StatusConflict {
		return fmt.Errorf("%w: %s", ErrConflictPending, id)
	}
	return nil
}

// liveRecord возвращает запись кеша, отказывая по tombstone-у
func (s *Service) liveRecord(ctx context.Context, id string) (*models.CacheRecord, error) {
	record, err := s.cache.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.IsDeleted() {
		return nil, storage.ErrRecordNotFound
	}
	return record, nil
}
