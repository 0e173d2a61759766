package models

import (
	"encoding/json"
	"time"
)

// SyncStatus статус синхронизации локальной записи
type SyncStatus string

const (
	StatusSynced   SyncStatus = "synced"   // локальная и серверная копии совпадают
	StatusPending  SyncStatus = "pending"  // есть неподтвержденные локальные изменения
	StatusConflict SyncStatus = "conflict" // локальное и серверное изменения разошлись
)

// Типы сущностей, известные движку синхронизации
const (
	EntityTypeDish     = "dish"
	EntityTypeMealPlan = "meal_plan"
)

// EntityTypes перечисляет все синхронизируемые типы сущностей.
// Порядок фиксирован: full sync обходит типы в этом порядке.
var EntityTypes = []string{EntityTypeDish, EntityTypeMealPlan}

// CacheRecord оборачивает бизнес-сущность в локальном кеше.
// Инвариант: SyncStatus == pending тогда и только тогда, когда есть
// неподтвержденные локальные записи; conflict — когда серверное изменение
// пришло поверх локального pending. Удаление — только tombstone (DeletedAt),
// физически записи не удаляются, чтобы удаления могли распространяться.
type CacheRecord struct {
	LocalUpdatedAt  time.Time       `json:"local_updated_at"`            // LocalUpdatedAt время последней мутации на этом устройстве
	ServerUpdatedAt *time.Time      `json:"server_updated_at,omitempty"` // ServerUpdatedAt последнее подтвержденное серверное время
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`        // DeletedAt tombstone мягкого удаления
	LockedAt        *time.Time      `json:"locked_at,omitempty"`         // LockedAt время захвата блокировки редактирования
	LockedBy        *string         `json:"locked_by,omitempty"`         // LockedBy пользователь, удерживающий блокировку
	ID              string          `json:"id"`                          // ID уникальный идентификатор записи (UUID)
	HouseholdID     string          `json:"household_id"`                // HouseholdID область синхронизации
	EntityType      string          `json:"entity_type"`                 // EntityType тип сущности
	ParentID        string          `json:"parent_id,omitempty"`         // ParentID родительская запись
	UpdatedBy       string          `json:"updated_by"`                  // UpdatedBy устройство, сделавшее последнее изменение
	Payload         json.RawMessage `json:"payload"`                     // Payload бизнес-данные сущности
	Revision        int64           `json:"revision"`                    // Revision локальный токен версии для check-then-set
	SyncStatus      SyncStatus      `json:"sync_status"`                 // SyncStatus статус синхронизации
}

// IsDeleted сообщает, помечена ли запись tombstone-ом
func (r *CacheRecord) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Clone создает глубокую копию записи
func (r *CacheRecord) Clone() *CacheRecord {
	clone := *r
	clone.Payload = make(json.RawMessage, len(r.Payload))
	copy(clone.Payload, r.Payload)
	if r.ServerUpdatedAt != nil {
		ts := *r.ServerUpdatedAt
		clone.ServerUpdatedAt = &ts
	}
	if r.DeletedAt != nil {
		ts := *r.DeletedAt
		clone.DeletedAt = &ts
	}
	if r.LockedAt != nil {
		ts := *r.LockedAt
		clone.LockedAt = &ts
	}
	if r.LockedBy != nil {
		by := *r.LockedBy
		clone.LockedBy = &by
	}
	return &clone
}
