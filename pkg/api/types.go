package api

import (
	"encoding/json"
	"time"
)

// EventType тип события realtime changefeed
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Record представляет одну запись сущности на проводе.
// Payload содержит бизнес-поля (dish, meal_plan) как JSON;
// остальные поля — общая обвязка синхронизации.
type Record struct {
	UpdatedAt   time.Time       `json:"updated_at"`             // UpdatedAt серверное время последнего изменения
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`   // DeletedAt tombstone мягкого удаления
	LockedAt    *time.Time      `json:"locked_at,omitempty"`    // LockedAt время захвата блокировки редактирования
	LockedBy    *string         `json:"locked_by,omitempty"`    // LockedBy пользователь, удерживающий блокировку
	ID          string          `json:"id"`                     // ID уникальный идентификатор записи (UUID)
	HouseholdID string          `json:"household_id"`           // HouseholdID область синхронизации
	EntityType  string          `json:"entity_type"`            // EntityType тип сущности: "dish", "meal_plan"
	ParentID    string          `json:"parent_id,omitempty"`    // ParentID родительская запись (если есть)
	UpdatedBy   string          `json:"updated_by"`             // UpdatedBy устройство, сделавшее изменение
	Payload     json.RawMessage `json:"payload"`                // Payload бизнес-данные сущности
}

// Patch представляет частичное обновление записи.
// nil-поля не трогаются; ClearLock=true явно сбрасывает поля блокировки
// (иначе отсутствующий LockedBy неотличим от "не менять").
type Patch struct {
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	LockedAt  *time.Time      `json:"locked_at,omitempty"`
	LockedBy  *string         `json:"locked_by,omitempty"`
	UpdatedBy string          `json:"updated_by,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ClearLock bool            `json:"clear_lock,omitempty"`
}

// ChangeEvent представляет одно событие realtime changefeed.
// Доставка at-least-once: обработка должна быть идемпотентной.
type ChangeEvent struct {
	Record Record    `json:"record"`
	Type   EventType `json:"type"`
}

// ErrorResponse представляет ошибку от сервера
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
