package models

import "time"

// OperationType тип отложенной операции записи
type OperationType string

const (
	OperationAdd    OperationType = "add"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// QueuedOperation представляет одну отложенную операцию в очереди мутаций.
// Инвариант: в очереди не больше одной операции на EntityID — правила
// слияния в пакете queue схлопывают дубликаты.
type QueuedOperation struct {
	CreatedAt     time.Time     `json:"created_at"`                // CreatedAt время постановки в очередь (FIFO порядок)
	LastAttemptAt *time.Time    `json:"last_attempt_at,omitempty"` // LastAttemptAt время последней попытки отправки
	ID            string        `json:"id"`                        // ID уникальный идентификатор операции (UUID)
	OperationType OperationType `json:"operation_type"`            // OperationType add, update или delete
	EntityType    string        `json:"entity_type"`               // EntityType тип сущности
	EntityID      string        `json:"entity_id"`                 // EntityID идентификатор сущности
	LastError     string        `json:"last_error,omitempty"`      // LastError текст последней ошибки отправки
	RetryCount    int           `json:"retry_count"`               // RetryCount количество неудачных попыток
}
