package models

import "time"

// ConflictRecord фиксирует расхождение локального pending-изменения
// и входящего серверного изменения для одной сущности.
// Инвариант: не больше одной записи на EntityID — повторное обнаружение
// заменяет существующую запись, не дублирует.
type ConflictRecord struct {
	DetectedAt      time.Time    `json:"detected_at"`                 // DetectedAt время обнаружения конфликта
	LocalVersion    *CacheRecord `json:"local_version"`               // LocalVersion локальная версия на момент обнаружения
	ServerVersion   *CacheRecord `json:"server_version"`              // ServerVersion серверная версия из события
	EntityType      string       `json:"entity_type"`                 // EntityType тип сущности
	EntityID        string       `json:"entity_id"`                   // EntityID идентификатор сущности (ключ)
	LocalChangedBy  string       `json:"local_changed_by,omitempty"`  // LocalChangedBy устройство локального изменения
	ServerChangedBy string       `json:"server_changed_by,omitempty"` // ServerChangedBy устройство серверного изменения
}
