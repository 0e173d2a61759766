// Package events provides the in-process event bus connecting the sync
// engine to UI-facing subscribers. Events are typed variants; handlers
// are kept in a registry, so multiple independent subscribers can attach
// and detach at any time.
package events

import (
	"sort"
	"sync"
)

// Event объединяет все типы событий шины
type Event interface {
	isEvent()
}

// DataChanged сигнализирует изменение данных в локальном кеше.
// Пустой EntityID означает изменение всей области (после full sync).
type DataChanged struct {
	EntityType string
	EntityID   string
}

// SyncStateChanged сигнализирует смену состояния цикла синхронизации
type SyncStateChanged struct {
	State string
}

// ConflictDetected сигнализирует обнаружение нового конфликта
type ConflictDetected struct {
	EntityType string
	EntityID   string
}

func (DataChanged) isEvent()      {}
func (SyncStateChanged) isEvent() {}
func (ConflictDetected) isEvent() {}

// Handler обработчик события
type Handler func(Event)

// Bus is a minimal subscriber registry. Publish calls handlers
// synchronously in subscription order; handlers must not block.
type Bus struct {
	handlers map[int]Handler
	mu       sync.Mutex
	nextID   int
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns its unsubscribe func.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers the event to all current subscribers.
// Снимок подписчиков делается под локом, вызовы - вне лока, чтобы
// обработчик мог отписаться или подписать нового не взяв deadlock.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}
