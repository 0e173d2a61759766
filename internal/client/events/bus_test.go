package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishToSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []Event
	bus.Subscribe(func(e Event) { first = append(first, e) })
	bus.Subscribe(func(e Event) { second = append(second, e) })

	event := DataChanged{EntityType: "dish", EntityID: "entity-1"}
	bus.Publish(event)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, event, first[0])
	assert.Equal(t, event, second[0])
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.Publish(SyncStateChanged{State: "syncing"})
	unsubscribe()
	bus.Publish(SyncStateChanged{State: "idle"})

	assert.Len(t, got, 1)

	// Повторная отписка - no-op
	assert.NotPanics(t, unsubscribe)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()

	assert.NotPanics(t, func() {
		bus.Publish(ConflictDetected{EntityType: "dish", EntityID: "entity-1"})
	})
}

func TestBus_HandlerCanUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var unsubscribe func()
	var calls int
	unsubscribe = bus.Subscribe(func(e Event) {
		calls++
		// Отписка из обработчика не должна дать deadlock
		unsubscribe()
	})

	bus.Publish(DataChanged{})
	bus.Publish(DataChanged{})

	assert.Equal(t, 1, calls)
}

func TestBus_EventTypes(t *testing.T) {
	bus := NewBus()

	var dataChanges, stateChanges, conflicts int
	bus.Subscribe(func(e Event) {
		switch e.(type) {
		case DataChanged:
			dataChanges++
		case SyncStateChanged:
			stateChanges++
		case ConflictDetected:
			conflicts++
		}
	})

	bus.Publish(DataChanged{})
	bus.Publish(SyncStateChanged{State: "offline"})
	bus.Publish(ConflictDetected{})

	assert.Equal(t, 1, dataChanges)
	assert.Equal(t, 1, stateChanges)
	assert.Equal(t, 1, conflicts)
}
