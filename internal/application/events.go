package application

import (
	"slices"
	"sync"
	"time"
)

// EventKind names a persisted mutation.
type EventKind string

const (
	EventBookingSaved   EventKind = "booking.saved"
	EventBookingDeleted EventKind = "booking.deleted"
	EventRoomSaved      EventKind = "room.saved"
	EventRoomDeleted    EventKind = "room.deleted"
)

// Event describes a mutation after it has been written to the store. Total is the
// size of the affected collection after the mutation.
type Event struct {
	Kind       EventKind
	BookingID  string
	RoomID     string
	Date       string
	Booking    *Booking
	Room       *Room
	Total      int
	OccurredAt time.Time
}

// Observer receives events synchronously on the goroutine that performed the mutation.
type Observer func(Event)

// EventBroker fans events out to subscribed observers.
type EventBroker struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[uint64]Observer
}

// NewEventBroker returns an empty broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{observers: make(map[uint64]Observer)}
}

// Subscribe registers observer and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *EventBroker) Subscribe(observer Observer) func() {
	if b == nil || observer == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.observers[id] = observer
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers event to every observer registered at the time of the call.
func (b *EventBroker) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ids := make([]uint64, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	observers := make([]Observer, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		observers = append(observers, b.observers[id])
	}
	b.mu.RUnlock()

	for _, observer := range observers {
		observer(event)
	}
}

