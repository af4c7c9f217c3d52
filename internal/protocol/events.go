package protocol

import "time"

// EventType enumerates the lifecycle notifications an Engine can fire.
// These are observability hooks only: nothing about the wire protocol
// or its invariants depends on whether a handler is registered.
type EventType int

const (
	EventRetransmit EventType = iota
	EventChecksumFailure
	EventConnectionReset
	EventClose
)

// Event carries the detail for one lifecycle notification.
type Event struct {
	Type      EventType
	SessionID string
	SeqNum    int32
	Timestamp time.Time
}

// EventHandler observes Events fired by an Engine.
type EventHandler func(Event)

// eventBus is a minimal registry/dispatcher, the same
// register-then-trigger shape the teacher's EventManager used for
// game events, repurposed here for transport lifecycle events.
type eventBus struct {
	handlers map[EventType][]EventHandler
}

func newEventBus() *eventBus {
	return &eventBus{handlers: make(map[EventType][]EventHandler)}
}

// On registers handler for every occurrence of eventType.
func (b *eventBus) On(eventType EventType, handler EventHandler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// fire invokes every handler registered for ev.Type, in registration order.
func (b *eventBus) fire(ev Event) {
	for _, handler := range b.handlers[ev.Type] {
		handler(ev)
	}
}
