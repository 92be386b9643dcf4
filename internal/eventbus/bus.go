package eventbus

import (
	"sync"
)

// Event is a typed message on the bus. Payload is owned by the publisher and
// must be treated as read-only by handlers.
type Event struct {
	Type    string
	Payload any
}

// Handler receives events. Handlers run synchronously inside Publish and
// should not block.
type Handler func(Event)

// Logger is the logging interface used for handler panic reporting.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Subscription is the handle returned by Subscribe. Pass it to Unsubscribe
// to remove the handler; Unsubscribe is idempotent.
type Subscription struct {
	id        uint64
	eventType string
	all       bool
}

// subscriber pairs a handler with its registration id so fan-out order is
// stable regardless of map iteration.
type subscriber struct {
	id      uint64
	handler Handler
}

// Bus is the process-wide event bus.
//
// All methods are safe for concurrent use. Publish holds no locks while
// invoking handlers, so handlers may publish further events or subscribe
// without deadlocking.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	byType map[string][]subscriber
	allSub []subscriber
	logger Logger
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		byType: make(map[string][]subscriber),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used to report recovered handler panics.
func (b *Bus) SetLogger(logger Logger) {
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
}

// Subscribe registers a handler for the given event type and returns its
// subscription handle. Handlers are invoked in registration order.
func (b *Bus) Subscribe(eventType string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscriber{id: b.nextID, handler: handler}
	b.byType[eventType] = append(b.byType[eventType], sub)

	return &Subscription{id: sub.id, eventType: eventType}
}

// SubscribeAll registers a handler for every event type. All-subscribers are
// invoked after the type-specific handlers, in their own registration order.
func (b *Bus) SubscribeAll(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.allSub = append(b.allSub, subscriber{id: b.nextID, handler: handler})

	return &Subscription{id: b.nextID, all: true}
}

// Unsubscribe removes the handler identified by sub. Calling it twice, or
// with a handle that was never registered, is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.all {
		b.allSub = removeSubscriber(b.allSub, sub.id)
		return
	}

	subs := removeSubscriber(b.byType[sub.eventType], sub.id)
	if len(subs) == 0 {
		delete(b.byType, sub.eventType)
	} else {
		b.byType[sub.eventType] = subs
	}
}

// Publish delivers the event synchronously to all current subscribers of
// event.Type, then to all-subscribers. The subscriber list is snapshotted
// before delivery: handlers added during the fan-out do not receive this
// event, and handlers removed during the fan-out still do.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	snapshot := make([]subscriber, 0, len(b.byType[event.Type])+len(b.allSub))
	snapshot = append(snapshot, b.byType[event.Type]...)
	snapshot = append(snapshot, b.allSub...)
	logger := b.logger
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.deliver(sub, event, logger)
	}
}

// deliver invokes one handler with panic isolation.
func (b *Bus) deliver(sub subscriber, event Event, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panic recovered",
				"event_type", event.Type,
				"panic", r,
			)
		}
	}()

	sub.handler(event)
}

// SubscriberCount returns the number of handlers registered for an event
// type, excluding all-subscribers. Useful for tests and monitoring.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byType[eventType])
}

// removeSubscriber returns subs without the entry matching id, preserving
// order. The original slice is not modified.
func removeSubscriber(subs []subscriber, id uint64) []subscriber {
	for i, s := range subs {
		if s.id == id {
			out := make([]subscriber, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			out = append(out, subs[i+1:]...)
			return out
		}
	}
	return subs
}
