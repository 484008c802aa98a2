package events

import (
	"log/slog"
	"sync"
)

// Handler is a subscriber callback. Handlers run on the publisher's
// goroutine and must not block unboundedly. A handler that panics is
// contained and logged; it never aborts the publish sweep.
type Handler func(Event)

// Bus is the typed pub/sub dispatcher for trading facts. A single Bus value
// is shared by pointer across the whole engine: every holder observes the
// same subscriber list and counters.
//
// Publish holds the bus lock only long enough to bump the per-tag counter
// and snapshot the handler list; handlers are invoked with the lock
// released, so a handler may publish back to the bus without deadlocking.
type Bus struct {
	mu          sync.Mutex
	subscribers map[Type][]Handler
	counters    map[Type]uint64
	logger      *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[Type][]Handler),
		counters:    make(map[Type]uint64),
		logger:      logger.With("component", "bus"),
	}
}

// Subscribe appends a handler under the tag. Insertion order is preserved
// and is the dispatch order.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], h)
}

// Publish delivers the event to every handler registered under its tag,
// at most once per handler. The counter bump and the handler snapshot
// happen under the same critical section, so MetricsSnapshot counts agree
// with deliveries.
func (b *Bus) Publish(e Event) {
	t := e.Type()

	b.mu.Lock()
	b.counters[t]++
	handlers := make([]Handler, len(b.subscribers[t]))
	copy(handlers, b.subscribers[t])
	b.mu.Unlock()

	for _, h := range handlers {
		b.invoke(h, e)
	}
}

// PublishAll delivers the event to every handler under every tag. This is a
// diagnostic fan-out; the normal pipeline never uses it.
func (b *Bus) PublishAll(e Event) {
	b.mu.Lock()
	var handlers []Handler
	for _, hs := range b.subscribers {
		handlers = append(handlers, hs...)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.invoke(h, e)
	}
}

// MetricsSnapshot returns a consistent copy of the per-tag publish counters.
func (b *Bus) MetricsSnapshot() map[Type]uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := make(map[Type]uint64, len(b.counters))
	for t, n := range b.counters {
		snap[t] = n
	}
	return snap
}

// invoke runs one handler, containing any panic so the sweep continues.
func (b *Bus) invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event_type", e.Type(), "panic", r)
		}
	}()
	h(e)
}
