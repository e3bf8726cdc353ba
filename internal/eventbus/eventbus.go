// Package eventbus implements the in-process Event Bus & Telemetry (spec
// §4.8, C8): a single-threaded-cooperative publisher with typed task
// lifecycle events, grounded on the teacher's subscriber-registration-order
// convention used across codeNERD's logging/session glue code.
package eventbus

import "sync"

// EventType enumerates the typed events (spec §4.8).
type EventType string

const (
	TaskReceived       EventType = "task_received"
	TaskCompleted      EventType = "task_completed"
	TaskFailed         EventType = "task_failed"
	FileModified       EventType = "file_modified"
	BootstrapStarted   EventType = "bootstrap_started"
	BootstrapCompleted EventType = "bootstrap_completed"
)

// Event is a single published occurrence.
type Event struct {
	Type    EventType
	Payload any
}

// Handler receives published events. A handler must not block
// indefinitely; Bus invokes handlers synchronously in registration order.
type Handler func(Event)

// Bus is an in-process publisher. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be invoked for every event of type t, in
// registration order.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[EventType][]Handler)
	}
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish invokes every handler registered for ev.Type, in registration
// order. A handler that panics is recovered so that later subscribers
// still run for this event (spec §4.8: "a misbehaving subscriber must not
// stop later subscribers from being invoked").
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Type]...)
	b.mu.RUnlock()

	for _, h := range hs {
		invokeSafely(h, ev)
	}
}

func invokeSafely(h Handler, ev Event) {
	defer func() {
		_ = recover()
	}()
	h(ev)
}
