// Package bus provides the in-process notification channel that tells task
// views "something may have changed, refresh". It carries no payload: the
// chat channel is opaque about what it mutated, so subscribers always fetch
// current truth instead of interpreting the signal.
package bus

import (
	"sync"
)

// Bus is a process-wide, multi-subscriber notification primitive. It is
// owned by the application root and handed to producers and consumers as an
// explicit dependency rather than reached for as a global.
type Bus struct {
	mu       sync.Mutex
	nextID   int64
	handlers map[int64]func()
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[int64]func()),
	}
}

// Subscribe registers a handler invoked at least once per Publish. The
// returned function deregisters the handler and is safe to call more than
// once. Consumers must deregister when they unmount; handlers are idempotent
// so this is resource scoping, not correctness.
func (b *Bus) Subscribe(handler func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish notifies every active subscriber. Each handler runs on its own
// goroutine so a slow subscriber never blocks the publisher; there is no
// back-pressure and no ordering guarantee between publishes.
func (b *Bus) Publish() {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		go h()
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
