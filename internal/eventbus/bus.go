// Package eventbus is a small in-process publish/subscribe bus for change
// notifications ("build-orders-changed", "config-changed"). Handlers run
// synchronously on the publishing goroutine and must not block.
package eventbus

import (
	"sync"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Compile-time interface check.
var _ domain.Publisher = (*Bus)(nil)

// Handler receives the payload of a published event.
type Handler func(payload any)

// Bus routes events by name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	log      *logger.Logger
}

// New creates an empty bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]map[uint64]Handler),
		log:      log,
	}
}

// Listen registers h for name and returns the unsubscribe function. The
// returned function releases the subscription exactly once; later calls
// do nothing.
func (b *Bus) Listen(name string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.handlers[name] == nil {
		b.handlers[name] = make(map[uint64]Handler)
	}
	b.handlers[name][id] = h
	b.mu.Unlock()

	b.log.Debug("listener %d added for %s", id, name)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[name], id)
			if len(b.handlers[name]) == 0 {
				delete(b.handlers, name)
			}
			b.mu.Unlock()
			b.log.Debug("listener %d removed from %s", id, name)
		})
	}
}

// Publish delivers payload to every handler registered for name.
func (b *Bus) Publish(name string, payload any) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[name]))
	for _, h := range b.handlers[name] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	b.log.Debug("publish %s to %d listeners", name, len(hs))
	for _, h := range hs {
		h(payload)
	}
}

// Listeners returns how many handlers are registered for name.
func (b *Bus) Listeners(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
