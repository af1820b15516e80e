package eventbus

import "sync"

// Listener is anything events can be subscribed on.
type Listener interface {
	Listen(name string, h Handler) func()
}

// Binding owns one subscription that can be re-pointed at a new handler.
// Each Bind bumps a generation counter; a delivery that raced with a
// rebind carries the old generation and is dropped.
type Binding struct {
	src  Listener
	name string

	mu    sync.Mutex
	gen   uint64
	unsub func()
}

// NewBinding creates an unbound binding for events called name.
func NewBinding(src Listener, name string) *Binding {
	return &Binding{src: src, name: name}
}

// Bind replaces the current handler. The previous subscription is
// released before the new one is made.
func (b *Binding) Bind(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsub != nil {
		b.unsub()
	}
	b.gen++
	gen := b.gen
	b.unsub = b.src.Listen(b.name, func(payload any) {
		if b.Generation() != gen {
			return
		}
		h(payload)
	})
}

// Generation returns the current bind generation.
func (b *Binding) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Close releases the subscription. Safe to call more than once.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	b.gen++
}
