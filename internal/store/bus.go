package store

import "sync"

// Handler receives every event published on a Bus.
type Handler interface {
	Handle(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

// Handle calls f(ev).
func (f HandlerFunc) Handle(ev Event) { f(ev) }

// Bus fans events out to all registered handlers in registration order.
// Publish holds a lock for the whole delivery, so events are applied one
// at a time in publish order. Handlers must not publish from Handle.
type Bus struct {
	mu       sync.Mutex
	handlers []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register adds h to the delivery list.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers ev to every handler.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.handlers {
		h.Handle(ev)
	}
}

// Source issues request generations. Containers implement it.
type Source interface {
	NextGeneration() uint64
}

// Route returns a Dispatcher that publishes on b and takes generations
// from src. Gateways use it when stores share a bus.
func Route(b *Bus, src Source) Dispatcher {
	return route{bus: b, src: src}
}

type route struct {
	bus *Bus
	src Source
}

func (r route) Dispatch(ev Event) { r.bus.Publish(ev) }
func (r route) NextGeneration() uint64 { return r.src.NextGeneration() }
