package store

import (
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// Dispatcher accepts events and issues request generations. Gateways
// depend on this interface rather than on a concrete container.
type Dispatcher interface {
	Dispatch(ev Event)
	NextGeneration() uint64
}

// Listener is called after every event a container accepts, with the
// resulting state.
type Listener[E types.Entity] func(s State[E], ev Event)

// Container holds the state for one entity kind and serializes reductions.
// The zero value is not usable; call NewContainer.
type Container[E types.Entity] struct {
	mu        sync.Mutex
	state     State[E]
	gen       atomic.Uint64
	listeners []Listener[E]
	log       logr.Logger
}

// ContainerOption configures a Container.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	log logr.Logger
}

// WithLogger sets the logger used to report discarded stale events.
func WithLogger(log logr.Logger) ContainerOption {
	return func(o *containerOptions) { o.log = log }
}

// NewContainer returns a container in the initial state.
func NewContainer[E types.Entity](opts ...ContainerOption) *Container[E] {
	o := containerOptions{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Container[E]{
		state: Initial[E](),
		log:   o.log.WithValues("kind", kindOf[E]()),
	}
}

// Kind returns the entity kind the container holds.
func (c *Container[E]) Kind() types.Kind {
	return kindOf[E]()
}

// State returns a snapshot of the current state.
func (c *Container[E]) State() State[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NextGeneration returns a new request generation, strictly greater than
// every generation returned before.
func (c *Container[E]) NextGeneration() uint64 {
	return c.gen.Add(1)
}

// Subscribe registers fn to be called after every accepted event.
func (c *Container[E]) Subscribe(fn Listener[E]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Dispatch reduces ev into the state. Events for other kinds are ignored
// without notifying listeners.
func (c *Container[E]) Dispatch(ev Event) {
	if ev.Kind() != c.Kind() {
		return
	}

	c.mu.Lock()
	if c.state.isStale(ev) {
		c.mu.Unlock()
		gen := uint64(0)
		if g, ok := ev.(Generational); ok {
			gen = g.Generation()
		}
		c.log.V(1).Info("discarding stale event", "event", ev.Type(), "generation", gen)
		return
	}
	c.state = Reduce(c.state, ev)
	next := c.state
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next, ev)
	}
}

// Handle implements Handler so a container can be registered on a Bus.
func (c *Container[E]) Handle(ev Event) {
	c.Dispatch(ev)
}
