package rules

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Listener reacts to a published value. A returned error is logged and does
// not stop delivery to the remaining listeners.
type Listener[E any] func(E) error

type subscription[E any] struct {
	handle int
	filter func(E) bool
	fn     Listener[E]
}

// Bus is a synchronous publish/subscribe hub. Listeners are invoked in
// subscription order, which keeps delivery deterministic.
type Bus[E any] struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	name       string
	listeners  []subscription[E]
	nextHandle int
}

// NewBus constructs a bus. name is only used in log output.
func NewBus[E any](name string, logger *zap.Logger) *Bus[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus[E]{
		logger: logger,
		name:   name,
	}
}

// Subscribe registers a listener for every published value and returns a
// function that removes it. Calling the returned function twice is harmless.
func (bus *Bus[E]) Subscribe(listener Listener[E]) func() {
	return bus.SubscribeWhen(nil, listener)
}

// SubscribeWhen registers a listener that only sees values accepted by filter.
func (bus *Bus[E]) SubscribeWhen(filter func(E) bool, listener Listener[E]) func() {
	if listener == nil {
		return func() {}
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners = append(bus.listeners, subscription[E]{
		handle: handle,
		filter: filter,
		fn:     listener,
	})
	return func() { bus.unsubscribe(handle) }
}

func (bus *Bus[E]) unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i := range bus.listeners {
		if bus.listeners[i].handle == handle {
			bus.listeners = append(bus.listeners[:i], bus.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of active listeners.
func (bus *Bus[E]) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.listeners)
}

// Publish delivers the value to all listeners synchronously. Listeners may
// subscribe or unsubscribe while a publish is in flight; the change applies
// to the next publish.
func (bus *Bus[E]) Publish(value E) {
	bus.mu.RLock()
	snapshot := make([]subscription[E], len(bus.listeners))
	copy(snapshot, bus.listeners)
	bus.mu.RUnlock()

	for _, sub := range snapshot {
		if sub.filter != nil && !sub.filter(value) {
			continue
		}
		if err := bus.deliver(sub, value); err != nil {
			bus.logger.Warn("listener failed",
				zap.String("bus", bus.name),
				zap.Int("handle", sub.handle),
				zap.Error(err),
			)
		}
	}
}

func (bus *Bus[E]) deliver(sub subscription[E], value E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return sub.fn(value)
}
