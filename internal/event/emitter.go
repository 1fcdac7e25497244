package event

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Key identifies one registered listener. Keys are unique across every
// emitter in the process, so Off on the wrong emitter is a harmless miss.
type Key uint64

var nextKey atomic.Uint64

// Handler receives one notification.
type Handler[T any] func(T)

type listener[T any] struct {
	key     Key
	handler Handler[T]
}

// Emitter is a synchronous typed listener registry.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu        sync.RWMutex
	listeners []listener[T]

	// Name labels the emitter in panic logs.
	Name string
}

// On registers a handler and returns its key.
func (e *Emitter[T]) On(h Handler[T]) Key {
	key := Key(nextKey.Add(1))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener[T]{key: key, handler: h})
	return key
}

// Off removes the listener registered under key.
// Returns true if the listener was found.
func (e *Emitter[T]) Off(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, l := range e.listeners {
		if l.key == key {
			// Copy so an in-flight Emit snapshot is not disturbed.
			next := make([]listener[T], 0, len(e.listeners)-1)
			next = append(next, e.listeners[:i]...)
			e.listeners = append(next, e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether key is registered on this emitter.
func (e *Emitter[T]) Has(key Key) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, l := range e.listeners {
		if l.key == key {
			return true
		}
	}
	return false
}

// Emit delivers v to every handler registered when Emit was called.
func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	snapshot := e.listeners
	e.mu.RUnlock()

	for _, l := range snapshot {
		e.safeCall(l.handler, v)
	}
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// Clear removes every listener.
func (e *Emitter[T]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}

func (e *Emitter[T]) safeCall(h Handler[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"emitter", e.Name,
				"event", fmt.Sprintf("%T", v),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	h(v)
}
