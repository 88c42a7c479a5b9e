// Package authevents carries the "session rejected by the server" signal
// from the HTTP layer to whoever reacts to it.
//
// A burst of 401 responses produces one event: the first Publish sets a
// pending flag and later calls are no-ops until Reset, which the session
// store calls after a successful sign-in.
package authevents

import (
	"sync"
	"sync/atomic"
)

// EventUnauthorized is the name under which the event is known to screens.
const EventUnauthorized = "auth:unauthorized"

// Handler reacts to an unauthorized event. Handlers run synchronously on
// the publishing goroutine and must not call Publish.
type Handler func()

// Bus is a single-flight notification channel.
type Bus struct {
	pending atomic.Bool

	mu       sync.RWMutex
	nextID   uint64
	handlers []entry
}

type entry struct {
	id uint64
	fn Handler
}

// Default is the process-wide bus.
var Default = New()

// New returns an empty bus with the flag cleared.
func New() *Bus {
	return &Bus{}
}

// Publish fires the event unless an episode is already pending. It returns
// true when subscribers were notified.
func (b *Bus) Publish() bool {
	if !b.pending.CompareAndSwap(false, true) {
		return false
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	for i, e := range b.handlers {
		handlers[i] = e.fn
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
	return true
}

// Reset ends the current episode. Call it only after a successful sign-in.
func (b *Bus) Reset() {
	b.pending.Store(false)
}

// Pending reports whether an episode is in progress.
func (b *Bus) Pending() bool {
	return b.pending.Load()
}

// Subscription is returned by Subscribe.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Subscribe registers h. Handlers are called in registration order.
func (b *Bus) Subscribe(h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers = append(b.handlers, entry{id: b.nextID, fn: h})
	return Subscription{bus: b, id: b.nextID}
}

// Unsubscribe removes the handler. Calling it twice is harmless.
func (s Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.handlers {
		if e.id == s.id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
