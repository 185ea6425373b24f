// Package authstate distributes auth-state change events inside the
// process. It is the server-side analog of the provider SDK's auth-state
// subscription: sign-ins and sign-outs are announced to every subscriber so
// that logging, background work and anything else interested stay decoupled
// from the HTTP handlers that detect the change.
package authstate

import "sync"

// EventType identifies what changed.
type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// Event describes one auth-state change.
type Event struct {
	Type   EventType
	UserID string
	Email  string
}

// Listener receives events. Listeners run synchronously on the emitting
// goroutine and must not block.
type Listener func(Event)

// Broadcaster fans events out to subscribers in subscription order.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.listeners {
			if sub.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers the event to every current subscriber.
func (b *Broadcaster) Emit(event Event) {
	b.mu.Lock()
	listeners := make([]subscription, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(event)
	}
}
