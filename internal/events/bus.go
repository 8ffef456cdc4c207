// Package events provides a simple publish-subscribe bus for store changes.
package events

import (
	"sync"

	"github.com/google/uuid"
)

const subBufferSize = 8

// Subscription is a registered listener on a Bus.
type Subscription[T any] struct {
	// ID identifies the subscription for Unsubscribe.
	ID string

	// C receives published values. It is closed by Unsubscribe.
	C <-chan T
}

// Bus is a non-blocking publish-subscribe event bus.
// Subscribers that are slow to consume events will have events dropped rather
// than blocking publishers.
type Bus[T any] struct {
	mu   sync.Mutex
	subs map[string]chan T
}

// NewBus creates a new event bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		subs: make(map[string]chan T),
	}
}

// Subscribe creates a new subscription.
// Call Unsubscribe with the returned ID when done to clean up.
func (b *Bus[T]) Subscribe() Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan T, subBufferSize)
	b.subs[id] = ch
	return Subscription[T]{ID: id, C: ch}
}

// Unsubscribe removes a subscription and closes its channel.
// Unknown IDs are ignored.
func (b *Bus[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends v to all subscribers.
// If a subscriber's channel is full, the event is dropped (non-blocking).
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
