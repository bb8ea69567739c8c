// Package events is a small in-process fan-out used to surface ingestion
// activity to streaming clients.
package events

import (
	"sync"
	"time"
)

// Event types emitted by the ingestion pipeline.
const (
	TypeProviderRefreshed = "provider_refreshed"
	TypeFetchExhausted    = "fetch_exhausted"
	TypeBatchWritten      = "batch_written"
)

// Event is one ingestion occurrence.
type Event struct {
	Type     string    `json:"type"`
	Provider string    `json:"provider,omitempty"`
	Count    int       `json:"count"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than blocking the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber that has buffer room.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// SubscriberCount reports the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
