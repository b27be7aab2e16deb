// Package feed fans newly stored submissions out to live subscribers.
package feed

import (
	"sync"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

// subscriberBuffer is the number of undelivered submissions a subscriber may lag behind.
const subscriberBuffer = 16

// Hub broadcasts submissions to every current subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan store.Submission]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan store.Submission]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
// Subscribing to a closed hub yields an already closed channel.
func (h *Hub) Subscribe() (<-chan store.Submission, func()) {
	ch := make(chan store.Submission, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Close disconnects every subscriber. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// Publish delivers sub to every subscriber with buffer room and returns how many received it.
func (h *Hub) Publish(sub store.Submission) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs {
		select {
		case ch <- sub:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
