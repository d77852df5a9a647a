// Package observe provides the publish/subscribe mechanism the stores
// and controllers use to notify the UI about committed state changes.
// A subscriber is called exactly once per Publish, after the publisher
// has released its own locks, so reads from the callback always see a
// fully committed snapshot.
package observe

import "sync"

// Unsubscribe removes a subscription when called. Safe to call more
// than once.
type Unsubscribe func()

// Hub fans a change signal out to subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// Subscribe registers fn to run on every subsequent Publish.
func (h *Hub) Subscribe(fn func()) Unsubscribe {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func())
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish invokes every current subscriber once. Callbacks run outside
// the hub lock; a subscriber may unsubscribe itself.
func (h *Hub) Publish() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
