// Package realtime pushes re-organized comment threads to websocket clients.
package realtime

import "sync"

type subscriber chan struct{}

// Hub fans out "thread changed" notifications per post.
type Hub struct {
	mutex  sync.Mutex
	subs   map[int]map[subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]map[subscriber]struct{})}
}

// Subscribe registers interest in a post. The returned channel receives a
// value whenever the post's thread changes and is closed when the hub closes
// or cancel is called. Notifications coalesce: a subscriber that has not
// consumed the previous one misses nothing but the duplicate.
func (h *Hub) Subscribe(postID int) (<-chan struct{}, func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	ch := make(subscriber, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subs[postID] == nil {
		h.subs[postID] = make(map[subscriber]struct{})
	}
	h.subs[postID][ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mutex.Lock()
			defer h.mutex.Unlock()
			if _, ok := h.subs[postID][ch]; !ok {
				return
			}
			delete(h.subs[postID], ch)
			if len(h.subs[postID]) == 0 {
				delete(h.subs, postID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish notifies every subscriber of postID. It never blocks.
func (h *Hub) Publish(postID int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for ch := range h.subs[postID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns how many clients follow postID.
func (h *Hub) Subscribers(postID int) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.subs[postID])
}

// Close closes every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for postID, subs := range h.subs {
		for ch := range subs {
			close(ch)
		}
		delete(h.subs, postID)
	}
}
