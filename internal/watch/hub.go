// Package watch provides in-process change notification keyed by table name and
// the reactive read streams built on top of it.
package watch

import "sync"

// Hub fans out table change notifications to subscribers.
// The zero value is not usable; create one with NewHub.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
}

type subscription struct {
	tables map[string]struct{}
	signal chan struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

// Notify signals every subscriber interested in any of the given tables.
// It never blocks: a subscriber that has not consumed its previous signal
// simply keeps the one pending signal.
func (h *Hub) Notify(tables ...string) {
	if len(tables) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		if !s.interested(tables) {
			continue
		}
		select {
		case s.signal <- struct{}{}:
		default:
		}
	}
}

// watch registers interest in tables. The returned channel receives a value after
// each change; cancel must be called to unregister.
func (h *Hub) watch(tables []string) (<-chan struct{}, func()) {
	s := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = s
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
	return s.signal, cancel
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *subscription) interested(tables []string) bool {
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}
