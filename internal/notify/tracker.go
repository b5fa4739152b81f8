package notify

import "sync"

// Tracker remembers which one-time notifications were already sent. One
// Tracker lives per session (or per static build), never per process.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// HasSeen reports whether key was marked
func (t *Tracker) HasSeen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[key]
	return ok
}

// MarkSeen marks key and reports whether this call was the first to do so.
func (t *Tracker) MarkSeen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Len is the number of marked keys
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
