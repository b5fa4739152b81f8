package notify

import (
	"context"
	"time"
)

// Session bundles the per-visitor notification state: which models were
// already reported as viewed and the pending search report.
type Session struct {
	ID       string
	notifier Notifier
	viewed   *Tracker
	search   *Debouncer
	now      func() time.Time
}

// NewSession creates the notification state for one visitor.
func NewSession(id string, notifier Notifier, debounce time.Duration) *Session {
	s := &Session{
		ID:       id,
		notifier: notifier,
		viewed:   NewTracker(),
		now:      time.Now,
	}
	s.search = NewDebouncer(debounce, func(query string, count int) {
		notifier.SearchPerformed(context.Background(), SearchEvent{
			Session:     id,
			Query:       query,
			ResultCount: count,
			At:          s.now(),
		})
	})
	return s
}

// Viewed reports a detail view the first time this session opens slug and
// returns whether a notification was sent.
func (s *Session) Viewed(ctx context.Context, slug, name string) bool {
	if !s.viewed.MarkSeen(slug) {
		return false
	}
	s.notifier.ModelViewed(ctx, ViewEvent{Session: s.ID, Slug: slug, Name: name, At: s.now()})
	return true
}

// Searched schedules a debounced search report
func (s *Session) Searched(query string, count int) {
	s.search.Trigger(query, count)
}

// Close cancels any pending search report
func (s *Session) Close() {
	s.search.Stop()
}
