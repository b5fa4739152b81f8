package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/openuba/model-hub/internal/notify"
)

// SessionCookie carries the visitor session ID
const SessionCookie = "mh_session"

// Sessions keeps per-visitor notification state in a TTL cache. Expired
// sessions are closed so their pending search reports are dropped.
type Sessions struct {
	items    *cache.Cache
	ttl      time.Duration
	notifier notify.Notifier
	debounce time.Duration
}

// NewSessions creates a session store whose entries expire after ttl of inactivity.
func NewSessions(ttl time.Duration, notifier notify.Notifier, debounce time.Duration) *Sessions {
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*notify.Session); ok {
			s.Close()
		}
	})
	return &Sessions{items: c, ttl: ttl, notifier: notifier, debounce: debounce}
}

// Lookup returns the visitor's live session, or nil when the request carries
// no known session cookie. A hit extends the session's lifetime.
func (s *Sessions) Lookup(c *gin.Context) *notify.Session {
	id, err := c.Cookie(SessionCookie)
	if err != nil || id == "" {
		return nil
	}
	v, found := s.items.Get(id)
	if !found {
		return nil
	}
	sess := v.(*notify.Session)
	s.items.SetDefault(id, sess)
	return sess
}

// Get returns the session for the request, creating one and setting the
// cookie when the visitor has none or theirs expired. Call it only when there
// is something to record.
func (s *Sessions) Get(c *gin.Context) *notify.Session {
	if sess := s.Lookup(c); sess != nil {
		return sess
	}

	id := uuid.New().String()
	sess := notify.NewSession(id, s.notifier, s.debounce)
	s.items.SetDefault(id, sess)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(s.ttl.Seconds()), "/", "", false, true)
	return sess
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	return s.items.ItemCount()
}

// Close closes and drops every session
func (s *Sessions) Close() {
	for id := range s.items.Items() {
		s.items.Delete(id)
	}
}
