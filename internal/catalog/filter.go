package catalog

import (
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/openuba/model-hub/internal/telemetry"
)

// AllFrameworks is the filter bar value that selects every framework.
const AllFrameworks = "All"

// Query holds the optional search constraints. A nil Framework means no
// framework filter; empty or whitespace Text means no text filter. Non-blank
// Text is matched as typed, surrounding spaces included.
type Query struct {
	Text      string
	Framework *string
}

// Framework returns a Query framework value for f
func Framework(f string) *string { return &f }

// ParseFramework maps the filter bar value to a Query framework. Only "" and
// AllFrameworks select every framework; anything else is matched exactly.
func ParseFramework(s string) *string {
	if s == "" || s == AllFrameworks {
		return nil
	}
	return &s
}

// Filter narrows entries to those matching q. The framework filter applies
// first, then the case-insensitive text match against name, description,
// framework and tags. Input order is kept and the result is never nil.
func Filter(entries []Entry, q Query) []Entry {
	hasText := strings.TrimSpace(q.Text) != ""
	text := strings.ToLower(q.Text)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if q.Framework != nil && e.Framework != *q.Framework {
			continue
		}
		if hasText && !matchesText(e, text) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesText expects needle already lower-cased.
func matchesText(e Entry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle) ||
		strings.Contains(strings.ToLower(e.Framework), needle) {
		return true
	}
	return slices.ContainsFunc(e.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), needle)
	})
}

// Search filters the whole store.
func (s *Store) Search(q Query) []Entry {
	out := Filter(s.All(), q)
	recordSearch(q, len(out))
	return out
}

func recordSearch(q Query, results int) {
	telemetry.SearchesTotal.WithLabelValues(strconv.FormatBool(q.Framework != nil)).Inc()
	telemetry.SearchResults.Observe(float64(results))
}

// Memo caches filtered views of one store keyed by the query text and
// framework. Views expire after the TTL so arbitrary query text cannot grow
// it without bound. It is safe for concurrent use.
type Memo struct {
	store    *Store
	cache    *gocache.Cache
	computed atomic.Int64
}

// NewMemo remembers each distinct query against store for ttl
func NewMemo(store *Store, ttl time.Duration) *Memo {
	return &Memo{
		store: store,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// memoKey separates "no framework" from a framework named "".
func memoKey(q Query) string {
	if q.Framework == nil {
		return "-\x00" + q.Text
	}
	return "+" + *q.Framework + "\x00" + q.Text
}

// Search returns the filtered view for q, reusing an earlier result for the
// same text and framework. The returned slice is a copy.
func (m *Memo) Search(q Query) []Entry {
	key := memoKey(q)

	var view []Entry
	if v, found := m.cache.Get(key); found {
		view, _ = v.([]Entry)
	}
	if view == nil {
		view = Filter(m.store.All(), q)
		m.cache.SetDefault(key, view)
		m.computed.Add(1)
	}
	recordSearch(q, len(view))

	out := make([]Entry, len(view))
	for i, e := range view {
		out[i] = e.clone()
	}
	return out
}
