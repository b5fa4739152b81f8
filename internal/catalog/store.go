package catalog

import (
	"errors"
	"sort"

	"github.com/openuba/model-hub/internal/telemetry"
)

// ErrNotFound is returned by Resolve when no entry has the requested slug.
var ErrNotFound = errors.New("model not found")

// Store is the loaded, immutable registry
type Store struct {
	version    string
	updated    string
	models     []Entry
	index      map[string]int
	frameworks []string
	tags       []string
}

func newStore(reg Registry) *Store {
	s := &Store{
		version: reg.Version,
		updated: reg.Updated,
		models:  make([]Entry, len(reg.Models)),
		index:   make(map[string]int, len(reg.Models)),
	}

	frameworks := make(map[string]struct{})
	tags := make(map[string]struct{})
	for i, e := range reg.Models {
		e = e.clone()
		if e.Tags == nil {
			e.Tags = []string{}
		}
		if e.Parameters == nil {
			e.Parameters = []Parameter{}
		}
		s.models[i] = e
		s.index[e.Slug] = i

		frameworks[e.Framework] = struct{}{}
		for _, t := range e.Tags {
			tags[t] = struct{}{}
		}
	}
	s.frameworks = sortedKeys(frameworks)
	s.tags = sortedKeys(tags)

	telemetry.RegistryEntries.Set(float64(len(s.models)))
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry returns the document metadata together with a copy of all entries.
func (s *Store) Registry() Registry {
	return Registry{
		Version: s.version,
		Updated: s.updated,
		Models:  s.All(),
	}
}

// Version is the registry document version
func (s *Store) Version() string { return s.version }

// Updated is the registry document's last-updated stamp, as authored
func (s *Store) Updated() string { return s.updated }

// All returns every entry in source order
func (s *Store) All() []Entry {
	out := make([]Entry, len(s.models))
	for i, e := range s.models {
		out[i] = e.clone()
	}
	return out
}

// Len is the number of entries
func (s *Store) Len() int {
	return len(s.models)
}

// Frameworks returns the distinct frameworks, sorted
func (s *Store) Frameworks() []string {
	return append([]string(nil), s.frameworks...)
}

// Tags returns the distinct tags across all entries, sorted
func (s *Store) Tags() []string {
	return append([]string(nil), s.tags...)
}

// Resolve finds the entry whose slug equals slug exactly.
func (s *Store) Resolve(slug string) (Entry, error) {
	i, ok := s.index[slug]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return s.models[i].clone(), nil
}

