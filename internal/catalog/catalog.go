// Package catalog holds the model registry: the immutable in-memory store built
// from a registry document, slug resolution, search and filtering, and the
// install command shown for each model.
//
// A Store is loaded once at startup and never mutated afterwards, so it can be
// shared by every request goroutine without locking. Accessors that return
// sequences hand out fresh copies.
package catalog

import "slices"

// Entry is one model package in the registry
type Entry struct {
	Name        string      `json:"name" yaml:"name"`
	Slug        string      `json:"slug" yaml:"slug"`
	Version     string      `json:"version" yaml:"version"`
	Runtime     string      `json:"runtime" yaml:"runtime"`
	Framework   string      `json:"framework" yaml:"framework"`
	Description string      `json:"description" yaml:"description"`
	Author      string      `json:"author" yaml:"author"`
	License     string      `json:"license" yaml:"license"`
	Tags        []string    `json:"tags" yaml:"tags"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
	// Path locates the model's artifacts relative to the artifact root.
	Path string `json:"path" yaml:"path"`
}

// Parameter is a declared tunable of a model
type Parameter struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Default     Value    `json:"default" yaml:"default"`
	Description string   `json:"description" yaml:"description"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Registry is the decoded registry document
type Registry struct {
	Version string  `json:"version" yaml:"version"`
	Updated string  `json:"updated" yaml:"updated"`
	Models  []Entry `json:"models" yaml:"models"`
}

// clone returns a deep copy so callers cannot reach the store's slices.
func (e Entry) clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	if e.Parameters != nil {
		params := make([]Parameter, len(e.Parameters))
		for i, p := range e.Parameters {
			p.Enum = slices.Clone(p.Enum)
			params[i] = p
		}
		e.Parameters = params
	}
	return e
}

// DisplayTags returns at most n tags in authored order, as shown on listing cards.
func (e Entry) DisplayTags(n int) []string {
	if n > len(e.Tags) {
		n = len(e.Tags)
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(e.Tags[:n])
}
