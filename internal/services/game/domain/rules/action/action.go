// Package action provides a registry of named action handlers.
package action

import (
	"io"
	"log"
	"slices"
	"sort"
)

// Handler runs one action.
type Handler[Ctx, Res any] func(ctx Ctx) Res

// Meta describes a handler for lookups by category.
type Meta struct {
	Categories          []string
	RequiresInteraction bool
}

type entry[Ctx, Res any] struct {
	handler Handler[Ctx, Res]
	meta    Meta
}

// Entry is a registered handler returned by ByCategory.
type Entry[Ctx, Res any] struct {
	ID      string
	Handler Handler[Ctx, Res]
	Meta    Meta
}

// Registry maps action ids to handlers for one game.
type Registry[Ctx, Res any] struct {
	label   string
	logger  *log.Logger
	entries map[string]entry[Ctx, Res]
}

// NewRegistry returns an empty registry. A nil logger discards warnings.
func NewRegistry[Ctx, Res any](label string, logger *log.Logger) *Registry[Ctx, Res] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry[Ctx, Res]{label: label, logger: logger, entries: map[string]entry[Ctx, Res]{}}
}

// Register adds a handler. Registering an existing id replaces it and logs a warning.
func (r *Registry[Ctx, Res]) Register(id string, h Handler[Ctx, Res], meta Meta) {
	if _, exists := r.entries[id]; exists {
		r.logger.Printf("%s: action %q already registered, overwriting", r.label, id)
	}
	r.entries[id] = entry[Ctx, Res]{handler: h, meta: meta}
}

// Get returns the handler for id.
func (r *Registry[Ctx, Res]) Get(id string) (Handler[Ctx, Res], bool) {
	e, ok := r.entries[id]
	return e.handler, ok
}

// Meta returns the metadata for id.
func (r *Registry[Ctx, Res]) Meta(id string) (Meta, bool) {
	e, ok := r.entries[id]
	return e.meta, ok
}

// Has reports whether id is registered.
func (r *Registry[Ctx, Res]) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of handlers.
func (r *Registry[Ctx, Res]) Len() int { return len(r.entries) }

// IDs returns the registered ids, sorted.
func (r *Registry[Ctx, Res]) IDs() []string {
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the handlers tagged with category, sorted by id.
func (r *Registry[Ctx, Res]) ByCategory(category string) []Entry[Ctx, Res] {
	var out []Entry[Ctx, Res]
	for _, id := range r.IDs() {
		e := r.entries[id]
		if slices.Contains(e.meta.Categories, category) {
			out = append(out, Entry[Ctx, Res]{ID: id, Handler: e.handler, Meta: e.meta})
		}
	}
	return out
}
