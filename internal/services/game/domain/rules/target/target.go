// Package target resolves target references to entity ids.
package target

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

// Kind names a target reference kind.
type Kind string

const (
	Self     Kind = "self"
	Opponent Kind = "opponent"
	All      Kind = "all"
)

// Ref is a declarative target reference, such as {"kind":"adjacentEnemies"}.
type Ref struct {
	Kind   Kind           `json:"kind" yaml:"kind"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Context describes who is acting. Data carries game state for custom resolvers.
type Context struct {
	SelfID    string
	OwnerID   string
	PlayerIDs []string
	Data      any
}

// Resolver resolves a custom reference kind.
type Resolver func(ref Ref, ctx Context) ([]string, error)

// Registry holds a game's custom reference kinds.
type Registry struct {
	resolvers map[Kind]Resolver
}

// NewRegistry returns a registry with only the built-in kinds.
func NewRegistry() *Registry {
	return &Registry{resolvers: map[Kind]Resolver{}}
}

// Register adds a custom kind. Built-in kinds cannot be replaced.
func (r *Registry) Register(kind Kind, resolver Resolver) error {
	kind = Kind(strings.TrimSpace(string(kind)))
	if kind == "" {
		return fmt.Errorf("target kind is required")
	}
	if isBuiltin(kind) {
		return fmt.Errorf("target kind %q is built in", kind)
	}
	if resolver == nil {
		return fmt.Errorf("target kind %q: resolver is required", kind)
	}
	r.resolvers[kind] = resolver
	return nil
}

// Kinds returns the custom kinds, sorted.
func (r *Registry) Kinds() []Kind {
	if r == nil {
		return nil
	}
	out := make([]Kind, 0, len(r.resolvers))
	for k := range r.resolvers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve returns the entity ids ref points at. A nil registry resolves only
// the built-in kinds.
func (r *Registry) Resolve(ref Ref, ctx Context) ([]string, error) {
	switch ref.Kind {
	case Self:
		if ctx.SelfID == "" {
			return nil, nil
		}
		return []string{ctx.SelfID}, nil
	case Opponent:
		var out []string
		for _, id := range ctx.PlayerIDs {
			if id != ctx.OwnerID {
				out = append(out, id)
			}
		}
		return out, nil
	case All:
		return append([]string(nil), ctx.PlayerIDs...), nil
	}
	if r != nil {
		if resolver, ok := r.resolvers[ref.Kind]; ok {
			return resolver(ref, ctx)
		}
	}
	return nil, apperrors.WithMetadata(apperrors.CodeTargetUnknown, "target kind is not registered", map[string]string{"Kind": string(ref.Kind)})
}

func isBuiltin(kind Kind) bool {
	return kind == Self || kind == Opponent || kind == All
}
