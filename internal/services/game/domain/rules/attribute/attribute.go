// Package attribute tracks bounded numeric attributes with modifier stacks.
package attribute

import (
	"sort"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/modifier"
)

// Def declares one attribute. Nil bounds are open.
type Def struct {
	ID      string
	Name    string
	Initial float64
	Min     *float64
	Max     *float64
}

func (d Def) clamp(v float64) float64 {
	if d.Min != nil && v < *d.Min {
		v = *d.Min
	}
	if d.Max != nil && v > *d.Max {
		v = *d.Max
	}
	return v
}

// State is one attribute's base value and modifiers.
type State[Ctx any] struct {
	Def       Def
	Base      float64
	Modifiers modifier.Stack[Ctx]
}

// Set is an immutable collection of attributes keyed by id.
type Set[Ctx any] struct {
	attrs map[string]State[Ctx]
}

// NewSet creates a set at each def's initial value.
func NewSet[Ctx any](defs ...Def) Set[Ctx] {
	s := Set[Ctx]{attrs: make(map[string]State[Ctx], len(defs))}
	for _, def := range defs {
		s.attrs[def.ID] = State[Ctx]{Def: def, Base: def.clamp(def.Initial)}
	}
	return s
}

func (s Set[Ctx]) with(id string, st State[Ctx]) Set[Ctx] {
	out := Set[Ctx]{attrs: make(map[string]State[Ctx], len(s.attrs))}
	for k, v := range s.attrs {
		out.attrs[k] = v
	}
	out.attrs[id] = st
	return out
}

// Has reports whether id is declared.
func (s Set[Ctx]) Has(id string) bool {
	_, ok := s.attrs[id]
	return ok
}

// IDs returns declared attribute ids, sorted.
func (s Set[Ctx]) IDs() []string {
	out := make([]string, 0, len(s.attrs))
	for id := range s.attrs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Def returns the definition of id.
func (s Set[Ctx]) Def(id string) (Def, bool) {
	st, ok := s.attrs[id]
	return st.Def, ok
}

// Base returns the unmodified value of id, or zero when undeclared.
func (s Set[Ctx]) Base(id string) float64 {
	return s.attrs[id].Base
}

// SetBase sets the base value of id within bounds. Undeclared ids are ignored.
func (s Set[Ctx]) SetBase(id string, v float64) Set[Ctx] {
	st, ok := s.attrs[id]
	if !ok {
		return s
	}
	st.Base = st.Def.clamp(v)
	return s.with(id, st)
}

// ModifyBase adds delta to the base value of id.
func (s Set[Ctx]) ModifyBase(id string, delta float64) Set[Ctx] {
	st, ok := s.attrs[id]
	if !ok {
		return s
	}
	return s.SetBase(id, st.Base+delta)
}

// Current applies the modifiers of id and clamps the result.
func (s Set[Ctx]) Current(id string, ctx Ctx) float64 {
	st, ok := s.attrs[id]
	if !ok {
		return 0
	}
	return st.Def.clamp(modifier.Value(st.Base, st.Modifiers, ctx))
}

// AllCurrent returns Current for every attribute.
func (s Set[Ctx]) AllCurrent(ctx Ctx) map[string]float64 {
	out := make(map[string]float64, len(s.attrs))
	for id := range s.attrs {
		out[id] = s.Current(id, ctx)
	}
	return out
}

// AddModifier attaches def to id.
func (s Set[Ctx]) AddModifier(id string, def modifier.Def[Ctx]) Set[Ctx] {
	st, ok := s.attrs[id]
	if !ok {
		return s
	}
	st.Modifiers = st.Modifiers.Add(def)
	return s.with(id, st)
}

// RemoveModifier detaches modifierID from id.
func (s Set[Ctx]) RemoveModifier(id, modifierID string) Set[Ctx] {
	st, ok := s.attrs[id]
	if !ok {
		return s
	}
	st.Modifiers = st.Modifiers.Remove(modifierID)
	return s.with(id, st)
}

// RemoveBySource detaches every modifier from source across all attributes.
func (s Set[Ctx]) RemoveBySource(source string) Set[Ctx] {
	out := Set[Ctx]{attrs: make(map[string]State[Ctx], len(s.attrs))}
	for id, st := range s.attrs {
		st.Modifiers = st.Modifiers.RemoveBySource(source)
		out.attrs[id] = st
	}
	return out
}

// Tick advances every modifier duration. Expired ids are keyed by attribute.
func (s Set[Ctx]) Tick() (Set[Ctx], map[string][]string) {
	out := Set[Ctx]{attrs: make(map[string]State[Ctx], len(s.attrs))}
	expired := map[string][]string{}
	for id, st := range s.attrs {
		var gone []string
		st.Modifiers, gone = st.Modifiers.Tick()
		if len(gone) > 0 {
			expired[id] = gone
		}
		out.attrs[id] = st
	}
	return out, expired
}

// Float returns a pointer to v, for bounds.
func Float(v float64) *float64 { return &v }
