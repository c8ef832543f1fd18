// Package modifier implements ordered numeric modifier stacks.
package modifier

import "sort"

// Kind selects how a modifier changes the running value.
type Kind string

const (
	Flat     Kind = "flat"
	Percent  Kind = "percent"
	Compute  Kind = "compute"
	Override Kind = "override"
)

var kindOrder = map[Kind]int{Flat: 0, Percent: 1, Compute: 2, Override: 3}

// Def describes one modifier. Ctx is the game-defined evaluation context.
type Def[Ctx any] struct {
	ID       string
	Source   string
	Kind     Kind
	Priority int
	Value    float64
	// Compute is required for Compute modifiers.
	Compute func(current float64, ctx Ctx) float64
	// Condition, when set, skips the modifier if it returns false.
	Condition   func(ctx Ctx) bool
	Duration    *int
	Description string
}

type entry[Ctx any] struct {
	def   Def[Ctx]
	order int
}

// Stack is an immutable list of modifiers.
type Stack[Ctx any] struct {
	entries   []entry[Ctx]
	nextOrder int
}

// Result reports the applied value and which modifiers ran.
type Result struct {
	Value   float64
	Applied []string
	Skipped []string
}

// Add returns a stack with def appended, replacing a modifier with the same id.
func (s Stack[Ctx]) Add(def Def[Ctx]) Stack[Ctx] {
	out := Stack[Ctx]{nextOrder: s.nextOrder + 1}
	for _, e := range s.entries {
		if e.def.ID != def.ID {
			out.entries = append(out.entries, e)
		}
	}
	out.entries = append(out.entries, entry[Ctx]{def: def, order: s.nextOrder})
	return out
}

// AddAll adds every def in order.
func (s Stack[Ctx]) AddAll(defs ...Def[Ctx]) Stack[Ctx] {
	for _, def := range defs {
		s = s.Add(def)
	}
	return s
}

// Remove drops the modifier with id.
func (s Stack[Ctx]) Remove(id string) Stack[Ctx] {
	return s.filter(func(d Def[Ctx]) bool { return d.ID != id })
}

// RemoveBySource drops every modifier from source.
func (s Stack[Ctx]) RemoveBySource(source string) Stack[Ctx] {
	return s.filter(func(d Def[Ctx]) bool { return d.Source != source })
}

func (s Stack[Ctx]) filter(keep func(Def[Ctx]) bool) Stack[Ctx] {
	out := Stack[Ctx]{nextOrder: s.nextOrder}
	for _, e := range s.entries {
		if keep(e.def) {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// Get returns the modifier with id.
func (s Stack[Ctx]) Get(id string) (Def[Ctx], bool) {
	for _, e := range s.entries {
		if e.def.ID == id {
			return e.def, true
		}
	}
	return Def[Ctx]{}, false
}

// BySource returns the modifiers from source in insertion order.
func (s Stack[Ctx]) BySource(source string) []Def[Ctx] {
	var out []Def[Ctx]
	for _, e := range s.entries {
		if e.def.Source == source {
			out = append(out, e.def)
		}
	}
	return out
}

// All returns every modifier in insertion order.
func (s Stack[Ctx]) All() []Def[Ctx] {
	out := make([]Def[Ctx], 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.def)
	}
	return out
}

// Len returns the number of modifiers.
func (s Stack[Ctx]) Len() int { return len(s.entries) }

// Apply runs the stack over base ordered by priority, kind, and insertion.
func Apply[Ctx any](base float64, s Stack[Ctx], ctx Ctx) Result {
	sorted := append([]entry[Ctx](nil), s.entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.def.Priority != b.def.Priority {
			return a.def.Priority < b.def.Priority
		}
		if kindOrder[a.def.Kind] != kindOrder[b.def.Kind] {
			return kindOrder[a.def.Kind] < kindOrder[b.def.Kind]
		}
		return a.order < b.order
	})

	res := Result{Value: base}
	for _, e := range sorted {
		def := e.def
		if def.Condition != nil && !def.Condition(ctx) {
			res.Skipped = append(res.Skipped, def.ID)
			continue
		}
		switch def.Kind {
		case Flat:
			res.Value += def.Value
		case Percent:
			res.Value *= 1 + def.Value/100
		case Compute:
			if def.Compute != nil {
				res.Value = def.Compute(res.Value, ctx)
			}
		case Override:
			res.Value = def.Value
		}
		res.Applied = append(res.Applied, def.ID)
	}
	return res
}

// Value is Apply returning only the final value.
func Value[Ctx any](base float64, s Stack[Ctx], ctx Ctx) float64 {
	return Apply(base, s, ctx).Value
}

// Tick decrements timed modifiers and returns the ids that expired.
func (s Stack[Ctx]) Tick() (Stack[Ctx], []string) {
	out := Stack[Ctx]{nextOrder: s.nextOrder}
	var expired []string
	for _, e := range s.entries {
		if e.def.Duration == nil {
			out.entries = append(out.entries, e)
			continue
		}
		d := *e.def.Duration - 1
		if d <= 0 {
			expired = append(expired, e.def.ID)
			continue
		}
		e.def.Duration = &d
		out.entries = append(out.entries, e)
	}
	return out, expired
}
