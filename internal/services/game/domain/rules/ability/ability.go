// Package ability declares abilities and selects the ones available in a
// given situation.
package ability

import (
	"io"
	"log"
	"slices"
	"sort"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/condition"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/effect"
)

// Variant is an alternate form of an ability with its own trigger.
type Variant struct {
	ID       string          `json:"id" yaml:"id"`
	Trigger  *condition.Node `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Effects  []effect.Effect `json:"effects" yaml:"effects"`
	Tags     []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Priority int             `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Def declares one ability. A nil Trigger always matches.
type Def struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Trigger     *condition.Node    `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Effects     []effect.Effect    `json:"effects" yaml:"effects"`
	Tags        []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	Cost        map[string]float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Cooldown    int                `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	Variants    []Variant          `json:"variants,omitempty" yaml:"variants,omitempty"`
	UIHints     map[string]string  `json:"uiHints,omitempty" yaml:"uiHints,omitempty"`
}

// Context is the situation abilities are checked against. Phase, SourceID,
// and OwnerID are visible to triggers as the variables "phase", "sourceId",
// and "ownerId".
type Context struct {
	Phase       string
	SourceID    string
	OwnerID     string
	BlockedTags []string
	Vars        condition.Context
	Conditions  *condition.Registry
}

func (c Context) vars() condition.Context {
	out := make(condition.Context, len(c.Vars)+3)
	for k, v := range c.Vars {
		out[k] = v
	}
	out["phase"] = c.Phase
	out["sourceId"] = c.SourceID
	out["ownerId"] = c.OwnerID
	return out
}

// Registry holds one game's ability definitions.
type Registry struct {
	label  string
	logger *log.Logger
	defs   map[string]Def
}

// NewRegistry returns an empty registry. A nil logger discards warnings.
func NewRegistry(label string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry{label: label, logger: logger, defs: map[string]Def{}}
}

// Register adds def, replacing and warning about an existing id.
func (r *Registry) Register(def Def) {
	if _, exists := r.defs[def.ID]; exists {
		r.logger.Printf("%s: ability %q already registered, overwriting", r.label, def.ID)
	}
	r.defs[def.ID] = def
}

// RegisterAll registers every def in order.
func (r *Registry) RegisterAll(defs ...Def) {
	for _, def := range defs {
		r.Register(def)
	}
}

// Get returns the ability with id.
func (r *Registry) Get(id string) (Def, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.defs[id]
	return ok
}

// IDs returns registered ids, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// All returns every definition sorted by id.
func (r *Registry) All() []Def {
	out := make([]Def, 0, len(r.defs))
	for _, id := range r.IDs() {
		out = append(out, r.defs[id])
	}
	return out
}

// ByTag returns the abilities carrying tag.
func (r *Registry) ByTag(tag string) []Def {
	var out []Def
	for _, def := range r.All() {
		if slices.Contains(def.Tags, tag) {
			out = append(out, def)
		}
	}
	return out
}

// ByTrigger returns the abilities whose base trigger matches ctx.
func (r *Registry) ByTrigger(ctx Context) ([]Def, error) {
	vars := ctx.vars()
	var out []Def
	for _, def := range r.All() {
		ok, err := matches(def.Trigger, vars, ctx.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, def)
		}
	}
	return out, nil
}

// Available returns the ability and variant ids usable in ctx, in the order
// of ids. Abilities sharing a tag with ctx.BlockedTags are skipped. Matching
// variants contribute their own ids; when none match, the base trigger
// decides whether the ability id is included.
func (r *Registry) Available(ids []string, ctx Context) ([]string, error) {
	vars := ctx.vars()
	var out []string
	for _, id := range ids {
		def, ok := r.defs[id]
		if !ok || blocked(def.Tags, ctx.BlockedTags) {
			continue
		}
		var matched []Variant
		for _, v := range def.Variants {
			if blocked(v.Tags, ctx.BlockedTags) {
				continue
			}
			ok, err := matches(v.Trigger, vars, ctx.Conditions)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, v)
			}
		}
		if len(matched) > 0 {
			sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority > matched[j].Priority })
			for _, v := range matched {
				out = append(out, v.ID)
			}
			continue
		}
		ok, err := matches(def.Trigger, vars, ctx.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, def.ID)
		}
	}
	return out, nil
}

func matches(trigger *condition.Node, vars condition.Context, reg *condition.Registry) (bool, error) {
	if trigger == nil {
		return true, nil
	}
	return condition.Evaluate(*trigger, vars, reg)
}

func blocked(tags, blockedTags []string) bool {
	for _, t := range tags {
		if slices.Contains(blockedTags, t) {
			return true
		}
	}
	return false
}

// CanAfford reports whether resources cover every entry of cost.
func CanAfford(cost map[string]float64, resources map[string]float64) bool {
	for id, need := range cost {
		if resources[id] < need {
			return false
		}
	}
	return true
}

// FilterByTags drops the defs carrying any blocked tag.
func FilterByTags(defs []Def, blockedTags []string) []Def {
	if len(blockedTags) == 0 {
		return defs
	}
	var out []Def
	for _, def := range defs {
		if !blocked(def.Tags, blockedTags) {
			out = append(out, def)
		}
	}
	return out
}
