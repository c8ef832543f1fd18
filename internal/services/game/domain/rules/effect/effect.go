// Package effect dispatches declarative effects to game-registered handlers.
//
// The engine assigns no meaning to effect types. A game either registers its
// own handlers or binds the built-in action kinds to its GameContext with
// RegisterActions.
package effect

import (
	"sort"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/target"
)

// Type names an effect kind.
type Type string

// Built-in action kinds understood by ApplyAction.
const (
	Damage       Type = "damage"
	Heal         Type = "heal"
	GrantStatus  Type = "grantStatus"
	RemoveStatus Type = "removeStatus"
	Custom       Type = "custom"
)

// Effect is one declared effect.
type Effect struct {
	Type     Type           `json:"type" yaml:"type"`
	Target   target.Ref     `json:"target" yaml:"target"`
	Amount   int            `json:"amount,omitempty" yaml:"amount,omitempty"`
	Status   string         `json:"status,omitempty" yaml:"status,omitempty"`
	Stacks   int            `json:"stacks,omitempty" yaml:"stacks,omitempty"`
	Duration *int           `json:"duration,omitempty" yaml:"duration,omitempty"`
	ActionID string         `json:"actionId,omitempty" yaml:"actionId,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Context is the input to a handler.
type Context[S any] struct {
	State     S
	Targets   target.Context
	Resolver  *target.Registry
	Timestamp int64
}

// Result is the state after an effect and the events it produced.
type Result[S any] struct {
	State  S
	Events []event.Event
}

// Handler executes one effect type.
type Handler[S any] func(eff Effect, ctx Context[S]) (Result[S], error)

// Registry maps effect types to handlers for one game.
type Registry[S any] struct {
	handlers map[Type]Handler[S]
}

// NewRegistry returns an empty registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{handlers: map[Type]Handler[S]{}}
}

// Register adds or replaces the handler for t.
func (r *Registry[S]) Register(t Type, h Handler[S]) {
	r.handlers[t] = h
}

// Has reports whether t has a handler.
func (r *Registry[S]) Has(t Type) bool {
	_, ok := r.handlers[t]
	return ok
}

// Types returns the registered types, sorted.
func (r *Registry[S]) Types() []Type {
	out := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Execute runs eff. An unregistered type leaves the state unchanged.
func (r *Registry[S]) Execute(eff Effect, ctx Context[S]) (Result[S], error) {
	h, ok := r.handlers[eff.Type]
	if !ok {
		return Result[S]{State: ctx.State}, nil
	}
	return h(eff, ctx)
}

// ExecuteAll runs effects in order, threading state and collecting events.
func (r *Registry[S]) ExecuteAll(effects []Effect, ctx Context[S]) (Result[S], error) {
	res := Result[S]{State: ctx.State}
	for _, eff := range effects {
		ctx.State = res.State
		step, err := r.Execute(eff, ctx)
		if err != nil {
			return Result[S]{State: ctx.State}, err
		}
		res.State = step.State
		res.Events = append(res.Events, step.Events...)
	}
	return res, nil
}

// GameContext is the set of capabilities a game exposes to the built-in
// action kinds.
type GameContext[S any] interface {
	ApplyDamage(state S, targetID string, amount int) (S, []event.Event)
	ApplyHeal(state S, targetID string, amount int) (S, []event.Event)
	GrantStatus(state S, targetID, status string, stacks int, duration *int) (S, []event.Event)
	RemoveStatus(state S, targetID, status string, stacks int) (S, []event.Event)
}

// CustomActionExecutor is the optional capability behind Custom effects.
type CustomActionExecutor[S any] interface {
	ExecuteCustomAction(state S, actionID string, params map[string]any, targetIDs []string) (S, []event.Event)
}

// ApplyAction runs a built-in action kind against gc. Custom effects are a
// no-op when gc does not implement CustomActionExecutor. An effect without a
// target kind has no targets.
func ApplyAction[S any](gc GameContext[S], eff Effect, ctx Context[S]) (Result[S], error) {
	var targets []string
	if eff.Target.Kind != "" {
		ids, err := ctx.Resolver.Resolve(eff.Target, ctx.Targets)
		if err != nil {
			return Result[S]{State: ctx.State}, err
		}
		targets = ids
	}

	state := ctx.State
	var events []event.Event
	apply := func(next S, evts []event.Event) {
		state = next
		events = append(events, evts...)
	}
	stacks := eff.Stacks
	if stacks == 0 {
		stacks = 1
	}

	switch eff.Type {
	case Damage:
		for _, id := range targets {
			apply(gc.ApplyDamage(state, id, eff.Amount))
		}
	case Heal:
		for _, id := range targets {
			apply(gc.ApplyHeal(state, id, eff.Amount))
		}
	case GrantStatus:
		for _, id := range targets {
			apply(gc.GrantStatus(state, id, eff.Status, stacks, eff.Duration))
		}
	case RemoveStatus:
		for _, id := range targets {
			apply(gc.RemoveStatus(state, id, eff.Status, eff.Stacks))
		}
	case Custom:
		if custom, ok := gc.(CustomActionExecutor[S]); ok {
			apply(custom.ExecuteCustomAction(state, eff.ActionID, eff.Params, targets))
		}
	}
	return Result[S]{State: state, Events: events}, nil
}

// RegisterActions binds every built-in action kind in r to gc.
func RegisterActions[S any](r *Registry[S], gc GameContext[S]) {
	h := func(eff Effect, ctx Context[S]) (Result[S], error) {
		return ApplyAction(gc, eff, ctx)
	}
	for _, t := range []Type{Damage, Heal, GrantStatus, RemoveStatus, Custom} {
		r.Register(t, h)
	}
}
