package engine

import (
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// System is a pluggable engine concern. It implements any of BeforeCommander,
// AfterEventer, and Initializer.
type System[C any] interface {
	ID() string
}

// BeforeCommander runs before the domain sees a command.
type BeforeCommander[C any] interface {
	BeforeCommand(ctx HookContext[C]) *HookResult[C]
}

// AfterEventer runs after the domain produced its events.
type AfterEventer[C any] interface {
	AfterEvents(ctx HookContext[C]) *HookResult[C]
}

// Initializer seeds the System's sub-state for a new match.
type Initializer interface {
	Init(sys *match.EngineState, playerIDs []string)
}

// HookContext is what a hook sees. Events is the batch accumulated so far.
type HookContext[C any] struct {
	State     match.State[C]
	Command   command.Command
	Events    []event.Event
	Random    random.Fn
	PlayerIDs []string
}

// HookResult is a hook's verdict. A nil result means pass-through.
type HookResult[C any] struct {
	// State replaces the working state when set.
	State *match.State[C]
	// Events are appended to the batch.
	Events []event.Event
	// Halt stops the pipeline. With Err set the command is rejected.
	Halt bool
	Err  error
}

// Continue returns a non-halting result.
func Continue[C any](state match.State[C], events ...event.Event) *HookResult[C] {
	return &HookResult[C]{State: &state, Events: events}
}

// Stop returns a halting result that commits state and events.
func Stop[C any](state match.State[C], events ...event.Event) *HookResult[C] {
	return &HookResult[C]{State: &state, Events: events, Halt: true}
}

// Reject returns a halting result carrying err.
func Reject[C any](err error) *HookResult[C] {
	return &HookResult[C]{Halt: true, Err: err}
}

// Domain is a game's rules. Validate rejects commands with a coded error;
// Execute is only called on validated commands and must not fail.
type Domain[C any] interface {
	Validate(state match.State[C], cmd command.Command) error
	Execute(state match.State[C], cmd command.Command, r random.Fn) (C, []event.Event)
}
