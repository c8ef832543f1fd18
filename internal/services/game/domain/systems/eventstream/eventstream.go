// Package eventstream assigns ids to emitted events and keeps a bounded
// stream that consumers read through a Cursor.
//
// Ids strictly increase within one lineage. Undo restores both the entries
// and the next id, which is how consumers notice a rollback: the largest id
// they can see drops below the position they already consumed.
package eventstream

import (
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the event stream system.
const SystemID = "eventstream"

// DefaultMaxEntries bounds the stream when Config leaves it unset.
const DefaultMaxEntries = 200

// Config configures the event stream.
type Config struct {
	MaxEntries int
}

// System is the event stream System.
type System[C any] struct {
	maxEntries int
}

// New builds an event stream system.
func New[C any](cfg Config) *System[C] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &System[C]{maxEntries: cfg.MaxEntries}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// Init implements engine.Initializer.
func (s *System[C]) Init(sys *match.EngineState, _ []string) {
	sys.EventStream = match.EventStreamState{MaxEntries: s.maxEntries, NextID: 1}
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	if len(ctx.Events) == 0 {
		return nil
	}
	next := ctx.State
	next.Sys.EventStream = Append(ctx.State.Sys.EventStream, s.maxEntries, ctx.Events...)
	return engine.Continue(next)
}
