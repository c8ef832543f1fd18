// Package actionlog records player-facing entries for allowlisted commands.
package actionlog

import (
	"fmt"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the action log system.
const SystemID = "actionlog"

// DefaultMaxEntries bounds the log when Config leaves it unset.
const DefaultMaxEntries = 50

// Formatter turns an accepted command into log entries. Returning nil skips
// the command.
type Formatter[C any] func(cmd command.Command, events []event.Event, state match.State[C]) []match.ActionLogEntry

// Config configures the action log.
type Config[C any] struct {
	Allowlist  command.Allowlist
	MaxEntries int
	Format     Formatter[C]
}

// System is the action log System.
type System[C any] struct {
	cfg Config[C]
}

// New builds an action log system. A nil Format uses DefaultEntry.
func New[C any](cfg Config[C]) *System[C] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Format == nil {
		cfg.Format = func(cmd command.Command, events []event.Event, _ match.State[C]) []match.ActionLogEntry {
			return []match.ActionLogEntry{DefaultEntry(cmd, events, 0)}
		}
	}
	return &System[C]{cfg: cfg}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// Init implements engine.Initializer.
func (s *System[C]) Init(sys *match.EngineState, _ []string) {
	sys.ActionLog = match.ActionLogState{MaxEntries: s.cfg.MaxEntries}
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	if !s.cfg.Allowlist.Allows(ctx.Command.Type) {
		return nil
	}
	added := s.cfg.Format(ctx.Command, ctx.Events, ctx.State)
	if len(added) == 0 {
		return nil
	}
	current := ctx.State.Sys.ActionLog
	limit := current.MaxEntries
	if limit <= 0 {
		limit = s.cfg.MaxEntries
	}
	entries := make([]match.ActionLogEntry, 0, len(current.Entries)+len(added))
	entries = append(entries, current.Entries...)
	entries = append(entries, added...)
	if over := len(entries) - limit; over > 0 {
		entries = append([]match.ActionLogEntry(nil), entries[over:]...)
	}

	next := ctx.State
	next.Sys.ActionLog = match.ActionLogState{Entries: entries, MaxEntries: limit}
	return engine.Continue(next)
}

// DefaultEntry builds the standard entry for a command. n disambiguates
// several entries produced by the same command.
func DefaultEntry(cmd command.Command, events []event.Event, n int) match.ActionLogEntry {
	types := make([]event.Type, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.Type)
	}
	return match.ActionLogEntry{
		ID:          fmt.Sprintf("%s-%d-%d", cmd.Type, cmd.Timestamp, n),
		CommandType: cmd.Type,
		PlayerID:    cmd.PlayerID,
		Timestamp:   cmd.Timestamp,
		EventTypes:  types,
	}
}
