// Package gamelog keeps a bounded log of every command and event, used by
// debugging tools and match history views.
package gamelog

import (
	"bytes"
	"encoding/json"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the log system.
const SystemID = "log"

// DefaultMaxEntries bounds the log when Config leaves it unset.
const DefaultMaxEntries = 1000

// Config configures the log. Use NewConfig for the defaults.
type Config struct {
	MaxEntries  int
	LogCommands bool
	LogEvents   bool
}

// NewConfig returns a config that logs both commands and events.
func NewConfig() Config {
	return Config{MaxEntries: DefaultMaxEntries, LogCommands: true, LogEvents: true}
}

// System is the log System.
type System[C any] struct {
	cfg Config
}

// New builds a log system.
func New[C any](cfg Config) *System[C] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &System[C]{cfg: cfg}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// Init implements engine.Initializer.
func (s *System[C]) Init(sys *match.EngineState, _ []string) {
	sys.Log = match.LogState{MaxEntries: s.cfg.MaxEntries}
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	current := ctx.State.Sys.Log
	entries := make([]match.LogEntry, 0, len(current.Entries)+len(ctx.Events)+1)
	entries = append(entries, current.Entries...)

	if s.cfg.LogCommands {
		ts := ctx.Command.Timestamp
		if ts == 0 {
			switch {
			case len(ctx.Events) > 0:
				ts = ctx.Events[0].Timestamp
			case len(current.Entries) > 0:
				ts = current.Entries[len(current.Entries)-1].Timestamp + 1
			}
		}
		entries = append(entries, match.LogEntry{
			Kind:      match.LogEntryCommand,
			Type:      string(ctx.Command.Type),
			PlayerID:  ctx.Command.PlayerID,
			Timestamp: ts,
			Payload:   compactPayload(ctx.Command.PayloadJSON),
		})
	}
	if s.cfg.LogEvents {
		for _, evt := range ctx.Events {
			entries = append(entries, match.LogEntry{
				Kind:      match.LogEntryEvent,
				Type:      string(evt.Type),
				Timestamp: evt.Timestamp,
				Payload:   compactPayload(evt.PayloadJSON),
			})
		}
	}
	if len(entries) == len(current.Entries) {
		return nil
	}

	limit := current.MaxEntries
	if limit <= 0 {
		limit = s.cfg.MaxEntries
	}
	if over := len(entries) - limit; over > 0 {
		entries = append([]match.LogEntry(nil), entries[over:]...)
	}
	next := ctx.State
	next.Sys.Log = match.LogState{Entries: entries, MaxEntries: limit}
	return engine.Continue(next)
}

func compactPayload(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil || buf.Len() == 0 || buf.String() == "null" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(buf.Bytes())
}

// Commands returns the command entries.
func Commands(log match.LogState) []match.LogEntry {
	return byKind(log, match.LogEntryCommand)
}

// Events returns the event entries.
func Events(log match.LogState) []match.LogEntry {
	return byKind(log, match.LogEntryEvent)
}

// EventsByType returns the event entries of one type.
func EventsByType(log match.LogState, eventType event.Type) []match.LogEntry {
	var out []match.LogEntry
	for _, entry := range log.Entries {
		if entry.Kind == match.LogEntryEvent && entry.Type == string(eventType) {
			out = append(out, entry)
		}
	}
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func Recent(log match.LogState, n int) []match.LogEntry {
	if n <= 0 {
		return nil
	}
	if n > len(log.Entries) {
		n = len(log.Entries)
	}
	return append([]match.LogEntry(nil), log.Entries[len(log.Entries)-n:]...)
}

func byKind(log match.LogState, kind match.LogEntryKind) []match.LogEntry {
	var out []match.LogEntry
	for _, entry := range log.Entries {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out
}
