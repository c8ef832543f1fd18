// Package cheat dispatches CHEAT_ commands to debug handlers. It is disabled
// unless a match explicitly opts in.
package cheat

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the cheat system.
const SystemID = "cheat"

// Prefix marks cheat commands.
const Prefix = "CHEAT_"

const (
	CommandSetResource command.Type = "CHEAT_SET_RESOURCE"
	CommandAddResource command.Type = "CHEAT_ADD_RESOURCE"
	CommandSetStatus   command.Type = "CHEAT_SET_STATUS"
)

// EventApplied records every applied cheat.
const EventApplied event.Type = "CHEAT_APPLIED"

// Handler applies one cheat to the game state.
type Handler[C any] func(state match.State[C], cmd command.Command) (C, []event.Event, error)

// Config configures the cheat system.
type Config[C any] struct {
	Enabled  bool
	Handlers map[command.Type]Handler[C]
}

// System is the cheat System.
type System[C any] struct {
	enabled  bool
	handlers map[command.Type]Handler[C]
}

// New builds a cheat system.
func New[C any](cfg Config[C]) *System[C] {
	handlers := make(map[command.Type]Handler[C], len(cfg.Handlers))
	for t, h := range cfg.Handlers {
		handlers[t] = h
	}
	return &System[C]{enabled: cfg.Enabled, handlers: handlers}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// Types lists the handled cheat commands.
func (s *System[C]) Types() []command.Type {
	out := make([]command.Type, 0, len(s.handlers))
	for t := range s.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type appliedPayload struct {
	Cheat    command.Type `json:"cheat"`
	PlayerID string       `json:"playerId"`
}

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	if !strings.HasPrefix(string(cmd.Type), Prefix) {
		return nil
	}
	if !s.enabled {
		return engine.Reject[C](apperrors.New(apperrors.CodeCheatDisabled, "cheats are disabled for this match"))
	}
	handler, ok := s.handlers[cmd.Type]
	if !ok {
		return engine.Reject[C](apperrors.WithMetadata(apperrors.CodeCheatUnknown,
			fmt.Sprintf("unknown cheat %s", cmd.Type), map[string]string{"Type": string(cmd.Type)}))
	}
	core, events, err := handler(ctx.State, cmd)
	if err != nil {
		return engine.Reject[C](err)
	}
	next := ctx.State
	next.Core = core
	events = append(events, command.MustEvent(cmd, EventApplied, appliedPayload{Cheat: cmd.Type, PlayerID: cmd.PlayerID}))
	return engine.Stop(next, events...)
}

// Modifier exposes game resources and statuses to the built-in cheats.
type Modifier[C any] interface {
	Resource(core C, playerID, resourceID string) int
	SetResource(core C, playerID, resourceID string, value int) C
	SetStatus(core C, playerID, statusID string, amount int) C
}

type resourcePayload struct {
	PlayerID   string `json:"playerId"`
	ResourceID string `json:"resourceId"`
	Value      int    `json:"value"`
}

type statusPayload struct {
	PlayerID string `json:"playerId"`
	StatusID string `json:"statusId"`
	Amount   int    `json:"amount"`
}

// ResourceHandlers returns the built-in resource and status cheats.
func ResourceHandlers[C any](m Modifier[C]) map[command.Type]Handler[C] {
	return map[command.Type]Handler[C]{
		CommandSetResource: func(state match.State[C], cmd command.Command) (C, []event.Event, error) {
			var p resourcePayload
			if err := cmd.Decode(&p); err != nil {
				return state.Core, nil, apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "decode cheat payload", err)
			}
			return m.SetResource(state.Core, p.PlayerID, p.ResourceID, p.Value), nil, nil
		},
		CommandAddResource: func(state match.State[C], cmd command.Command) (C, []event.Event, error) {
			var p resourcePayload
			if err := cmd.Decode(&p); err != nil {
				return state.Core, nil, apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "decode cheat payload", err)
			}
			current := m.Resource(state.Core, p.PlayerID, p.ResourceID)
			return m.SetResource(state.Core, p.PlayerID, p.ResourceID, current+p.Value), nil, nil
		},
		CommandSetStatus: func(state match.State[C], cmd command.Command) (C, []event.Event, error) {
			var p statusPayload
			if err := cmd.Decode(&p); err != nil {
				return state.Core, nil, apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "decode cheat payload", err)
			}
			return m.SetStatus(state.Core, p.PlayerID, p.StatusID, p.Amount), nil, nil
		},
	}
}
