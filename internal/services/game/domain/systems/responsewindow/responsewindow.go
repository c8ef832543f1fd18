// Package responsewindow lets one player respond before play continues.
//
// While a window is open, only the responder may act and only with the
// allowed command types. Passing closes the window.
package responsewindow

import (
	"fmt"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the response window system.
const SystemID = "responsewindow"

// CommandPass closes the window for its responder.
const CommandPass command.Type = "RESPONSE_PASS"

const (
	EventOpened event.Type = "RESPONSE_WINDOW_OPENED"
	EventClosed event.Type = "RESPONSE_WINDOW_CLOSED"
)

// DefaultAllowed are the command types a responder may submit.
var DefaultAllowed = []command.Type{CommandPass, "PLAY_CARD", "SYS_INTERACTION_RESPOND"}

// Opener decides whether an event batch opens a window.
type Opener[C any] func(state match.State[C], events []event.Event) *match.ResponseWindow

// Config configures the response window system.
type Config[C any] struct {
	Allowed []command.Type
	Opener  Opener[C]
}

// System is the response window System.
type System[C any] struct {
	allowed map[command.Type]struct{}
	opener  Opener[C]
}

// New builds a response window system.
func New[C any](cfg Config[C]) *System[C] {
	allowed := cfg.Allowed
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	set := make(map[command.Type]struct{}, len(allowed)+1)
	for _, t := range allowed {
		set[t] = struct{}{}
	}
	set[CommandPass] = struct{}{}
	return &System[C]{allowed: set, opener: cfg.Opener}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

type closedPayload struct {
	WindowID string `json:"windowId"`
	Passed   bool   `json:"passed"`
}

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	window := ctx.State.Sys.ResponseWindow.Current
	if window == nil {
		return nil
	}
	cmd := ctx.Command
	if cmd.Type == CommandPass {
		if cmd.PlayerID != window.ResponderID {
			return engine.Reject[C](notResponder(window))
		}
		next := Close(ctx.State)
		return engine.Continue(next, command.MustEvent(cmd, EventClosed, closedPayload{WindowID: window.ID, Passed: true}))
	}
	if _, ok := s.allowed[cmd.Type]; ok {
		if cmd.PlayerID != window.ResponderID {
			return engine.Reject[C](notResponder(window))
		}
		return nil
	}
	return engine.Reject[C](apperrors.WithMetadata(
		apperrors.CodeResponseWindowWaiting,
		fmt.Sprintf("waiting for %s to respond", window.ResponderID),
		map[string]string{"ResponderID": window.ResponderID},
	))
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	if s.opener == nil || ctx.State.Sys.ResponseWindow.Current != nil {
		return nil
	}
	window := s.opener(ctx.State, ctx.Events)
	if window == nil {
		return nil
	}
	if window.OpenedAt == 0 {
		window.OpenedAt = ctx.Command.Timestamp
	}
	next := Open(ctx.State, *window)
	return engine.Continue(next, command.MustEvent(ctx.Command, EventOpened, window))
}

func notResponder(window *match.ResponseWindow) error {
	return apperrors.WithMetadata(
		apperrors.CodeResponseWindowNotResponder,
		fmt.Sprintf("only %s may respond", window.ResponderID),
		map[string]string{"ResponderID": window.ResponderID},
	)
}

// Open returns state with window open.
func Open[C any](state match.State[C], window match.ResponseWindow) match.State[C] {
	state.Sys.ResponseWindow.Current = &window
	return state
}

// Close returns state with no open window.
func Close[C any](state match.State[C]) match.State[C] {
	state.Sys.ResponseWindow.Current = nil
	return state
}

// Active reports whether a window is open.
func Active(sys match.EngineState) bool {
	return sys.ResponseWindow.Current != nil
}

// ResponderID returns the current responder, or "" when no window is open.
func ResponderID(sys match.EngineState) string {
	if sys.ResponseWindow.Current == nil {
		return ""
	}
	return sys.ResponseWindow.Current.ResponderID
}

// Definitions registers the pass command as system-owned so it never reaches
// the game domain.
func Definitions() []command.Definition {
	return []command.Definition{{Type: CommandPass, Owner: command.OwnerSystem}}
}
