// Package interaction queues blocking player prompts and resolves them.
//
// The built-in kind is simple-choice: a list of options, optionally
// multi-select with bounds. Games add their own kinds; those only block
// phase advancement, leaving their resolution to the game.
package interaction

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the interaction system.
const SystemID = "interaction"

const (
	CommandRespond command.Type = "SYS_INTERACTION_RESPOND"
	CommandTimeout command.Type = "SYS_INTERACTION_TIMEOUT"
	CommandCancel  command.Type = "SYS_INTERACTION_CANCEL"
)

const (
	EventResolved  event.Type = "SYS_INTERACTION_RESOLVED"
	EventExpired   event.Type = "SYS_INTERACTION_EXPIRED"
	EventCancelled event.Type = "SYS_INTERACTION_CANCELLED"
)

// AdvancePhase is the command every non-simple-choice interaction blocks.
const AdvancePhase command.Type = "ADVANCE_PHASE"

// Option is one simple-choice option. Value is opaque to the engine.
type Option struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Value    json.RawMessage `json:"value,omitempty"`
	Disabled bool            `json:"disabled,omitempty"`
}

// Multi enables multi-select. Min defaults to 1; a nil Max is unbounded.
type Multi struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// SimpleChoice is the data of a simple-choice interaction.
type SimpleChoice struct {
	Title    string   `json:"title"`
	Options  []Option `json:"options"`
	SourceID string   `json:"sourceId,omitempty"`
	Timeout  int64    `json:"timeout,omitempty"`
	Multi    *Multi   `json:"multi,omitempty"`
}

// NewSimpleChoice builds a simple-choice interaction.
func NewSimpleChoice(id, playerID string, choice SimpleChoice) (match.Interaction, error) {
	data, err := json.Marshal(choice)
	if err != nil {
		return match.Interaction{}, fmt.Errorf("encode simple choice: %w", err)
	}
	return match.Interaction{ID: id, Kind: match.InteractionKindSimpleChoice, PlayerID: playerID, DataJSON: data}, nil
}

// AsSimpleChoice decodes a simple-choice interaction's data.
func AsSimpleChoice(in match.Interaction) (SimpleChoice, bool) {
	if in.Kind != match.InteractionKindSimpleChoice {
		return SimpleChoice{}, false
	}
	var choice SimpleChoice
	if err := json.Unmarshal(in.DataJSON, &choice); err != nil {
		return SimpleChoice{}, false
	}
	return choice, true
}

// Resolution is the payload of EventResolved.
type Resolution struct {
	InteractionID string            `json:"interactionId"`
	PlayerID      string            `json:"playerId"`
	OptionID      string            `json:"optionId"`
	OptionIDs     []string          `json:"optionIds,omitempty"`
	Value         json.RawMessage   `json:"value,omitempty"`
	Values        []json.RawMessage `json:"values,omitempty"`
	SourceID      string            `json:"sourceId,omitempty"`
}

type respondPayload struct {
	OptionID  string   `json:"optionId"`
	OptionIDs []string `json:"optionIds"`
}

type closedPayload struct {
	InteractionID string `json:"interactionId"`
	PlayerID      string `json:"playerId"`
	SourceID      string `json:"sourceId,omitempty"`
}

// Config configures the interaction system.
type Config[C any] struct {
	// FromEvents queues interactions in response to a committed event batch.
	FromEvents func(state match.State[C], events []event.Event) []match.Interaction
	// OnResolved applies a resolution to game state in the same pass.
	OnResolved func(state match.State[C], resolution Resolution, cmd command.Command) (match.State[C], []event.Event)
}

// System is the interaction System.
type System[C any] struct {
	cfg Config[C]
}

// New builds an interaction system.
func New[C any](cfg Config[C]) *System[C] {
	return &System[C]{cfg: cfg}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	switch cmd.Type {
	case CommandRespond:
		return s.respond(ctx)
	case CommandTimeout:
		return s.close(ctx, EventExpired, false)
	case CommandCancel:
		return s.close(ctx, EventCancelled, true)
	}

	current := ctx.State.Sys.Interaction.Current
	if current == nil {
		return nil
	}
	if current.Kind == match.InteractionKindSimpleChoice {
		if current.PlayerID == cmd.PlayerID && !cmd.Type.IsSystem() {
			return engine.Reject[C](pending(current))
		}
		return nil
	}
	if cmd.Type == AdvancePhase {
		return engine.Reject[C](pending(current))
	}
	return nil
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	if s.cfg.FromEvents == nil {
		return nil
	}
	queued := s.cfg.FromEvents(ctx.State, ctx.Events)
	if len(queued) == 0 {
		return nil
	}
	next := ctx.State
	for _, in := range queued {
		if in.CreatedAt == 0 {
			in.CreatedAt = ctx.Command.Timestamp
		}
		next = Queue(next, in)
	}
	return engine.Continue(next)
}

func (s *System[C]) respond(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	current := ctx.State.Sys.Interaction.Current
	if current == nil {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionNone, "no interaction is pending"))
	}
	if current.PlayerID != cmd.PlayerID {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionNotOwner, "interaction belongs to another player"))
	}
	choice, ok := AsSimpleChoice(*current)
	if !ok {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionKindMismatch, "interaction is not a simple choice"))
	}
	var payload respondPayload
	if err := cmd.Decode(&payload); err != nil {
		return engine.Reject[C](apperrors.Wrap(apperrors.CodeInteractionInvalidOption, "invalid response payload", err))
	}
	selected, err := selectOptions(choice, payload)
	if err != nil {
		return engine.Reject[C](err)
	}

	resolution := Resolution{InteractionID: current.ID, PlayerID: cmd.PlayerID, SourceID: choice.SourceID}
	if len(selected) > 0 {
		resolution.OptionID = selected[0].ID
	}
	if choice.Multi != nil {
		for _, opt := range selected {
			resolution.OptionIDs = append(resolution.OptionIDs, opt.ID)
			resolution.Values = append(resolution.Values, opt.Value)
		}
	} else if len(selected) > 0 {
		resolution.Value = selected[0].Value
	}

	next := Resolve(ctx.State)
	events := []event.Event{command.MustEvent(cmd, EventResolved, resolution)}
	if s.cfg.OnResolved != nil {
		applied, extra := s.cfg.OnResolved(next, resolution, cmd)
		next = applied
		events = append(events, extra...)
	}
	return engine.Continue(next, events...)
}

func selectOptions(choice SimpleChoice, payload respondPayload) ([]Option, error) {
	byID := make(map[string]Option, len(choice.Options))
	for _, opt := range choice.Options {
		byID[opt.ID] = opt
	}

	if choice.Multi == nil {
		opt, ok := byID[payload.OptionID]
		if payload.OptionID == "" || !ok {
			return nil, invalidOption(payload.OptionID)
		}
		if opt.Disabled {
			return nil, disabledOption(opt.ID)
		}
		return []Option{opt}, nil
	}

	ids := payload.OptionIDs
	if len(ids) == 0 && payload.OptionID != "" {
		ids = []string{payload.OptionID}
	}
	seen := make(map[string]struct{}, len(ids))
	var selected []Option
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		opt, ok := byID[id]
		if !ok {
			return nil, invalidOption(id)
		}
		if opt.Disabled {
			return nil, disabledOption(id)
		}
		selected = append(selected, opt)
	}
	min := 1
	if choice.Multi.Min != nil {
		min = *choice.Multi.Min
	}
	if len(selected) < min {
		return nil, apperrors.WithMetadata(apperrors.CodeInteractionSelectionCount,
			fmt.Sprintf("select at least %d", min), map[string]string{"Min": fmt.Sprint(min)})
	}
	if max := choice.Multi.Max; max != nil && len(selected) > *max {
		return nil, apperrors.WithMetadata(apperrors.CodeInteractionSelectionCount,
			fmt.Sprintf("select at most %d", *max), map[string]string{"Max": fmt.Sprint(*max)})
	}
	return selected, nil
}

func (s *System[C]) close(ctx engine.HookContext[C], eventType event.Type, ownerOnly bool) *engine.HookResult[C] {
	cmd := ctx.Command
	current := ctx.State.Sys.Interaction.Current
	if current == nil {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionNone, "no interaction is pending"))
	}
	if ownerOnly && current.PlayerID != cmd.PlayerID {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionNotOwner, "interaction belongs to another player"))
	}
	payload := closedPayload{InteractionID: current.ID, PlayerID: current.PlayerID}
	if choice, ok := AsSimpleChoice(*current); ok {
		payload.SourceID = choice.SourceID
	} else if eventType == EventExpired {
		return engine.Reject[C](apperrors.New(apperrors.CodeInteractionKindMismatch, "only simple choices expire"))
	}
	return engine.Continue(Resolve(ctx.State), command.MustEvent(cmd, eventType, payload))
}

func pending(current *match.Interaction) error {
	return apperrors.WithMetadata(apperrors.CodeInteractionPending, "finish the current interaction first",
		map[string]string{"InteractionID": current.ID, "PlayerID": current.PlayerID})
}

func invalidOption(id string) error {
	return apperrors.WithMetadata(apperrors.CodeInteractionInvalidOption, fmt.Sprintf("unknown option %q", id),
		map[string]string{"OptionID": id})
}

func disabledOption(id string) error {
	return apperrors.WithMetadata(apperrors.CodeInteractionOptionDisabled, fmt.Sprintf("option %q is disabled", id),
		map[string]string{"OptionID": id})
}

// Queue makes in current when nothing is pending, else appends it.
func Queue[C any](state match.State[C], in match.Interaction) match.State[C] {
	if state.Sys.Interaction.Current == nil {
		state.Sys.Interaction.Current = &in
		return state
	}
	queue := make([]match.Interaction, 0, len(state.Sys.Interaction.Queue)+1)
	queue = append(queue, state.Sys.Interaction.Queue...)
	state.Sys.Interaction.Queue = append(queue, in)
	return state
}

// Resolve drops the current interaction and promotes the next queued one.
func Resolve[C any](state match.State[C]) match.State[C] {
	queue := state.Sys.Interaction.Queue
	if len(queue) == 0 {
		state.Sys.Interaction = match.InteractionState{}
		return state
	}
	next := queue[0]
	var rest []match.Interaction
	if len(queue) > 1 {
		rest = append([]match.Interaction(nil), queue[1:]...)
	}
	state.Sys.Interaction = match.InteractionState{Current: &next, Queue: rest}
	return state
}

// PlayerView hides other players' interactions.
func PlayerView(in match.InteractionState, playerID string) match.InteractionState {
	var view match.InteractionState
	if in.Current != nil && in.Current.PlayerID == playerID {
		current := *in.Current
		view.Current = &current
	}
	for _, queued := range in.Queue {
		if queued.PlayerID == playerID {
			view.Queue = append(view.Queue, queued)
		}
	}
	return view
}
