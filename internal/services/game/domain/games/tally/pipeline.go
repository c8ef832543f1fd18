package tally

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/action"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/snapshot"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/actionlog"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/cheat"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/eventstream"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/gamelog"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/interaction"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/rematch"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/responsewindow"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/tutorial"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/undo"
)

// GameID names tally in registries and journals.
const GameID = "tally"

// Config configures a tally pipeline.
type Config struct {
	Logger           *log.Logger
	Cheats           bool
	MaxUndoSnapshots int
	CompressUndo     bool
	MaxStreamEntries int
	// UndoAllowlist replaces the default undoable commands when set.
	UndoAllowlist []command.Type
}

// NewPipeline wires the tally domain with every engine System.
func NewPipeline(cfg Config) (*engine.Pipeline[Core], error) {
	rules := NewRules(cfg.Logger)
	a := actions{}
	undoable := UndoAllowlist()
	if len(cfg.UndoAllowlist) > 0 {
		undoable = command.NewAllowlist(cfg.UndoAllowlist...)
	}
	return engine.NewPipeline[Core](NewDomain(rules), Registry(),
		undo.New[Core](undo.Config{
			MaxSnapshots: cfg.MaxUndoSnapshots,
			Allowlist:    undoable,
			Codec:        snapshot.Codec{Compress: cfg.CompressUndo},
		}),
		rematch.New[Core](),
		tutorial.New[Core](),
		interaction.New[Core](interaction.Config[Core]{
			FromEvents: wildChoices,
			OnResolved: resolveWild,
		}),
		responsewindow.New[Core](responsewindow.Config[Core]{Opener: openHexWindow}),
		cheat.New[Core](cheat.Config[Core]{
			Enabled:  cfg.Cheats,
			Handlers: cheat.ResourceHandlers[Core](a),
		}),
		&responseCloser{},
		actionlog.New[Core](actionlog.Config[Core]{
			Allowlist: command.NewAllowlist(CommandDraw, CommandPlay, CommandRoll, CommandEndTurn, CommandMulligan),
			Format:    logFormatter(cfg.Logger),
		}),
		gamelog.New[Core](gamelog.NewConfig()),
		eventstream.New[Core](eventstream.Config{MaxEntries: cfg.MaxStreamEntries}),
	)
}

// NewMatch deals a new game and initializes every System.
func NewMatch(p *engine.Pipeline[Core], playerIDs []string, r random.Fn, opts Options) match.State[Core] {
	return p.InitialState(Setup(playerIDs, r, opts), playerIDs)
}

func openHexWindow(state match.State[Core], events []event.Event) *match.ResponseWindow {
	for _, evt := range events {
		if evt.Type != EventCardPlayed {
			continue
		}
		var played cardPlayedPayload
		if err := evt.Decode(&played); err != nil || played.Kind != KindHex || played.TargetID == "" {
			continue
		}
		return &match.ResponseWindow{
			ID:          "hex-" + played.CardID,
			ResponderID: played.TargetID,
			SourceID:    played.CardID,
			WindowType:  string(KindHex),
		}
	}
	return nil
}

// responseCloser closes the window once its responder has played a card.
type responseCloser struct{}

func (*responseCloser) ID() string { return GameID + ".response" }

type windowClosedPayload struct {
	WindowID string `json:"windowId"`
	Passed   bool   `json:"passed"`
}

func (*responseCloser) AfterEvents(ctx engine.HookContext[Core]) *engine.HookResult[Core] {
	window := ctx.State.Sys.ResponseWindow.Current
	if window == nil || ctx.Command.Type != CommandPlay || ctx.Command.PlayerID != window.ResponderID {
		return nil
	}
	return engine.Continue(responsewindow.Close(ctx.State),
		command.MustEvent(ctx.Command, responsewindow.EventClosed, windowClosedPayload{WindowID: window.ID}))
}

const (
	wildLow  = 1
	wildHigh = 5
)

func wildChoices(state match.State[Core], events []event.Event) []match.Interaction {
	var out []match.Interaction
	for _, evt := range events {
		if evt.Type != EventWildPending {
			continue
		}
		var p wildPayload
		if err := evt.Decode(&p); err != nil {
			continue
		}
		hexed := state.Core.Players[p.PlayerID].Tags.Has(StatusHexed)
		in, err := interaction.NewSimpleChoice("wild-"+p.CardID, p.PlayerID, interaction.SimpleChoice{
			Title:    "Wild card",
			SourceID: p.CardID,
			Options: []interaction.Option{
				{ID: "low", Label: fmt.Sprintf("%d point", wildLow), Value: json.RawMessage(fmt.Sprint(wildLow))},
				{ID: "high", Label: fmt.Sprintf("%d points", wildHigh), Value: json.RawMessage(fmt.Sprint(wildHigh)), Disabled: hexed},
			},
		})
		if err != nil {
			continue
		}
		out = append(out, in)
	}
	return out
}

func resolveWild(state match.State[Core], res interaction.Resolution, cmd command.Command) (match.State[Core], []event.Event) {
	var points int
	if err := json.Unmarshal(res.Value, &points); err != nil || points <= 0 {
		return state, nil
	}
	core, events := actions{cmd: cmd}.ApplyHeal(state.Core, res.PlayerID, points)
	core, events = finish(core, cmd, events)
	state.Core = core
	return state, events
}

type logContext struct {
	cmd    command.Command
	events []event.Event
	core   Core
}

func logActions(logger *log.Logger) *action.Registry[logContext, string] {
	reg := action.NewRegistry[logContext, string](Namespace+".log", logger)
	reg.Register(string(CommandDraw), func(c logContext) string {
		return fmt.Sprintf("%s drew a card", c.cmd.PlayerID)
	}, action.Meta{Categories: []string{"card"}})
	reg.Register(string(CommandPlay), func(c logContext) string {
		var p PlayPayload
		_ = c.cmd.Decode(&p)
		return fmt.Sprintf("%s played %s", c.cmd.PlayerID, p.CardID)
	}, action.Meta{Categories: []string{"card"}})
	reg.Register(string(CommandRoll), func(c logContext) string {
		for _, evt := range c.events {
			var p bonusPayload
			if evt.Type == EventBonusRolled && evt.Decode(&p) == nil {
				return fmt.Sprintf("%s rolled %v for %d points", c.cmd.PlayerID, p.Values, p.Points)
			}
		}
		return fmt.Sprintf("%s rolled", c.cmd.PlayerID)
	}, action.Meta{Categories: []string{"dice"}})
	reg.Register(string(CommandEndTurn), func(c logContext) string {
		return fmt.Sprintf("%s ended the turn, %s is up", c.cmd.PlayerID, c.core.Current())
	}, action.Meta{Categories: []string{"turn"}})
	reg.Register(string(CommandMulligan), func(c logContext) string {
		return fmt.Sprintf("%s took a mulligan", c.cmd.PlayerID)
	}, action.Meta{Categories: []string{"card", "turn"}})
	return reg
}

func logFormatter(logger *log.Logger) actionlog.Formatter[Core] {
	reg := logActions(logger)
	return func(cmd command.Command, events []event.Event, state match.State[Core]) []match.ActionLogEntry {
		entry := actionlog.DefaultEntry(cmd, events, 0)
		if text, ok := reg.Get(string(cmd.Type)); ok {
			entry.Text = text(logContext{cmd: cmd, events: events, core: state.Core})
		}
		return []match.ActionLogEntry{entry}
	}
}
