// Package tutorial walks a player through scripted steps. Each step may
// restrict which commands are accepted, advance on specific events, and
// script the dice.
package tutorial

import (
	"fmt"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the tutorial system.
const SystemID = "tutorial"

const (
	CommandStart command.Type = "SYS_TUTORIAL_START"
	CommandNext  command.Type = "SYS_TUTORIAL_NEXT"
	CommandClose command.Type = "SYS_TUTORIAL_CLOSE"
)

const (
	EventStepChanged event.Type = "SYS_TUTORIAL_STEP_CHANGED"
	EventCompleted   event.Type = "SYS_TUTORIAL_COMPLETED"
	EventClosed      event.Type = "SYS_TUTORIAL_CLOSED"
)

type stepPayload struct {
	ManifestID string `json:"manifestId"`
	StepIndex  int    `json:"stepIndex"`
	StepID     string `json:"stepId"`
}

type manifestPayload struct {
	ManifestID string `json:"manifestId"`
}

// System is the tutorial System.
type System[C any] struct{}

// New builds a tutorial system.
func New[C any]() *System[C] {
	return &System[C]{}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	switch cmd.Type {
	case CommandStart:
		var m Manifest
		if err := cmd.Decode(&m); err != nil {
			return engine.Reject[C](apperrors.Wrap(apperrors.CodeTutorialManifestInvalid, "decode tutorial manifest", err))
		}
		if err := m.Validate(); err != nil {
			return engine.Reject[C](err)
		}
		next := ctx.State
		next.Sys.Tutorial = match.TutorialState{Active: true, ManifestID: m.ID, Steps: m.Steps}
		return engine.Continue(next, stepChanged(cmd, next.Sys.Tutorial))
	case CommandNext:
		if !ctx.State.Sys.Tutorial.Active {
			return nil
		}
		next := ctx.State
		tut, evt := advance(cmd, next.Sys.Tutorial)
		next.Sys.Tutorial = tut
		return engine.Continue(next, evt)
	case CommandClose:
		if !ctx.State.Sys.Tutorial.Active {
			return nil
		}
		next := ctx.State
		id := next.Sys.Tutorial.ManifestID
		next.Sys.Tutorial = match.TutorialState{}
		return engine.Continue(next, command.MustEvent(cmd, EventClosed, manifestPayload{ManifestID: id}))
	}

	if cmd.Type.IsSystem() {
		return nil
	}
	step, ok := ctx.State.Sys.Tutorial.CurrentStep()
	if !ok || len(step.AllowedCommands) == 0 {
		return nil
	}
	for _, allowed := range step.AllowedCommands {
		if allowed == cmd.Type {
			return nil
		}
	}
	return engine.Reject[C](apperrors.WithMetadata(
		apperrors.CodeTutorialCommandBlocked,
		fmt.Sprintf("tutorial step %s does not allow %s", step.ID, cmd.Type),
		map[string]string{"StepID": step.ID, "Type": string(cmd.Type)},
	))
}

// AfterEvents implements engine.AfterEventer.
func (s *System[C]) AfterEvents(ctx engine.HookContext[C]) *engine.HookResult[C] {
	tut := ctx.State.Sys.Tutorial
	step, ok := tut.CurrentStep()
	if !ok {
		return nil
	}
	changed := false
	if scripted, ok := ctx.Random.(*random.Scripted); ok && scripted.Consumed() > 0 {
		tut.RandomCursor += scripted.Consumed()
		changed = true
	}

	var added []event.Event
	if matchesAny(ctx.Events, step.AdvanceOnEvents) {
		var evt event.Event
		tut, evt = advance(ctx.Command, tut)
		added = append(added, evt)
		changed = true
	}
	if !changed {
		return nil
	}
	next := ctx.State
	next.Sys.Tutorial = tut
	return engine.Continue(next, added...)
}

func matchesAny(events []event.Event, types []event.Type) bool {
	for _, evt := range events {
		for _, t := range types {
			if evt.Type == t {
				return true
			}
		}
	}
	return false
}

func advance(cmd command.Command, tut match.TutorialState) (match.TutorialState, event.Event) {
	tut.StepIndex++
	tut.RandomCursor = 0
	if tut.StepIndex >= len(tut.Steps) {
		id := tut.ManifestID
		return match.TutorialState{}, command.MustEvent(cmd, EventCompleted, manifestPayload{ManifestID: id})
	}
	return tut, stepChanged(cmd, tut)
}

func stepChanged(cmd command.Command, tut match.TutorialState) event.Event {
	step, _ := tut.CurrentStep()
	return command.MustEvent(cmd, EventStepChanged, stepPayload{
		ManifestID: tut.ManifestID,
		StepIndex:  tut.StepIndex,
		StepID:     step.ID,
	})
}

// Random wraps base with the current step's random policy. Without an active
// policy it returns base unchanged.
func Random(sys match.EngineState, base random.Fn) random.Fn {
	step, ok := sys.Tutorial.CurrentStep()
	if !ok || step.Random == nil || len(step.Random.Values) == 0 {
		return base
	}
	return random.NewScripted(step.Random.Values, step.Random.Mode == match.RandomPolicyFixed, sys.Tutorial.RandomCursor, base)
}
