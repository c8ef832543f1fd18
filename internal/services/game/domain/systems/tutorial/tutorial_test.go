package tutorial

import (
	"testing"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

const manifestYAML = `
id: tally-basics
steps:
  - id: roll
    allowedCommands: [ROLL]
    advanceOnEvents: [ROLLED]
    random:
      mode: sequence
      values: [6, 2]
  - id: free
  - id: fixed
    random:
      mode: fixed
      values: [4]
`

type rollDomain struct{}

func (rollDomain) Validate(match.State[[]int], command.Command) error { return nil }

func (rollDomain) Execute(state match.State[[]int], cmd command.Command, r random.Fn) ([]int, []event.Event) {
	if cmd.Type != "ROLL" {
		return state.Core, nil
	}
	rolls := append(append([]int(nil), state.Core...), r.D(6))
	return rolls, []event.Event{command.MustEvent(cmd, "ROLLED", nil)}
}

func setup(t *testing.T) (*engine.Pipeline[[]int], match.State[[]int]) {
	t.Helper()
	m, err := ParseManifest([]byte(manifestYAML))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	p, err := engine.NewPipeline[[]int](rollDomain{}, nil, New[[]int]())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	state := p.InitialState(nil, []string{"p1"})
	start, err := command.New(CommandStart, "p1", m, 1)
	if err != nil {
		t.Fatalf("start command: %v", err)
	}
	res := p.ProcessCommand(state, start, random.NewSeeded(1), []string{"p1"})
	if !res.OK() {
		t.Fatalf("start: %s", res.Error)
	}
	return p, res.State
}

func submit(p *engine.Pipeline[[]int], state match.State[[]int], cmdType command.Type) engine.Result[[]int] {
	cmd := command.Command{Type: cmdType, PlayerID: "p1"}
	return p.ProcessCommand(state, cmd, Random(state.Sys, random.NewSeeded(1)), []string{"p1"})
}

func TestParseManifestValidation(t *testing.T) {
	cases := map[string]string{
		"missing id":   "steps: [{id: a}]",
		"no steps":     "id: x",
		"dup step":     "id: x\nsteps: [{id: a}, {id: a}]",
		"bad mode":     "id: x\nsteps: [{id: a, random: {mode: chaos, values: [1]}}]",
		"empty values": "id: x\nsteps: [{id: a, random: {mode: fixed}}]",
		"not yaml":     "id: [",
	}
	for name, doc := range cases {
		_, err := ParseManifest([]byte(doc))
		if got := apperrors.GetCode(err); got != apperrors.CodeTutorialManifestInvalid {
			t.Fatalf("%s: code = %q (err %v)", name, got, err)
		}
	}
}

func TestStartActivatesFirstStep(t *testing.T) {
	_, state := setup(t)
	tut := state.Sys.Tutorial
	if !tut.Active || tut.ManifestID != "tally-basics" || tut.StepIndex != 0 || len(tut.Steps) != 3 {
		t.Fatalf("tutorial = %+v", tut)
	}
}

func TestStepRestrictsCommands(t *testing.T) {
	p, state := setup(t)
	res := submit(p, state, "DRAW")
	if res.Error != string(apperrors.CodeTutorialCommandBlocked) {
		t.Fatalf("error = %q", res.Error)
	}
	if res := submit(p, state, "SYS_ANYTHING"); !res.OK() {
		t.Fatalf("system commands pass: %q", res.Error)
	}
}

func TestScriptedRollAndAdvance(t *testing.T) {
	p, state := setup(t)
	res := submit(p, state, "ROLL")
	if !res.OK() {
		t.Fatalf("roll: %s", res.Error)
	}
	if len(res.State.Core) != 1 || res.State.Core[0] != 6 {
		t.Fatalf("rolls = %v, want [6]", res.State.Core)
	}
	tut := res.State.Sys.Tutorial
	if tut.StepIndex != 1 || tut.RandomCursor != 0 {
		t.Fatalf("tutorial = %+v", tut)
	}
	last := res.Events[len(res.Events)-1]
	if last.Type != EventStepChanged {
		t.Fatalf("last event = %s", last.Type)
	}
}

func TestSequenceCursorPersistsAcrossCommands(t *testing.T) {
	p, state := setup(t)
	state.Sys.Tutorial.Steps[0].AdvanceOnEvents = nil
	var rolls []int
	for i := 0; i < 3; i++ {
		res := submit(p, state, "ROLL")
		if !res.OK() {
			t.Fatalf("roll %d: %s", i, res.Error)
		}
		state = res.State
		rolls = state.Core
	}
	if want := []int{6, 2, 6}; len(rolls) != 3 || rolls[0] != want[0] || rolls[1] != want[1] || rolls[2] != want[2] {
		t.Fatalf("rolls = %v, want %v", rolls, want)
	}
	if state.Sys.Tutorial.RandomCursor != 3 {
		t.Fatalf("cursor = %d", state.Sys.Tutorial.RandomCursor)
	}
}

func TestNextCompletesAndClose(t *testing.T) {
	p, state := setup(t)
	for i := 0; i < 2; i++ {
		res := submit(p, state, CommandNext)
		if !res.OK() {
			t.Fatalf("next: %s", res.Error)
		}
		state = res.State
	}
	if got := Random(state.Sys, random.NewSeeded(1)).D(6); got != 4 {
		t.Fatalf("fixed roll = %d, want 4", got)
	}
	res := submit(p, state, CommandNext)
	if !res.OK() || res.Events[0].Type != EventCompleted || res.State.Sys.Tutorial.Active {
		t.Fatalf("complete = %+v", res)
	}

	_, state = setup(t)
	res = submit(p, state, CommandClose)
	if !res.OK() || res.Events[0].Type != EventClosed || res.State.Sys.Tutorial.Active {
		t.Fatalf("close = %+v", res)
	}
}
