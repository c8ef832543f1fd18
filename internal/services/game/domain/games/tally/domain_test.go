package tally

import (
	"testing"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/resource"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/tag"
)

var players = []string{"p1", "p2"}

func number(id string, v int) Card { return Card{ID: id, Kind: KindNumber, Value: v} }

func testCore() Core {
	return Core{
		Order: []string{"p1", "p2"},
		Round: 1,
		Players: map[string]Player{
			"p1": {
				Hand: []Card{number("n3", 3), {ID: "hex", Kind: KindHex, Value: 2}, {ID: "wild", Kind: KindWild}, {ID: "hex2", Kind: KindHex, Value: 2}},
				Pool: resource.Pool{ResourcePoints: 0, ResourceRolls: 1},
				Tags: tag.Container{},
			},
			"p2": {
				Hand: []Card{{ID: "shield", Kind: KindShield}, number("n7", 7)},
				Pool: resource.Pool{ResourcePoints: 5, ResourceRolls: 1},
				Tags: tag.Container{},
			},
		},
		Deck:    []Card{number("n5", 5), number("n1", 1)},
		Discard: []Card{},
		Target:  25,
	}
}

func mustCommand(t *testing.T, cmdType command.Type, playerID string, payload any) command.Command {
	t.Helper()
	cmd, err := command.New(cmdType, playerID, payload, 1000)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	return cmd
}

func eventTypes(events []event.Event) []event.Type {
	out := make([]event.Type, 0, len(events))
	for _, evt := range events {
		out = append(out, evt.Type)
	}
	return out
}

func hasEvent(events []event.Event, t event.Type) bool {
	for _, evt := range events {
		if evt.Type == t {
			return true
		}
	}
	return false
}

func TestSetupDealsHandsDeterministically(t *testing.T) {
	a := Setup(players, random.NewSeeded(3), Options{})
	b := Setup(players, random.NewSeeded(3), Options{})
	for _, id := range players {
		if got := len(a.Players[id].Hand); got != DefaultHandSize {
			t.Fatalf("%s hand = %d cards", id, got)
		}
		for i, c := range a.Players[id].Hand {
			if b.Players[id].Hand[i] != c {
				t.Fatalf("hands differ for same seed")
			}
		}
	}
	if got, want := len(a.Deck), len(DefaultDeck())-2*DefaultHandSize; got != want {
		t.Fatalf("deck = %d, want %d", got, want)
	}
	if a.Target != DefaultTarget || a.Round != 1 || a.Current() != "p1" {
		t.Fatalf("setup = %+v", a)
	}
}

func TestValidateRejections(t *testing.T) {
	d := NewDomain(NewRules(nil))
	over := testCore()
	over.Winner = "p2"
	empty := testCore()
	empty.Deck = []Card{}
	spent := testCore()
	p1 := spent.Players["p1"]
	p1.Pool = resource.Pool{ResourceRolls: 0}
	spent.Players["p1"] = p1
	later := testCore()
	later.Round = 2

	tests := []struct {
		name    string
		core    Core
		cmdType command.Type
		player  string
		payload any
		want    apperrors.Code
	}{
		{"game over", over, CommandDraw, "p1", nil, CodeGameOver},
		{"not your turn", testCore(), CommandDraw, "p2", nil, CodeNotYourTurn},
		{"card not in hand", testCore(), CommandPlay, "p1", PlayPayload{CardID: "shield"}, CodeCardNotInHand},
		{"deck and discard empty", empty, CommandDraw, "p1", nil, CodeDeckEmpty},
		{"no rolls", spent, CommandRoll, "p1", nil, CodeNoRollsLeft},
		{"mulligan after first round", later, CommandMulligan, "p1", nil, CodeMulliganRefused},
		{"unseated player", testCore(), CommandDraw, "p9", nil, apperrors.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Validate(match.State[Core]{Core: tt.core}, mustCommand(t, tt.cmdType, tt.player, tt.payload))
			if err == nil {
				t.Fatal("expected rejection")
			}
			if got := apperrors.GetCode(err); got != tt.want {
				t.Fatalf("code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDrawReshufflesDiscardWhenDeckIsEmpty(t *testing.T) {
	d := NewDomain(NewRules(nil))
	core := testCore()
	core.Deck = []Card{}
	core.Discard = []Card{number("d1", 1)}

	next, events := d.Execute(match.State[Core]{Core: core}, mustCommand(t, CommandDraw, "p1", nil), random.NewSeeded(1))
	if len(next.Deck) != 0 || len(next.Discard) != 0 {
		t.Fatalf("deck = %v discard = %v", next.Deck, next.Discard)
	}
	hand := next.Players["p1"].Hand
	if hand[len(hand)-1].ID != "d1" {
		t.Fatalf("drew %v", hand[len(hand)-1])
	}
	var p cardDrawnPayload
	if err := events[0].Decode(&p); err != nil || !p.Reshuffled {
		t.Fatalf("payload = %+v, err = %v", p, err)
	}
	if len(core.Discard) != 1 {
		t.Fatal("input state was modified")
	}
}

func TestRollBonusScoresStars(t *testing.T) {
	d := NewDomain(NewRules(nil))
	sixes := random.NewScripted([]int{6}, true, 0, random.NewSeeded(1))

	next, events := d.Execute(match.State[Core]{Core: testCore()}, mustCommand(t, CommandRoll, "p1", nil), sixes)
	// 12 beats six by 6, plus two stars.
	if got := next.Points("p1"); got != 10 {
		t.Fatalf("points = %d, want 10", got)
	}
	if got := next.Players["p1"].Pool.Get(ResourceRolls); got != 0 {
		t.Fatalf("rolls = %d", got)
	}
	if !hasEvent(events, EventBonusRolled) || !hasEvent(events, EventPointsChanged) {
		t.Fatalf("events = %v", eventTypes(events))
	}
}

func TestRollBonusWithoutPoints(t *testing.T) {
	d := NewDomain(NewRules(nil))
	ones := random.NewScripted([]int{1}, true, 0, random.NewSeeded(1))

	next, events := d.Execute(match.State[Core]{Core: testCore()}, mustCommand(t, CommandRoll, "p1", nil), ones)
	if next.Points("p1") != 0 {
		t.Fatalf("points = %d", next.Points("p1"))
	}
	if hasEvent(events, EventPointsChanged) {
		t.Fatalf("events = %v", eventTypes(events))
	}
}

func TestEndTurnTicksStatusesAndWrapsRound(t *testing.T) {
	d := NewDomain(NewRules(nil))
	core := testCore()
	core.Turn = 1
	p2 := core.Players["p2"]
	p2.Tags = p2.Tags.Add(StatusShielded, tag.AddOptions{Duration: tag.Int(1)}).Add(StatusHexed, tag.AddOptions{Duration: tag.Int(2)})
	core.Players["p2"] = p2
	p1 := core.Players["p1"]
	p1.Pool = p1.Pool.Set(ResourceRolls, 0, resource.Bounds{}).Pool
	core.Players["p1"] = p1

	next, events := d.Execute(match.State[Core]{Core: core}, mustCommand(t, CommandEndTurn, "p2", nil), random.NewSeeded(1))
	if next.Current() != "p1" || next.Round != 2 {
		t.Fatalf("current = %s round = %d", next.Current(), next.Round)
	}
	tags := next.Players["p2"].Tags
	if tags.Has(StatusShielded) || !tags.Has(StatusHexed) || *tags[StatusHexed].Duration != 1 {
		t.Fatalf("tags = %+v", tags)
	}
	if got := next.Players["p1"].Pool.Get(ResourceRolls); got != 1 {
		t.Fatalf("next player rolls = %d", got)
	}
	want := []event.Type{EventStatusExpired, EventTurnEnded}
	got := eventTypes(events)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v", got)
	}
}

func TestMulliganOnlyOnce(t *testing.T) {
	d := NewDomain(NewRules(nil))
	state := match.State[Core]{Core: testCore()}
	cmd := mustCommand(t, CommandMulligan, "p1", nil)
	if err := d.Validate(state, cmd); err != nil {
		t.Fatalf("validate: %v", err)
	}
	next, _ := d.Execute(state, cmd, random.NewSeeded(9))
	if got := len(next.Players["p1"].Hand); got != 4 {
		t.Fatalf("hand = %d", got)
	}
	if got := len(next.Deck); got != 2 {
		t.Fatalf("deck = %d", got)
	}
	err := d.Validate(match.State[Core]{Core: next}, cmd)
	if apperrors.GetCode(err) != CodeMulliganRefused {
		t.Fatalf("second mulligan err = %v", err)
	}
}

func TestReachingTargetEndsGame(t *testing.T) {
	d := NewDomain(NewRules(nil))
	core := testCore()
	p1 := core.Players["p1"]
	p1.Pool = p1.Pool.Set(ResourcePoints, 23, resource.Bounds{}).Pool
	core.Players["p1"] = p1

	next, events := d.Execute(match.State[Core]{Core: core}, mustCommand(t, CommandPlay, "p1", PlayPayload{CardID: "n3"}), random.NewSeeded(1))
	if next.Winner != "p1" || next.Points("p1") != 26 {
		t.Fatalf("winner = %q points = %d", next.Winner, next.Points("p1"))
	}
	if got := events[len(events)-1].Type; got != EventGameOver {
		t.Fatalf("last event = %s", got)
	}
}
