package eventstream

import (
	"testing"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

type noopDomain struct{}

func (noopDomain) Validate(match.State[struct{}], command.Command) error { return nil }

func (noopDomain) Execute(state match.State[struct{}], cmd command.Command, _ random.Fn) (struct{}, []event.Event) {
	return state.Core, []event.Event{
		command.MustEvent(cmd, "A", nil),
		command.MustEvent(cmd, "B", nil),
	}
}

func events(types ...event.Type) []event.Event {
	out := make([]event.Event, 0, len(types))
	for i, t := range types {
		out = append(out, event.Must(t, nil, int64(i)))
	}
	return out
}

func TestAfterEventsAssignsIncreasingIDs(t *testing.T) {
	p, err := engine.NewPipeline[struct{}](noopDomain{}, nil, New[struct{}](Config{}))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	state := p.InitialState(struct{}{}, nil)
	if state.Sys.EventStream.NextID != 1 || state.Sys.EventStream.MaxEntries != DefaultMaxEntries {
		t.Fatalf("initial stream = %+v", state.Sys.EventStream)
	}
	for i := 0; i < 2; i++ {
		res := p.ProcessCommand(state, command.Command{Type: "GO", Timestamp: int64(i)}, random.NewSeeded(1), nil)
		if !res.OK() {
			t.Fatalf("process: %s", res.Error)
		}
		state = res.State
	}
	entries := state.Sys.EventStream.Entries
	if len(entries) != 4 {
		t.Fatalf("entries = %d", len(entries))
	}
	for i, entry := range entries {
		if entry.ID != int64(i+1) {
			t.Fatalf("entry %d id = %d", i, entry.ID)
		}
	}
	if state.Sys.EventStream.NextID != 5 {
		t.Fatalf("next id = %d", state.Sys.EventStream.NextID)
	}
}

func TestAppendBoundsEntries(t *testing.T) {
	stream := match.EventStreamState{MaxEntries: 3, NextID: 1}
	stream = Append(stream, DefaultMaxEntries, events("A", "B", "C", "D", "E")...)
	if len(stream.Entries) != 3 {
		t.Fatalf("entries = %d", len(stream.Entries))
	}
	if stream.Entries[0].ID != 3 || stream.Entries[0].Event.Type != "C" {
		t.Fatalf("oldest = %+v", stream.Entries[0])
	}
	if stream.NextID != 6 || Latest(stream) != 5 {
		t.Fatalf("next id = %d, latest = %d", stream.NextID, Latest(stream))
	}
}

func TestAppendDoesNotAliasInput(t *testing.T) {
	base := Append(match.EventStreamState{NextID: 1}, 10, events("A")...)
	first := Append(base, 10, events("B")...)
	second := Append(base, 10, events("C")...)
	if first.Entries[1].Event.Type != "B" || second.Entries[1].Event.Type != "C" {
		t.Fatalf("aliasing: first=%v second=%v", first.Entries, second.Entries)
	}
	if len(base.Entries) != 1 {
		t.Fatalf("base mutated: %v", base.Entries)
	}
}

func TestFilterStream(t *testing.T) {
	stream := Append(match.EventStreamState{NextID: 1}, 10, events("CARD_PLAYED", "CARD_DRAWN", "CARD_PLAYED")...)
	got, err := Filter(stream, `type = "CARD_PLAYED" AND id > 1`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("filtered = %+v", got)
	}
	if _, err := Filter(stream, `bogus = 1`); err == nil {
		t.Fatal("expected parse error")
	}
	all, err := Filter(stream, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("empty filter = %d, %v", len(all), err)
	}
	if since := Since(stream, 2); len(since) != 1 || since[0].ID != 3 {
		t.Fatalf("since = %+v", since)
	}
}
