package replay_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/checkpoint"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/games/tally"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
)

const testSeed = 99

var players = []string{"p1", "p2"}

type fakeJournal struct {
	records []replay.Record
	calls   int
}

func (j *fakeJournal) ListCommands(_ context.Context, matchID string, afterSeq uint64, limit int) ([]replay.Record, error) {
	j.calls++
	var out []replay.Record
	for _, rec := range j.records {
		if rec.MatchID != matchID || rec.Seq <= afterSeq {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type script struct {
	pipeline *engine.Pipeline[tally.Core]
	initial  match.State[tally.Core]
	final    match.State[tally.Core]
	journal  *fakeJournal
}

// record plays a fixed two-round game and journals every accepted command
// the way a live session does.
func record(t *testing.T) script {
	t.Helper()
	p, err := tally.NewPipeline(tally.Config{})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	initial := tally.NewMatch(p, players, random.NewSeeded(testSeed), tally.Options{})
	steps := []struct {
		cmd    command.Type
		player string
	}{
		{tally.CommandDraw, "p1"},
		{tally.CommandRoll, "p1"},
		{tally.CommandEndTurn, "p1"},
		{tally.CommandMulligan, "p2"},
		{tally.CommandRoll, "p2"},
		{tally.CommandEndTurn, "p2"},
		{tally.CommandDraw, "p1"},
		{tally.CommandEndTurn, "p1"},
		{tally.CommandDraw, "p2"},
		{tally.CommandEndTurn, "p2"},
	}

	journal := &fakeJournal{}
	state := initial
	for i, step := range steps {
		seq := uint64(i + 1)
		cmd, err := command.New(step.cmd, step.player, nil, int64(seq))
		if err != nil {
			t.Fatalf("new command: %v", err)
		}
		res := p.ProcessCommand(state, cmd, replay.Random(state.Sys, testSeed, seq), players)
		if !res.OK() {
			t.Fatalf("step %d %s rejected: %s", seq, step.cmd, res.Error)
		}
		state = res.State
		hash, err := replay.Hash(state)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		journal.records = append(journal.records, replay.Record{MatchID: "m1", Seq: seq, Command: cmd, StateHash: hash})
	}
	return script{pipeline: p, initial: initial, final: state, journal: journal}
}

func (s script) match() replay.Match[tally.Core] {
	return replay.Match[tally.Core]{ID: "m1", Seed: testSeed, PlayerIDs: players, Initial: s.initial, Pipeline: s.pipeline}
}

func TestReplayReproducesRecordedState(t *testing.T) {
	s := record(t)

	result, err := replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{PageSize: 3})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.LastSeq != 10 || result.Applied != 10 || result.Resumed != 0 {
		t.Fatalf("result = last %d applied %d resumed %d", result.LastSeq, result.Applied, result.Resumed)
	}
	want, _ := replay.Hash(s.final)
	got, _ := replay.Hash(result.State)
	if got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
	if !reflect.DeepEqual(result.State.Core, s.final.Core) {
		t.Fatal("replayed core differs from recorded core")
	}
	if s.journal.calls != 5 {
		t.Fatalf("journal pages = %d, want 5", s.journal.calls)
	}
}

func TestReplayStopsAtUntilSeq(t *testing.T) {
	s := record(t)

	result, err := replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{UntilSeq: 3})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.LastSeq != 3 || result.Applied != 3 {
		t.Fatalf("last = %d applied = %d", result.LastSeq, result.Applied)
	}
	if result.State.Core.Current() != "p2" {
		t.Fatalf("current = %s, want p2", result.State.Core.Current())
	}
}

func TestReplayResumesFromCheckpoint(t *testing.T) {
	s := record(t)
	store := checkpoint.NewMemory()
	ctx := context.Background()

	if _, err := replay.Replay(ctx, s.journal, store, s.match(), replay.Options{UntilSeq: 4, CheckpointEvery: 2}); err != nil {
		t.Fatalf("partial replay: %v", err)
	}
	saved, err := store.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if saved.LastSeq != 4 {
		t.Fatalf("checkpoint seq = %d, want 4", saved.LastSeq)
	}

	result, err := replay.Replay(ctx, s.journal, store, s.match(), replay.Options{})
	if err != nil {
		t.Fatalf("resumed replay: %v", err)
	}
	if result.Resumed != 4 || result.Applied != 6 || result.LastSeq != 10 {
		t.Fatalf("resumed = %d applied = %d last = %d", result.Resumed, result.Applied, result.LastSeq)
	}
	want, _ := replay.Hash(s.final)
	got, _ := replay.Hash(result.State)
	if got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
}

func TestReplayDetectsHashMismatch(t *testing.T) {
	s := record(t)
	s.journal.records[5].StateHash = "tampered"

	result, err := replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{})
	if !errors.Is(err, replay.ErrHashMismatch) {
		t.Fatalf("error = %v, want %v", err, replay.ErrHashMismatch)
	}
	if result.LastSeq != 5 {
		t.Fatalf("last seq = %d, want 5", result.LastSeq)
	}

	if _, err := replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{SkipHashCheck: true}); err != nil {
		t.Fatalf("replay without hash check: %v", err)
	}
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	s := record(t)
	s.journal.records = append(s.journal.records[:2], s.journal.records[3:]...)

	if _, err := replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{}); err == nil {
		t.Fatal("expected sequence gap error")
	}
}

func TestReplayRejectsCommandThePipelineRefuses(t *testing.T) {
	s := record(t)
	cmd, err := command.New(tally.CommandDraw, "p2", nil, 1)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	s.journal.records[0].Command = cmd

	_, err = replay.Replay(context.Background(), s.journal, checkpoint.NewNoop(), s.match(), replay.Options{})
	if !errors.Is(err, replay.ErrCommandRejected) {
		t.Fatalf("error = %v, want %v", err, replay.ErrCommandRejected)
	}
}

func TestReplayValidatesInputs(t *testing.T) {
	s := record(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		journal replay.Journal
		store   replay.CheckpointStore
		match   replay.Match[tally.Core]
		want    error
	}{
		{name: "journal", store: checkpoint.NewNoop(), match: s.match(), want: replay.ErrJournalRequired},
		{name: "checkpoints", journal: s.journal, match: s.match(), want: replay.ErrCheckpointStoreRequired},
		{name: "pipeline", journal: s.journal, store: checkpoint.NewNoop(), match: replay.Match[tally.Core]{ID: "m1"}, want: replay.ErrPipelineRequired},
		{name: "match id", journal: s.journal, store: checkpoint.NewNoop(), match: replay.Match[tally.Core]{Pipeline: s.pipeline}, want: replay.ErrMatchIDRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := replay.Replay(ctx, tt.journal, tt.store, tt.match, replay.Options{}); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
