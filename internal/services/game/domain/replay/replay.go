// Package replay re-runs a match's command journal through its pipeline.
//
// Commands are applied in sequence order with the same per-command random
// source the live session used, so the replayed state matches the recorded
// state hashes exactly.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/encoding"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/snapshot"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/tutorial"
)

const (
	defaultPageSize        = 200
	defaultCheckpointEvery = 50
)

var (
	// ErrJournalRequired indicates a missing command journal.
	ErrJournalRequired = errors.New("journal is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrPipelineRequired indicates a missing pipeline.
	ErrPipelineRequired = errors.New("pipeline is required")
	// ErrMatchIDRequired indicates a missing match id.
	ErrMatchIDRequired = errors.New("match id is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrHashMismatch indicates a replayed state that differs from the recorded one.
	ErrHashMismatch = errors.New("state hash mismatch")
	// ErrCommandRejected indicates a journaled command the pipeline no longer accepts.
	ErrCommandRejected = errors.New("journaled command rejected")
)

// Record is one accepted command as stored in the journal. StateHash is the
// content hash of the state the command produced.
type Record struct {
	MatchID    string
	Seq        uint64
	Command    command.Command
	StateHash  string
	RecordedAt time.Time
}

// Journal lists journaled commands for replay.
type Journal interface {
	ListCommands(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]Record, error)
}

// CheckpointStore manages replay checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, matchID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Checkpoint is an encoded match state after LastSeq commands.
type Checkpoint struct {
	MatchID   string
	LastSeq   uint64
	State     []byte
	UpdatedAt time.Time
}

// Options configures replay behavior.
type Options struct {
	// UntilSeq stops after this sequence; zero replays everything.
	UntilSeq uint64
	PageSize int
	// CheckpointEvery saves a checkpoint every n applied commands and once at
	// the end. Negative disables checkpoint saves.
	CheckpointEvery int
	// SkipHashCheck ignores recorded state hashes.
	SkipHashCheck bool
}

// Match describes the match being replayed.
type Match[C any] struct {
	ID        string
	Seed      int64
	PlayerIDs []string
	// Initial is the state before the first command.
	Initial  match.State[C]
	Pipeline *engine.Pipeline[C]
	Codec    snapshot.Codec
}

// Result captures replay outcomes.
type Result[C any] struct {
	State   match.State[C]
	LastSeq uint64
	Applied int
	// Resumed is the checkpoint sequence replay started from, zero when it
	// started from the initial state.
	Resumed uint64
}

// Random returns the source a command at seq runs with: the match seed
// stream for seq, wrapped by any active tutorial policy.
func Random(sys match.EngineState, seed int64, seq uint64) random.Fn {
	return tutorial.Random(sys, random.ForCommand(seed, seq))
}

// Hash returns the content hash of a match state.
func Hash[C any](state match.State[C]) (string, error) {
	return encoding.ContentHash(state)
}

// Replay applies the journal of m on top of the latest checkpoint, or of
// m.Initial when none exists.
func Replay[C any](ctx context.Context, journal Journal, checkpoints CheckpointStore, m Match[C], options Options) (Result[C], error) {
	if journal == nil {
		return Result[C]{}, ErrJournalRequired
	}
	if checkpoints == nil {
		return Result[C]{}, ErrCheckpointStoreRequired
	}
	if m.Pipeline == nil {
		return Result[C]{}, ErrPipelineRequired
	}
	matchID := strings.TrimSpace(m.ID)
	if matchID == "" {
		return Result[C]{}, ErrMatchIDRequired
	}

	result := Result[C]{State: m.Initial}
	checkpoint, err := checkpoints.Get(ctx, matchID)
	switch {
	case errors.Is(err, ErrCheckpointNotFound):
	case err != nil:
		return result, err
	case len(checkpoint.State) > 0 && (options.UntilSeq == 0 || checkpoint.LastSeq <= options.UntilSeq):
		var restored match.State[C]
		if err := m.Codec.Decode(checkpoint.State, &restored); err != nil {
			return result, fmt.Errorf("decode checkpoint at seq %d: %w", checkpoint.LastSeq, err)
		}
		result.State = restored
		result.LastSeq = checkpoint.LastSeq
		result.Resumed = checkpoint.LastSeq
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	every := options.CheckpointEvery
	if every == 0 {
		every = defaultCheckpointEvery
	}

	save := func() error {
		if every < 0 || result.Applied == 0 {
			return nil
		}
		data, err := m.Codec.Encode(result.State)
		if err != nil {
			return fmt.Errorf("encode checkpoint: %w", err)
		}
		return checkpoints.Save(ctx, Checkpoint{MatchID: matchID, LastSeq: result.LastSeq, State: data, UpdatedAt: time.Now().UTC()})
	}

	for {
		records, err := journal.ListCommands(ctx, matchID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(records) == 0 {
			return result, save()
		}
		for _, rec := range records {
			if options.UntilSeq > 0 && rec.Seq > options.UntilSeq {
				return result, save()
			}
			expectedSeq := result.LastSeq + 1
			if rec.Seq != expectedSeq {
				return result, fmt.Errorf("command sequence gap: expected %d got %d", expectedSeq, rec.Seq)
			}
			res := m.Pipeline.ProcessCommand(result.State, rec.Command, Random(result.State.Sys, m.Seed, rec.Seq), m.PlayerIDs)
			if !res.OK() {
				return result, fmt.Errorf("%w: seq %d %s: %s", ErrCommandRejected, rec.Seq, rec.Command.Type, res.Error)
			}
			if !options.SkipHashCheck && rec.StateHash != "" {
				hash, err := Hash(res.State)
				if err != nil {
					return result, fmt.Errorf("hash state at seq %d: %w", rec.Seq, err)
				}
				if hash != rec.StateHash {
					return result, fmt.Errorf("%w at seq %d: recorded %s, replayed %s", ErrHashMismatch, rec.Seq, rec.StateHash, hash)
				}
			}
			result.State = res.State
			result.LastSeq = rec.Seq
			result.Applied++
			if every > 0 && result.Applied%every == 0 {
				if err := save(); err != nil {
					return result, err
				}
			}
		}
	}
}
