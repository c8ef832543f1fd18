package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	platformotel "github.com/louisbranch/tabletop.run/internal/platform/otel"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/eventstream"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
)

var (
	// ErrMatchIDRequired indicates a missing match id.
	ErrMatchIDRequired = errors.New("match id is required")
	// ErrPipelineRequired indicates a missing pipeline.
	ErrPipelineRequired = errors.New("pipeline is required")
	// ErrPlayersRequired indicates a match without players.
	ErrPlayersRequired = errors.New("player ids are required")
)

// Journal records matches and their accepted commands.
type Journal interface {
	CreateMatch(ctx context.Context, match storage.MatchRecord) error
	AppendCommand(ctx context.Context, rec replay.Record) (storage.CommandRecord, error)
}

// Config configures a Session.
type Config[C any] struct {
	MatchID   string
	Game      string
	Seed      int64
	PlayerIDs []string
	Pipeline  *engine.Pipeline[C]
	// Initial is the state before the first command, usually from the
	// game's setup plus Pipeline.InitialState.
	Initial match.State[C]
	// Options is stored with the match so the initial state can be rebuilt.
	Options json.RawMessage
	// Journal is optional; without one the session only lives in memory.
	Journal Journal
	Tracer  trace.Tracer
	Logger  *log.Logger
	Now     func() time.Time
}

// Session runs commands for one match.
type Session[C any] struct {
	mu    sync.Mutex
	cfg   Config[C]
	state match.State[C]
	seq   uint64
}

func normalize[C any](cfg Config[C]) (Config[C], error) {
	cfg.MatchID = strings.TrimSpace(cfg.MatchID)
	if cfg.MatchID == "" {
		return cfg, ErrMatchIDRequired
	}
	if cfg.Pipeline == nil {
		return cfg, ErrPipelineRequired
	}
	if len(cfg.PlayerIDs) == 0 {
		return cfg, ErrPlayersRequired
	}
	cfg.PlayerIDs = append([]string(nil), cfg.PlayerIDs...)
	if cfg.Tracer == nil {
		cfg.Tracer = platformotel.Tracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg, nil
}

// NewSession starts a new match and records it in the journal, if any.
func NewSession[C any](ctx context.Context, cfg Config[C]) (*Session[C], error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Journal != nil {
		if err := cfg.Journal.CreateMatch(ctx, storage.MatchRecord{
			ID:        cfg.MatchID,
			Game:      cfg.Game,
			Seed:      cfg.Seed,
			PlayerIDs: cfg.PlayerIDs,
			Options:   cfg.Options,
			CreatedAt: cfg.Now().UTC(),
		}); err != nil {
			return nil, fmt.Errorf("create match %s: %w", cfg.MatchID, err)
		}
	}
	return &Session[C]{cfg: cfg, state: cfg.Initial}, nil
}

// Resume rebuilds a journaled match by replaying its commands and continues
// from the last sequence.
func Resume[C any](ctx context.Context, cfg Config[C], source replay.Journal, checkpoints replay.CheckpointStore) (*Session[C], error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	result, err := replay.Replay(ctx, source, checkpoints, replay.Match[C]{
		ID:        cfg.MatchID,
		Seed:      cfg.Seed,
		PlayerIDs: cfg.PlayerIDs,
		Initial:   cfg.Initial,
		Pipeline:  cfg.Pipeline,
	}, replay.Options{})
	if err != nil {
		return nil, fmt.Errorf("replay match %s: %w", cfg.MatchID, err)
	}
	return &Session[C]{cfg: cfg, state: result.State, seq: result.LastSeq}, nil
}

// Submit runs cmd against the current state. A rule rejection is reported
// in the result and leaves the session unchanged; the error return is for
// journal failures, which also leave the session unchanged.
func (s *Session[C]) Submit(ctx context.Context, cmd command.Command) (engine.Result[C], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd = cmd.Normalize()
	seq := s.seq + 1
	ctx, span := s.cfg.Tracer.Start(ctx, "game.command", trace.WithAttributes(
		attribute.String("match.id", s.cfg.MatchID),
		attribute.String("game", s.cfg.Game),
		attribute.String("command.type", string(cmd.Type)),
		attribute.String("player.id", cmd.PlayerID),
		attribute.Int64("command.seq", int64(seq)),
	))
	defer span.End()

	res := s.cfg.Pipeline.ProcessCommand(s.state, cmd, replay.Random(s.state.Sys, s.cfg.Seed, seq), s.cfg.PlayerIDs)
	if !res.OK() {
		span.SetAttributes(attribute.String("command.error", res.Error))
		span.SetStatus(codes.Error, res.Error)
		s.cfg.Logger.Printf("match %s: %s by %s rejected: %s", s.cfg.MatchID, cmd.Type, cmd.PlayerID, res.Error)
		return res, nil
	}
	span.SetAttributes(attribute.Int("events", len(res.Events)))

	if s.cfg.Journal != nil {
		hash, err := replay.Hash(res.State)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "hash state")
			return engine.Result[C]{State: s.state}, fmt.Errorf("hash state at seq %d: %w", seq, err)
		}
		if _, err := s.cfg.Journal.AppendCommand(ctx, replay.Record{
			MatchID:    s.cfg.MatchID,
			Seq:        seq,
			Command:    cmd,
			StateHash:  hash,
			RecordedAt: s.cfg.Now().UTC(),
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "journal append")
			s.cfg.Logger.Printf("match %s: journal append seq %d: %v", s.cfg.MatchID, seq, err)
			return engine.Result[C]{State: s.state}, fmt.Errorf("journal command %d: %w", seq, err)
		}
	}

	s.seq = seq
	s.state = res.State
	return res, nil
}

// State returns the current match state.
func (s *Session[C]) State() match.State[C] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seq returns the sequence of the last accepted command.
func (s *Session[C]) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Hash returns the content hash of the current state.
func (s *Session[C]) Hash() (string, error) {
	return replay.Hash(s.State())
}

// View returns the event stream as a consumer cursor sees it.
func (s *Session[C]) View() eventstream.View {
	state := s.State()
	return eventstream.View{Entries: state.Sys.EventStream.Entries}
}

// Since returns stream entries with ids above afterID.
func (s *Session[C]) Since(afterID int64) []match.StreamEntry {
	return eventstream.Since(s.State().Sys.EventStream, afterID)
}
