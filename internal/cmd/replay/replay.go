// Package replay wires the replay CLI: it rebuilds a journaled match and
// reports its final state hash.
package replay

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	platformcmd "github.com/louisbranch/tabletop.run/internal/platform/cmd"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/checkpoint"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/filter"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/games/tally"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/snapshot"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/eventstream"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/integrity"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/sqlite"
)

const commandListLimit = 500

// Config holds replay command configuration.
type Config struct {
	Journal  string `env:"REPLAY_JOURNAL"`
	MatchID  string `env:"REPLAY_MATCH"`
	Until    uint64 `env:"REPLAY_UNTIL"`
	Events   string `env:"REPLAY_EVENTS"`
	Commands string `env:"REPLAY_COMMANDS"`
	Verify   bool   `env:"REPLAY_VERIFY" envDefault:"true"`
	// Checkpoints resumes from and saves compressed checkpoints in the
	// journal database.
	Checkpoints     bool `env:"REPLAY_CHECKPOINTS"`
	CheckpointEvery int  `env:"REPLAY_CHECKPOINT_EVERY" envDefault:"50"`
}

// ParseConfig loads env defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Journal, "journal", cfg.Journal, "path to the sqlite journal")
	fs.StringVar(&cfg.MatchID, "match", cfg.MatchID, "match id to replay")
	fs.Uint64Var(&cfg.Until, "until", cfg.Until, "stop after this command sequence (0 = all)")
	fs.StringVar(&cfg.Events, "events", cfg.Events, `print stream events matching a filter, e.g. type = "CARD_PLAYED"`)
	fs.StringVar(&cfg.Commands, "commands", cfg.Commands, `print journaled commands matching a filter, e.g. player = "p1"`)
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "verify the journal hash chain before replaying")
	fs.BoolVar(&cfg.Checkpoints, "checkpoints", cfg.Checkpoints, "resume from and save checkpoints in the journal")
	fs.IntVar(&cfg.CheckpointEvery, "checkpoint-every", cfg.CheckpointEvery, "commands between checkpoints")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the replay command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.Journal) == "" {
		return errors.New("journal path is required")
	}
	matchID := strings.TrimSpace(cfg.MatchID)
	if matchID == "" {
		return errors.New("match id is required")
	}

	var opts []sqlite.Option
	keyring, err := integrity.KeyringFromEnv()
	switch {
	case errors.Is(err, integrity.ErrNoKeys):
	case err != nil:
		return err
	default:
		opts = append(opts, sqlite.WithKeyring(keyring))
	}
	store, err := sqlite.Open(ctx, cfg.Journal, opts...)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	rec, err := store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load match %s: %w", matchID, err)
	}
	if rec.Game != tally.GameID {
		return fmt.Errorf("match %s: unsupported game %q", matchID, rec.Game)
	}
	if cfg.Verify {
		if err := store.VerifyChain(ctx, matchID); err != nil {
			return fmt.Errorf("verify journal: %w", err)
		}
	}

	settings, err := tally.DecodeSettings(rec.Options)
	if err != nil {
		return err
	}
	logger := log.New(errOut, "", 0)
	pipeline, initial, err := settings.Build(logger, rec.PlayerIDs, rec.Seed)
	if err != nil {
		return err
	}

	var checkpoints replay.CheckpointStore = checkpoint.NewNoop()
	options := replay.Options{UntilSeq: cfg.Until, CheckpointEvery: -1}
	if cfg.Checkpoints {
		checkpoints = store.Checkpoints()
		options.CheckpointEvery = cfg.CheckpointEvery
		if options.CheckpointEvery <= 0 {
			options.CheckpointEvery = -1
		}
	}
	result, err := replay.Replay(ctx, store, checkpoints, replay.Match[tally.Core]{
		ID:        matchID,
		Seed:      rec.Seed,
		PlayerIDs: rec.PlayerIDs,
		Initial:   initial,
		Pipeline:  pipeline,
		Codec:     snapshot.Codec{Compress: true},
	}, options)
	if err != nil {
		return fmt.Errorf("replay match %s: %w", matchID, err)
	}
	hash, err := replay.Hash(result.State)
	if err != nil {
		return err
	}

	printer := log.New(out, "", 0)
	printer.Printf("match %s: seq %d, round %d, winner %q", matchID, result.LastSeq, result.State.Core.Round, result.State.Core.Winner)
	printer.Printf("hash %s", hash)
	if result.Resumed > 0 {
		printer.Printf("resumed from checkpoint at seq %d, applied %d", result.Resumed, result.Applied)
	}

	if expr := strings.TrimSpace(cfg.Events); expr != "" {
		entries, err := eventstream.Filter(result.State.Sys.EventStream, expr)
		if err != nil {
			return fmt.Errorf("filter events: %w", err)
		}
		for _, entry := range entries {
			printer.Printf("event %d %s", entry.ID, entry.Event.Type)
		}
	}
	if expr := strings.TrimSpace(cfg.Commands); expr != "" {
		f, err := filter.Parse(expr, storage.CommandFields)
		if err != nil {
			return fmt.Errorf("filter commands: %w", err)
		}
		records, err := store.QueryCommands(ctx, matchID, f, commandListLimit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			printer.Printf("command %d %s by %s", rec.Seq, rec.Command.Type, rec.Command.PlayerID)
		}
	}
	return nil
}
