package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/tabletop.run/internal/platform/id"
	seedgen "github.com/louisbranch/tabletop.run/internal/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/encoding"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/games/tally"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/eventstream"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/tutorial"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/undo"
	"github.com/louisbranch/tabletop.run/internal/services/game/runtime"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/integrity"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/sqlite"
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// JournalPath, when set, journals every accepted command to a SQLite
	// database and verifies its hash chain after the run.
	JournalPath string
	// Keyring signs journaled commands. Nil leaves rows unsigned.
	Keyring *integrity.Keyring
}

// Runner executes scenarios.
type Runner struct {
	assertions *Assertions
	logger     *log.Logger
	verbose    bool
	journal    *sqlite.Store
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	r := &Runner{
		assertions: &Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
	}
	if strings.TrimSpace(cfg.JournalPath) != "" {
		var opts []sqlite.Option
		if cfg.Keyring != nil {
			opts = append(opts, sqlite.WithKeyring(cfg.Keyring))
		}
		store, err := sqlite.Open(context.Background(), cfg.JournalPath, opts...)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		r.journal = store
	}
	return r, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	return r.journal.Close()
}

// Failed returns how many expectations failed across every run.
func (r *Runner) Failed() int {
	return r.assertions.Failed()
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.RunScenario(ctx, scenario)
}

type runState struct {
	players []string
	session *runtime.Session[tally.Core]
	last    *engine.Result[tally.Core]
}

// RunScenario plays the scenario against a fresh tally match.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	session, matchID, err := r.newSession(ctx, scenario.Setup)
	if err != nil {
		return err
	}
	r.logf("scenario start: %s (%d steps, match %s)", scenario.Name, len(scenario.Steps), matchID)
	state := &runState{players: scenario.Setup.Players, session: session}

	for index, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepStart := time.Now()
		if err := r.runStep(ctx, state, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", index+1, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", index+1, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}

	if r.journal != nil {
		if err := r.journal.VerifyChain(ctx, matchID); err != nil {
			return fmt.Errorf("verify journal: %w", err)
		}
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) newSession(ctx context.Context, setup Setup) (*runtime.Session[tally.Core], string, error) {
	settings := tally.Settings{
		Options:          tally.Options{HandSize: setup.HandSize, Target: setup.Target},
		Cheats:           setup.Cheats,
		MaxUndoSnapshots: setup.Undo,
	}
	for _, t := range setup.Allowlist {
		settings.UndoAllowlist = append(settings.UndoAllowlist, command.Type(t))
	}
	seed, source, err := random.ResolveSeed(setup.Seed, true, seedgen.NewSeed)
	if err != nil {
		return nil, "", err
	}
	r.logf("seed %d (%s)", seed, source)
	pipeline, initial, err := settings.Build(r.logger, setup.Players, seed)
	if err != nil {
		return nil, "", err
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, "", fmt.Errorf("encode settings: %w", err)
	}
	matchID, err := id.NewID()
	if err != nil {
		return nil, "", err
	}

	cfg := runtime.Config[tally.Core]{
		MatchID:   matchID,
		Game:      tally.GameID,
		Seed:      seed,
		PlayerIDs: setup.Players,
		Pipeline:  pipeline,
		Initial:   initial,
		Options:   settingsJSON,
		Logger:    r.logger,
	}
	if r.journal != nil {
		cfg.Journal = r.journal
	}
	session, err := runtime.NewSession(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	return session, matchID, nil
}

func (r *Runner) runStep(ctx context.Context, state *runState, step Step) error {
	switch step.Kind {
	case "command":
		return r.runCommand(ctx, state, step.Args)
	case "tutorial":
		return r.startTutorial(ctx, state, step.Args)
	case "expect_ok":
		if state.last == nil {
			return r.assertions.Failf("no command has run")
		}
		if !state.last.OK() {
			return r.assertions.Failf("command rejected with %s", state.last.Error)
		}
	case "expect_error":
		want := argString(step.Args, "code")
		if state.last == nil {
			return r.assertions.Failf("no command has run")
		}
		if state.last.Error != want {
			return r.assertions.Failf("error = %q, want %q", state.last.Error, want)
		}
	case "expect_snapshots":
		want := argInt(step.Args, "count")
		if got := undo.Depth(state.session.State().Sys); got != want {
			return r.assertions.Failf("undo snapshots = %d, want %d", got, want)
		}
	case "expect_stream_len":
		want := argInt(step.Args, "count")
		if got := len(state.session.State().Sys.EventStream.Entries); got != want {
			return r.assertions.Failf("stream entries = %d, want %d", got, want)
		}
	case "expect_stream":
		entries, err := eventstream.Filter(state.session.State().Sys.EventStream, argString(step.Args, "filter"))
		if err != nil {
			return err
		}
		if want := argInt(step.Args, "count"); len(entries) != want {
			return r.assertions.Failf("stream entries matching %q = %d, want %d", argString(step.Args, "filter"), len(entries), want)
		}
	case "expect_core":
		return r.expectCore(state, argString(step.Args, "field"), step.Args["value"])
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
	return nil
}

func (r *Runner) runCommand(ctx context.Context, state *runState, args map[string]any) error {
	var payload any
	if p, ok := args["payload"].(map[string]any); ok && len(p) > 0 {
		payload = p
	}
	return r.submit(ctx, state, command.Type(argString(args, "type")), argString(args, "player"), payload)
}

func (r *Runner) submit(ctx context.Context, state *runState, cmdType command.Type, player string, payload any) error {
	cmd, err := command.New(cmdType, player, payload, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	res, err := state.session.Submit(ctx, cmd)
	if err != nil {
		return err
	}
	state.last = &res
	if r.verbose {
		if res.OK() {
			r.logger.Printf("%s by %s: %d events", cmd.Type, cmd.PlayerID, len(res.Events))
		} else {
			r.logger.Printf("%s by %s: %s", cmd.Type, cmd.PlayerID, res.Error)
		}
	}
	return nil
}

// startTutorial parses a YAML manifest and submits it as a tutorial start.
func (r *Runner) startTutorial(ctx context.Context, state *runState, args map[string]any) error {
	manifest, err := tutorial.ParseManifest([]byte(argString(args, "manifest")))
	if err != nil {
		return err
	}
	player := argString(args, "player")
	if player == "" {
		player = state.players[0]
	}
	return r.submit(ctx, state, tutorial.CommandStart, player, manifest)
}

func (r *Runner) expectCore(state *runState, field string, want any) error {
	data, err := encoding.CanonicalJSON(state.session.State().Core)
	if err != nil {
		return err
	}
	var core any
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}
	got, ok := lookupField(core, field)
	if !ok {
		return r.assertions.Failf("core field %q not found", field)
	}
	if formatValue(got) != formatValue(want) {
		return r.assertions.Failf("core %s = %s, want %s", field, formatValue(got), formatValue(want))
	}
	return nil
}

// lookupField walks a dotted path through decoded JSON. Numeric segments
// index arrays.
func lookupField(value any, path string) (any, bool) {
	for _, part := range strings.Split(path, ".") {
		switch node := value.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			value = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			value = node[idx]
		default:
			return nil, false
		}
	}
	return value, true
}

func formatValue(value any) string {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return "nil"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string) int {
	n, _ := args[key].(int)
	return n
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
