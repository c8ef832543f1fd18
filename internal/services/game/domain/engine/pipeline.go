package engine

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

var (
	// ErrDomainRequired indicates a missing game domain.
	ErrDomainRequired = errors.New("domain is required")
	// ErrSystemIDRequired indicates a System with a blank id.
	ErrSystemIDRequired = errors.New("system id is required")
)

// Result is the outcome of one command. Error holds the rejection code, and
// State is the input state whenever Error is set.
type Result[C any] struct {
	State  match.State[C]
	Events []event.Event
	Error  string
	// Err keeps the underlying rejection for logging.
	Err error
}

// OK reports whether the command was accepted.
func (r Result[C]) OK() bool {
	return r.Error == ""
}

// Pipeline runs commands through Systems and a Domain. It is read-only after
// construction and safe to share across matches.
type Pipeline[C any] struct {
	domain   Domain[C]
	commands *command.Registry
	systems  []System[C]
}

// NewPipeline builds a pipeline. Systems run in the given order for both hook
// phases; ids must be unique. A nil registry skips registry validation.
func NewPipeline[C any](domain Domain[C], commands *command.Registry, systems ...System[C]) (*Pipeline[C], error) {
	if domain == nil {
		return nil, ErrDomainRequired
	}
	seen := make(map[string]struct{}, len(systems))
	for _, sys := range systems {
		id := strings.TrimSpace(sys.ID())
		if id == "" {
			return nil, ErrSystemIDRequired
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("system already registered: %s", id)
		}
		seen[id] = struct{}{}
	}
	return &Pipeline[C]{
		domain:   domain,
		commands: commands,
		systems:  append([]System[C](nil), systems...),
	}, nil
}

// Commands returns the command registry, which may be nil.
func (p *Pipeline[C]) Commands() *command.Registry {
	return p.commands
}

// SystemIDs lists the registered Systems in hook order.
func (p *Pipeline[C]) SystemIDs() []string {
	ids := make([]string, 0, len(p.systems))
	for _, sys := range p.systems {
		ids = append(ids, sys.ID())
	}
	return ids
}

// InitialState builds a new match state around core.
func (p *Pipeline[C]) InitialState(core C, playerIDs []string) match.State[C] {
	state := match.State[C]{Core: core}
	for _, sys := range p.systems {
		if initializer, ok := sys.(Initializer); ok {
			initializer.Init(&state.Sys, playerIDs)
		}
	}
	state.Sys.SchemaVersion = match.SchemaVersion
	return state
}

// ProcessCommand runs one command and returns the resulting state and events.
func (p *Pipeline[C]) ProcessCommand(state match.State[C], cmd command.Command, r random.Fn, playerIDs []string) Result[C] {
	input := state
	cmd = cmd.Normalize()
	if cmd.Type == "" {
		return reject(input, apperrors.New(apperrors.CodeCommandTypeUnknown, command.ErrTypeRequired.Error()))
	}

	working := state
	var preEvents []event.Event
	for _, sys := range p.systems {
		hook, ok := sys.(BeforeCommander[C])
		if !ok {
			continue
		}
		res := hook.BeforeCommand(HookContext[C]{
			State:     working,
			Command:   cmd,
			Events:    preEvents,
			Random:    r,
			PlayerIDs: playerIDs,
		})
		if res == nil {
			continue
		}
		if res.Halt && res.Err != nil {
			return reject(input, res.Err)
		}
		if res.State != nil {
			working = *res.State
		}
		if res.Halt {
			return Result[C]{State: working, Events: append(preEvents, res.Events...)}
		}
		preEvents = append(preEvents, res.Events...)
	}

	batch := preEvents
	if !p.isSystemOwned(cmd.Type) {
		if p.commands != nil {
			validated, err := p.commands.Validate(cmd)
			if err != nil {
				return reject(input, err)
			}
			cmd = validated
		}
		if err := p.domain.Validate(working, cmd); err != nil {
			return rejectWith(input, err, apperrors.CodeCommandRejected)
		}
		core, domainEvents := p.domain.Execute(working, cmd, r)
		working.Core = core
		for _, evt := range domainEvents {
			batch = append(batch, evt.Normalize())
		}
	}

	for _, sys := range p.systems {
		hook, ok := sys.(AfterEventer[C])
		if !ok {
			continue
		}
		res := hook.AfterEvents(HookContext[C]{
			State:     working,
			Command:   cmd,
			Events:    batch,
			Random:    r,
			PlayerIDs: playerIDs,
		})
		if res == nil {
			continue
		}
		if res.Halt && res.Err != nil {
			return reject(input, res.Err)
		}
		if res.State != nil {
			working = *res.State
		}
		batch = append(batch, res.Events...)
		if res.Halt {
			break
		}
	}
	return Result[C]{State: working, Events: batch}
}

func (p *Pipeline[C]) isSystemOwned(cmdType command.Type) bool {
	if p.commands == nil {
		return cmdType.IsSystem()
	}
	return p.commands.IsSystemOwned(cmdType)
}

func reject[C any](state match.State[C], err error) Result[C] {
	return rejectWith(state, err, apperrors.CodeInternal)
}

// rejectWith maps uncoded errors to fallback.
func rejectWith[C any](state match.State[C], err error, fallback apperrors.Code) Result[C] {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		code = fallback
	}
	return Result[C]{State: state, Error: string(code), Err: err}
}
