// Package undo keeps a bounded stack of pre-command snapshots and restores
// them through a request and approval flow.
//
// Only allowlisted command types push a snapshot. Undo commands are SYS_
// commands, never allowlisted, so a single pass either pushes or pops.
// Restores halt the pipeline and therefore reproduce the snapshot exactly.
package undo

import (
	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/snapshot"
)

// SystemID identifies the undo system.
const SystemID = "undo"

// DefaultMaxSnapshots bounds the stack when Config leaves it unset.
const DefaultMaxSnapshots = 50

const (
	CommandRequest command.Type = "SYS_REQUEST_UNDO"
	CommandApprove command.Type = "SYS_APPROVE_UNDO"
	CommandReject  command.Type = "SYS_REJECT_UNDO"
	CommandCancel  command.Type = "SYS_CANCEL_UNDO"
)

const (
	EventRequested event.Type = "SYS_UNDO_REQUESTED"
	EventApplied   event.Type = "SYS_UNDO_APPLIED"
	EventRejected  event.Type = "SYS_UNDO_REJECTED"
	EventCancelled event.Type = "SYS_UNDO_CANCELLED"
)

// Config configures the undo system.
type Config struct {
	MaxSnapshots int
	Allowlist    command.Allowlist
	Codec        snapshot.Codec
}

// System is the undo System for games with core state C.
type System[C any] struct {
	cfg Config
}

// New builds an undo system.
func New[C any](cfg Config) *System[C] {
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = DefaultMaxSnapshots
	}
	return &System[C]{cfg: cfg}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// Init implements engine.Initializer.
func (s *System[C]) Init(sys *match.EngineState, _ []string) {
	sys.Undo = match.UndoState{MaxSnapshots: s.cfg.MaxSnapshots}
}

type requestPayload struct {
	RequestedBy string `json:"requestedBy"`
}

type appliedPayload struct {
	RequestedBy string `json:"requestedBy"`
	ApprovedBy  string `json:"approvedBy"`
	Remaining   int    `json:"remaining"`
}

type decisionPayload struct {
	RequestedBy string `json:"requestedBy"`
	DecidedBy   string `json:"decidedBy"`
}

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	undo := ctx.State.Sys.Undo
	switch cmd.Type {
	case CommandRequest:
		if len(undo.Snapshots) == 0 {
			return engine.Reject[C](apperrors.New(apperrors.CodeEmptyUndoStack, "nothing to undo"))
		}
		if len(ctx.PlayerIDs) <= 1 {
			return s.restore(ctx, cmd.PlayerID, cmd.PlayerID)
		}
		next := ctx.State
		next.Sys.Undo.PendingRequest = &match.UndoRequest{RequestedBy: cmd.PlayerID, Timestamp: cmd.Timestamp}
		return engine.Stop(next, command.MustEvent(cmd, EventRequested, requestPayload{RequestedBy: cmd.PlayerID}))

	case CommandApprove:
		pending := undo.PendingRequest
		if pending == nil {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoNotRequested, "no undo request is pending"))
		}
		if pending.RequestedBy == cmd.PlayerID {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoSelfApproval, "requester cannot approve their own undo"))
		}
		if len(undo.Snapshots) == 0 {
			return engine.Reject[C](apperrors.New(apperrors.CodeEmptyUndoStack, "nothing to undo"))
		}
		return s.restore(ctx, pending.RequestedBy, cmd.PlayerID)

	case CommandReject:
		pending := undo.PendingRequest
		if pending == nil {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoNotRequested, "no undo request is pending"))
		}
		if pending.RequestedBy == cmd.PlayerID {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoSelfApproval, "requester cannot reject their own undo"))
		}
		next := ctx.State
		next.Sys.Undo.PendingRequest = nil
		return engine.Stop(next, command.MustEvent(cmd, EventRejected, decisionPayload{RequestedBy: pending.RequestedBy, DecidedBy: cmd.PlayerID}))

	case CommandCancel:
		pending := undo.PendingRequest
		if pending == nil {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoNotRequested, "no undo request is pending"))
		}
		if pending.RequestedBy != cmd.PlayerID {
			return engine.Reject[C](apperrors.New(apperrors.CodeUndoNotRequester, "only the requester can cancel an undo"))
		}
		next := ctx.State
		next.Sys.Undo.PendingRequest = nil
		return engine.Stop(next, command.MustEvent(cmd, EventCancelled, decisionPayload{RequestedBy: pending.RequestedBy, DecidedBy: cmd.PlayerID}))
	}

	if !s.cfg.Allowlist.Allows(cmd.Type) {
		return nil
	}
	return s.push(ctx)
}

func (s *System[C]) push(ctx engine.HookContext[C]) *engine.HookResult[C] {
	snap := ctx.State
	snap.Sys.Undo = match.UndoState{}
	data, err := s.cfg.Codec.Encode(snap)
	if err != nil {
		return engine.Reject[C](apperrors.Wrap(apperrors.CodeInternal, "encode undo snapshot", err))
	}

	limit := maxSnapshots(ctx.State.Sys.Undo, s.cfg.MaxSnapshots)
	stack := append(cloneStack(ctx.State.Sys.Undo.Snapshots), data)
	if over := len(stack) - limit; over > 0 {
		stack = stack[over:]
	}

	next := ctx.State
	next.Sys.Undo.Snapshots = stack
	next.Sys.Undo.MaxSnapshots = limit
	return engine.Continue(next)
}

func (s *System[C]) restore(ctx engine.HookContext[C], requestedBy, approvedBy string) *engine.HookResult[C] {
	undo := ctx.State.Sys.Undo
	top := undo.Snapshots[len(undo.Snapshots)-1]

	var restored match.State[C]
	if err := s.cfg.Codec.Decode(top, &restored); err != nil {
		return engine.Reject[C](apperrors.Wrap(apperrors.CodeUndoSnapshotCorrupt, "decode undo snapshot", err))
	}
	remaining := cloneStack(undo.Snapshots[:len(undo.Snapshots)-1])
	restored.Sys.Undo = match.UndoState{
		Snapshots:    remaining,
		MaxSnapshots: undo.MaxSnapshots,
	}
	return engine.Stop(restored, command.MustEvent(ctx.Command, EventApplied, appliedPayload{
		RequestedBy: requestedBy,
		ApprovedBy:  approvedBy,
		Remaining:   len(remaining),
	}))
}

func maxSnapshots(undo match.UndoState, fallback int) int {
	if undo.MaxSnapshots > 0 {
		return undo.MaxSnapshots
	}
	return fallback
}

// cloneStack copies the outer slice; snapshot bytes are immutable and shared.
func cloneStack(stack [][]byte) [][]byte {
	if len(stack) == 0 {
		return nil
	}
	out := make([][]byte, len(stack))
	copy(out, stack)
	return out
}

// CanUndo reports whether an undo request would find a snapshot.
func CanUndo(sys match.EngineState) bool {
	return len(sys.Undo.Snapshots) > 0
}

// Depth returns the number of stored snapshots.
func Depth(sys match.EngineState) int {
	return len(sys.Undo.Snapshots)
}

// Pending returns the pending request, if any.
func Pending(sys match.EngineState) (match.UndoRequest, bool) {
	if sys.Undo.PendingRequest == nil {
		return match.UndoRequest{}, false
	}
	return *sys.Undo.PendingRequest, true
}
