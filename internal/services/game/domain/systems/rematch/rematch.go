// Package rematch collects end-of-match rematch votes.
package rematch

import (
	"slices"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// SystemID identifies the rematch system.
const SystemID = "rematch"

const (
	CommandVote  command.Type = "SYS_REMATCH_VOTE"
	CommandReset command.Type = "SYS_REMATCH_RESET"
)

const (
	EventVoted event.Type = "SYS_REMATCH_VOTED"
	EventReady event.Type = "SYS_REMATCH_READY"
	EventReset event.Type = "SYS_REMATCH_RESET"
)

type votePayload struct {
	Vote bool `json:"vote"`
}

type votedPayload struct {
	PlayerID string `json:"playerId"`
	Vote     bool   `json:"vote"`
}

// System is the rematch System.
type System[C any] struct{}

// New builds a rematch system.
func New[C any]() *System[C] {
	return &System[C]{}
}

// ID implements engine.System.
func (s *System[C]) ID() string { return SystemID }

// BeforeCommand implements engine.BeforeCommander.
func (s *System[C]) BeforeCommand(ctx engine.HookContext[C]) *engine.HookResult[C] {
	cmd := ctx.Command
	switch cmd.Type {
	case CommandVote:
		if !slices.Contains(ctx.PlayerIDs, cmd.PlayerID) {
			return engine.Reject[C](apperrors.WithMetadata(apperrors.CodeRematchNotPlayer,
				"only players in the match can vote", map[string]string{"PlayerID": cmd.PlayerID}))
		}
		var p votePayload
		if err := cmd.Decode(&p); err != nil {
			return engine.Reject[C](apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "decode vote", err))
		}
		votes := make(map[string]bool, len(ctx.State.Sys.Rematch.Votes)+1)
		for id, v := range ctx.State.Sys.Rematch.Votes {
			votes[id] = v
		}
		votes[cmd.PlayerID] = p.Vote

		next := ctx.State
		ready := Ready(votes, ctx.PlayerIDs)
		next.Sys.Rematch = match.RematchState{Votes: votes, Ready: ready}
		events := []event.Event{command.MustEvent(cmd, EventVoted, votedPayload{PlayerID: cmd.PlayerID, Vote: p.Vote})}
		if ready {
			events = append(events, command.MustEvent(cmd, EventReady, nil))
		}
		return engine.Stop(next, events...)
	case CommandReset:
		next := ctx.State
		next.Sys.Rematch = match.RematchState{}
		return engine.Stop(next, command.MustEvent(cmd, EventReset, nil))
	}
	return nil
}

// Ready reports whether every player voted yes.
func Ready(votes map[string]bool, playerIDs []string) bool {
	if len(playerIDs) == 0 {
		return false
	}
	for _, id := range playerIDs {
		if !votes[id] {
			return false
		}
	}
	return true
}
