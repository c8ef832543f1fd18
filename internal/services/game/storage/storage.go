package storage

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/filter"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrMatchExists indicates a match id is already taken.
var ErrMatchExists = apperrors.New(apperrors.CodeMatchExists, "match already exists")

// ErrSequenceConflict indicates an append whose sequence was already written.
var ErrSequenceConflict = apperrors.New(apperrors.CodeSequenceConflict, "journal sequence already written")

// MatchRecord describes everything needed to rebuild a match's initial state.
type MatchRecord struct {
	ID        string
	Game      string
	Seed      int64
	PlayerIDs []string
	// Options holds the game's setup options as JSON.
	Options   json.RawMessage
	CreatedAt time.Time
}

// CommandRecord is a journaled command with its integrity chain.
type CommandRecord struct {
	replay.Record
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
}

// CommandFields lists the fields accepted by command journal filters.
var CommandFields = filter.Fields{
	"type":   filter.FieldString,
	"player": filter.FieldString,
	"seq":    filter.FieldInt,
}

// MatchStore persists match metadata.
type MatchStore interface {
	CreateMatch(ctx context.Context, match MatchRecord) error
	GetMatch(ctx context.Context, matchID string) (MatchRecord, error)
}

// CommandJournal appends and lists accepted commands.
type CommandJournal interface {
	replay.Journal
	// AppendCommand stores rec, which must carry the next sequence for its
	// match.
	AppendCommand(ctx context.Context, rec replay.Record) (CommandRecord, error)
	// QueryCommands lists a match's commands matching f in sequence order.
	QueryCommands(ctx context.Context, matchID string, f filter.Filter, limit int) ([]CommandRecord, error)
}
