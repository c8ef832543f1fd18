package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/filter"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/integrity"
)

const defaultListLimit = 200

var (
	_ storage.MatchStore     = (*Store)(nil)
	_ storage.CommandJournal = (*Store)(nil)
)

var commandColumns = map[string]string{
	"type":   "command_type",
	"player": "player_id",
	"seq":    "seq",
}

const selectCommand = `
SELECT match_id, seq, command_type, player_id, payload_json, command_timestamp,
       state_hash, prev_hash, chain_hash, signature, signature_key_id, recorded_at
FROM commands`

// AppendCommand stores rec as the next command of its match, chaining it to
// the previous command and signing it when a keyring is configured.
func (s *Store) AppendCommand(ctx context.Context, rec replay.Record) (storage.CommandRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CommandRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CommandRecord{}, err
	}
	rec.MatchID = strings.TrimSpace(rec.MatchID)
	if rec.MatchID == "" {
		return storage.CommandRecord{}, fmt.Errorf("match id is required")
	}
	if rec.Seq == 0 {
		return storage.CommandRecord{}, fmt.Errorf("command seq must be positive")
	}
	rec.Command = rec.Command.Normalize()
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	rec.RecordedAt = rec.RecordedAt.UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.CommandRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT 1 FROM matches WHERE id = ?", rec.MatchID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CommandRecord{}, storage.ErrNotFound
		}
		return storage.CommandRecord{}, fmt.Errorf("load match: %w", err)
	}

	var (
		lastSeq  int64
		prevHash string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT seq, chain_hash FROM commands WHERE match_id = ? ORDER BY seq DESC LIMIT 1",
		rec.MatchID,
	).Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storage.CommandRecord{}, fmt.Errorf("load previous command: %w", err)
	}
	if rec.Seq != uint64(lastSeq)+1 {
		return storage.CommandRecord{}, fmt.Errorf("%w: match %s at seq %d, got %d", storage.ErrSequenceConflict, rec.MatchID, lastSeq, rec.Seq)
	}

	stored := storage.CommandRecord{Record: rec, PrevHash: prevHash}
	stored.ChainHash, err = integrity.ChainHash(rec, prevHash)
	if err != nil {
		return storage.CommandRecord{}, fmt.Errorf("compute chain hash: %w", err)
	}
	if s.keyring != nil {
		stored.Signature, stored.SignatureKeyID, err = s.keyring.Sign(rec.MatchID, stored.ChainHash)
		if err != nil {
			return storage.CommandRecord{}, fmt.Errorf("sign chain hash: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO commands (
    match_id, seq, command_type, player_id, payload_json, command_timestamp,
    state_hash, prev_hash, chain_hash, signature, signature_key_id, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.MatchID, int64(rec.Seq), string(rec.Command.Type), rec.Command.PlayerID,
		string(rec.Command.PayloadJSON), rec.Command.Timestamp, rec.StateHash,
		stored.PrevHash, stored.ChainHash, stored.Signature, stored.SignatureKeyID,
		toMillis(rec.RecordedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.CommandRecord{}, storage.ErrSequenceConflict
		}
		return storage.CommandRecord{}, fmt.Errorf("append command: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.CommandRecord{}, fmt.Errorf("commit command: %w", err)
	}
	return stored, nil
}

// ListCommands returns up to limit commands after afterSeq in sequence order.
func (s *Store) ListCommands(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]replay.Record, error) {
	rows, err := s.queryCommands(ctx, matchID, filter.SQLCondition{Clause: "seq > ?", Params: []any{int64(afterSeq)}}, limit)
	if err != nil {
		return nil, err
	}
	out := make([]replay.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Record)
	}
	return out, nil
}

// QueryCommands lists commands matching an AIP-160 filter over
// storage.CommandFields.
func (s *Store) QueryCommands(ctx context.Context, matchID string, f filter.Filter, limit int) ([]storage.CommandRecord, error) {
	cond, err := f.SQL(commandColumns)
	if err != nil {
		return nil, fmt.Errorf("translate filter: %w", err)
	}
	return s.queryCommands(ctx, matchID, cond, limit)
}

func (s *Store) queryCommands(ctx context.Context, matchID string, cond filter.SQLCondition, limit int) ([]storage.CommandRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := selectCommand + " WHERE match_id = ?"
	args := []any{strings.TrimSpace(matchID)}
	if cond.Clause != "" {
		query += " AND " + cond.Clause
		args = append(args, cond.Params...)
	}
	query += " ORDER BY seq LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var out []storage.CommandRecord
	for rows.Next() {
		rec, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return out, nil
}

func scanCommand(rows *sql.Rows) (storage.CommandRecord, error) {
	var (
		rec        storage.CommandRecord
		seq        int64
		cmdType    string
		payload    string
		recordedAt int64
	)
	if err := rows.Scan(
		&rec.MatchID, &seq, &cmdType, &rec.Command.PlayerID, &payload, &rec.Command.Timestamp,
		&rec.StateHash, &rec.PrevHash, &rec.ChainHash, &rec.Signature, &rec.SignatureKeyID, &recordedAt,
	); err != nil {
		return storage.CommandRecord{}, fmt.Errorf("scan command: %w", err)
	}
	rec.Seq = uint64(seq)
	rec.Command.Type = command.Type(cmdType)
	rec.Command.PayloadJSON = json.RawMessage(payload)
	rec.RecordedAt = fromMillis(recordedAt)
	return rec, nil
}

// VerifyChain walks a match's journal and checks that every command links
// to its predecessor, hashes to its stored chain hash, and, with a keyring,
// carries a valid signature.
func (s *Store) VerifyChain(ctx context.Context, matchID string) error {
	var (
		prevHash string
		afterSeq int64
	)
	for {
		page, err := s.queryCommands(ctx, matchID, filter.SQLCondition{Clause: "seq > ?", Params: []any{afterSeq}}, defaultListLimit)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, rec := range page {
			if rec.Seq != uint64(afterSeq)+1 {
				return fmt.Errorf("command sequence gap at seq %d", afterSeq+1)
			}
			if rec.PrevHash != prevHash {
				return fmt.Errorf("seq %d: previous hash mismatch", rec.Seq)
			}
			chain, err := integrity.ChainHash(rec.Record, prevHash)
			if err != nil {
				return fmt.Errorf("seq %d: compute chain hash: %w", rec.Seq, err)
			}
			if chain != rec.ChainHash {
				return fmt.Errorf("seq %d: chain hash mismatch", rec.Seq)
			}
			if s.keyring != nil {
				if err := s.keyring.Verify(rec.MatchID, rec.ChainHash, rec.Signature, rec.SignatureKeyID); err != nil {
					return fmt.Errorf("seq %d: %w", rec.Seq, err)
				}
			}
			prevHash = rec.ChainHash
			afterSeq = int64(rec.Seq)
		}
	}
}
