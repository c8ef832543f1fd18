package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
)

// Checkpoints stores the latest replay checkpoint per match next to the
// journal.
type Checkpoints struct {
	store *Store
}

var _ replay.CheckpointStore = (*Checkpoints)(nil)

// Checkpoints returns the checkpoint store backed by this database.
func (s *Store) Checkpoints() *Checkpoints {
	return &Checkpoints{store: s}
}

// Get returns the checkpoint for a match or replay.ErrCheckpointNotFound.
func (c *Checkpoints) Get(ctx context.Context, matchID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	if c == nil {
		return replay.Checkpoint{}, fmt.Errorf("storage is not configured")
	}
	if err := c.store.ready(); err != nil {
		return replay.Checkpoint{}, err
	}

	cp := replay.Checkpoint{MatchID: strings.TrimSpace(matchID)}
	var lastSeq, updatedAt int64
	row := c.store.db.QueryRowContext(ctx, `
SELECT last_seq, state, updated_at FROM checkpoints WHERE match_id = ?`, cp.MatchID)
	if err := row.Scan(&lastSeq, &cp.State, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return replay.Checkpoint{}, replay.ErrCheckpointNotFound
		}
		return replay.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	cp.LastSeq = uint64(lastSeq)
	cp.UpdatedAt = fromMillis(updatedAt)
	return cp, nil
}

// Save replaces the checkpoint for cp.MatchID. The match must exist.
func (c *Checkpoints) Save(ctx context.Context, cp replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := c.store.ready(); err != nil {
		return err
	}
	cp.MatchID = strings.TrimSpace(cp.MatchID)
	if cp.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	if len(cp.State) == 0 {
		return fmt.Errorf("checkpoint state is required")
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = c.store.now()
	}

	_, err := c.store.db.ExecContext(ctx, `
INSERT INTO checkpoints (match_id, last_seq, state, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(match_id) DO UPDATE SET
    last_seq = excluded.last_seq,
    state = excluded.state,
    updated_at = excluded.updated_at`,
		cp.MatchID, int64(cp.LastSeq), cp.State, toMillis(cp.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("save checkpoint for %s: %w", cp.MatchID, storage.ErrNotFound)
		}
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
