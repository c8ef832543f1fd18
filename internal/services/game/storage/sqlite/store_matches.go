package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
)

// CreateMatch stores a new match. Reusing an id returns storage.ErrMatchExists.
func (s *Store) CreateMatch(ctx context.Context, match storage.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	match.ID = strings.TrimSpace(match.ID)
	if match.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(match.Game) == "" {
		return fmt.Errorf("game is required")
	}
	if len(match.PlayerIDs) == 0 {
		return fmt.Errorf("player ids are required")
	}

	players, err := json.Marshal(match.PlayerIDs)
	if err != nil {
		return fmt.Errorf("encode player ids: %w", err)
	}
	options := string(match.Options)
	if strings.TrimSpace(options) == "" {
		options = "{}"
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO matches (id, game, seed, player_ids_json, options_json, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		match.ID, match.Game, match.Seed, string(players), options, toMillis(match.CreatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrMatchExists
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// GetMatch loads a match by id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.MatchRecord{}, err
	}

	var (
		match     storage.MatchRecord
		players   string
		options   string
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx, `
SELECT id, game, seed, player_ids_json, options_json, created_at
FROM matches WHERE id = ?`, strings.TrimSpace(matchID))
	if err := row.Scan(&match.ID, &match.Game, &match.Seed, &players, &options, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MatchRecord{}, storage.ErrNotFound
		}
		return storage.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &match.PlayerIDs); err != nil {
		return storage.MatchRecord{}, fmt.Errorf("decode player ids: %w", err)
	}
	match.Options = json.RawMessage(options)
	match.CreatedAt = fromMillis(createdAt)
	return match, nil
}
