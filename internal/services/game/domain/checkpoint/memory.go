// Package checkpoint holds replay.CheckpointStore implementations that live
// outside the journal database.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
)

// ErrMatchIDRequired is replay's sentinel, re-exported for store callers.
var ErrMatchIDRequired = replay.ErrMatchIDRequired

var errNilMemory = errors.New("checkpoint store is required")

// Memory keeps one checkpoint per match. Saved and returned states are
// copies, so callers may reuse their buffers.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]replay.Checkpoint
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{byID: map[string]replay.Checkpoint{}}
}

func (m *Memory) Get(ctx context.Context, matchID string) (replay.Checkpoint, error) {
	id, err := m.check(ctx, matchID)
	if err != nil {
		return replay.Checkpoint{}, err
	}
	m.mu.RLock()
	cp, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return withStateCopy(cp), nil
}

// Save overwrites whatever the match had, including a later sequence.
func (m *Memory) Save(ctx context.Context, cp replay.Checkpoint) error {
	id, err := m.check(ctx, cp.MatchID)
	if err != nil {
		return err
	}
	cp.MatchID = id
	cp = withStateCopy(cp)
	m.mu.Lock()
	m.byID[id] = cp
	m.mu.Unlock()
	return nil
}

// Delete forgets a match's checkpoint. Deleting a missing one is not an error.
func (m *Memory) Delete(ctx context.Context, matchID string) error {
	id, err := m.check(ctx, matchID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.byID, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many matches have a checkpoint.
func (m *Memory) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *Memory) check(ctx context.Context, matchID string) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	if m == nil {
		return "", errNilMemory
	}
	id := strings.TrimSpace(matchID)
	if id == "" {
		return "", ErrMatchIDRequired
	}
	return id, nil
}

func withStateCopy(cp replay.Checkpoint) replay.Checkpoint {
	if cp.State != nil {
		cp.State = append([]byte(nil), cp.State...)
	}
	return cp
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
