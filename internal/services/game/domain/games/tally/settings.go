package tally

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// Settings holds everything that shapes a match besides its players and
// seed. Journaled matches store it so replay rebuilds the same pipeline.
type Settings struct {
	Options          Options        `json:"options"`
	Cheats           bool           `json:"cheats,omitempty"`
	MaxUndoSnapshots int            `json:"maxUndoSnapshots,omitempty"`
	CompressUndo     bool           `json:"compressUndo,omitempty"`
	MaxStreamEntries int            `json:"maxStreamEntries,omitempty"`
	UndoAllowlist    []command.Type `json:"undoAllowlist,omitempty"`
}

// DecodeSettings reads stored settings. Empty input yields the defaults.
func DecodeSettings(data []byte) (Settings, error) {
	var s Settings
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode tally settings: %w", err)
	}
	return s, nil
}

// Config returns the pipeline configuration for these settings.
func (s Settings) Config(logger *log.Logger) Config {
	return Config{
		Logger:           logger,
		Cheats:           s.Cheats,
		MaxUndoSnapshots: s.MaxUndoSnapshots,
		CompressUndo:     s.CompressUndo,
		MaxStreamEntries: s.MaxStreamEntries,
		UndoAllowlist:    s.UndoAllowlist,
	}
}

// Build creates the pipeline and the initial match state. The deal is
// shuffled by a source seeded with seed.
func (s Settings) Build(logger *log.Logger, playerIDs []string, seed int64) (*engine.Pipeline[Core], match.State[Core], error) {
	p, err := NewPipeline(s.Config(logger))
	if err != nil {
		return nil, match.State[Core]{}, err
	}
	return p, NewMatch(p, playerIDs, random.NewSeeded(seed), s.Options), nil
}
