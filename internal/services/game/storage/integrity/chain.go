package integrity

import (
	"encoding/json"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/encoding"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
)

type chainEnvelope struct {
	MatchID   string          `json:"matchId"`
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	PlayerID  string          `json:"playerId"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	StateHash string          `json:"stateHash"`
	PrevHash  string          `json:"prevHash"`
}

// ChainHash links a journaled command to the chain hash of the command
// before it. The first command of a match uses an empty prevHash.
func ChainHash(rec replay.Record, prevHash string) (string, error) {
	cmd := rec.Command.Normalize()
	return encoding.ContentHash(chainEnvelope{
		MatchID:   rec.MatchID,
		Seq:       rec.Seq,
		Type:      string(cmd.Type),
		PlayerID:  cmd.PlayerID,
		Payload:   cmd.PayloadJSON,
		Timestamp: cmd.Timestamp,
		StateHash: rec.StateHash,
		PrevHash:  prevHash,
	})
}
