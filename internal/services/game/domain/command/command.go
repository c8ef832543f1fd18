package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies the command type string.
type Type string

// SystemPrefix marks commands handled entirely by engine Systems.
const SystemPrefix = "SYS_"

// IsSystem reports whether t is reserved for engine Systems.
func (t Type) IsSystem() bool {
	return strings.HasPrefix(string(t), SystemPrefix)
}

// Command is the envelope submitted by a player.
type Command struct {
	Type        Type            `json:"type"`
	PlayerID    string          `json:"playerId"`
	PayloadJSON json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

// New builds a command, encoding payload as JSON. A nil payload becomes {}.
func New(cmdType Type, playerID string, payload any, timestamp int64) (Command, error) {
	cmd := Command{Type: cmdType, PlayerID: playerID, Timestamp: timestamp}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Command{}, fmt.Errorf("encode %s payload: %w", cmdType, err)
		}
		cmd.PayloadJSON = raw
	}
	return cmd.Normalize(), nil
}

// Normalize trims identifiers, compacts the payload, and replaces an empty or
// null payload with {}.
func (c Command) Normalize() Command {
	c.Type = Type(strings.TrimSpace(string(c.Type)))
	c.PlayerID = strings.TrimSpace(c.PlayerID)
	trimmed := bytes.TrimSpace(c.PayloadJSON)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		c.PayloadJSON = json.RawMessage("{}")
	} else {
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err == nil {
			trimmed = compact.Bytes()
		}
		c.PayloadJSON = append(json.RawMessage(nil), trimmed...)
	}
	return c
}

// Decode unmarshals the payload into v.
func (c Command) Decode(v any) error {
	payload := c.PayloadJSON
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", c.Type, err)
	}
	return nil
}
