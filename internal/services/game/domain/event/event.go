package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies the event type string.
type Type string

// Event is one emitted game fact.
type Event struct {
	Type        Type            `json:"type"`
	PayloadJSON json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

var emptyPayload = json.RawMessage("{}")

// New builds an event, encoding payload as JSON. A nil payload becomes {}.
func New(eventType Type, payload any, timestamp int64) (Event, error) {
	eventType = Type(strings.TrimSpace(string(eventType)))
	if eventType == "" {
		return Event{}, fmt.Errorf("event type is required")
	}
	raw := emptyPayload
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		raw = encoded
	}
	return Event{Type: eventType, PayloadJSON: normalizePayload(raw), Timestamp: timestamp}, nil
}

// Must is New for payloads that cannot fail to encode (maps and plain structs).
func Must(eventType Type, payload any, timestamp int64) Event {
	evt, err := New(eventType, payload, timestamp)
	if err != nil {
		panic(err)
	}
	return evt
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(normalizePayload(e.PayloadJSON), v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Normalize trims the type and replaces an empty or null payload with {}.
func (e Event) Normalize() Event {
	e.Type = Type(strings.TrimSpace(string(e.Type)))
	e.PayloadJSON = normalizePayload(e.PayloadJSON)
	return e
}

func normalizePayload(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return append(json.RawMessage(nil), emptyPayload...)
	}
	return append(json.RawMessage(nil), trimmed...)
}
