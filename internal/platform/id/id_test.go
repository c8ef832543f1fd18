package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func decodeID(t *testing.T, id string) []byte {
	t.Helper()
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(id))
	if err != nil {
		t.Fatalf("decode id %q: %v", id, err)
	}
	if len(decoded) != 16 {
		t.Fatalf("decoded %d bytes, want 16", len(decoded))
	}
	return decoded
}

func TestNewIDIsLowercaseBase32UUID(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(id) != 26 || strings.Contains(id, "=") {
		t.Fatalf("id = %q, want 26 unpadded characters", id)
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}

	decoded := decodeID(t, id)
	if version := decoded[6] >> 4; version != 4 {
		t.Fatalf("version = %d, want 4", version)
	}
	if variant := decoded[8] & 0xC0; variant != 0x80 {
		t.Fatalf("variant = 0x%X, want 0x80", variant)
	}
}

func TestNewIDDoesNotRepeat(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
