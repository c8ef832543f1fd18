package integrity

import (
	"errors"
	"strings"
	"testing"
)

func testRing(t *testing.T, active string) *Keyring {
	t.Helper()
	ring, err := NewKeyring(map[string][]byte{"v1": []byte("first"), "v2": []byte("second")}, active)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return ring
}

func TestNewKeyringRejects(t *testing.T) {
	tests := []struct {
		name   string
		keys   map[string][]byte
		active string
	}{
		{name: "no keys", active: "v1"},
		{name: "blank active", keys: map[string][]byte{"v1": []byte("s")}, active: "  "},
		{name: "unknown active", keys: map[string][]byte{"v1": []byte("s")}, active: "v2"},
		{name: "empty secret", keys: map[string][]byte{"v1": nil}, active: "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKeyring(tt.keys, tt.active); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewKeyringCopiesSecrets(t *testing.T) {
	secret := []byte("first")
	ring, err := NewKeyring(map[string][]byte{"v1": secret}, "v1")
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	sig, _, err := ring.Sign("m1", "hash")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	secret[0] = 'X'
	if err := ring.Verify("m1", "hash", sig, "v1"); err != nil {
		t.Fatalf("caller mutation changed the ring: %v", err)
	}
}

func TestKeyringRotation(t *testing.T) {
	old := testRing(t, "v1")
	sig, keyID, err := old.Sign("m1", "hash")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if keyID != "v1" {
		t.Fatalf("key id = %q, want v1", keyID)
	}

	rotated := testRing(t, "v2")
	if err := rotated.Verify("m1", "hash", sig, keyID); err != nil {
		t.Fatalf("rotated ring rejected old signature: %v", err)
	}
	newSig, newID, err := rotated.Sign("m1", "hash")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if newID != "v2" || newSig == sig {
		t.Fatalf("rotated signature = %s/%s, want a fresh v2 signature", newID, newSig)
	}
	if got := strings.Join(rotated.KeyIDs(), ","); got != "v1,v2" {
		t.Fatalf("KeyIDs = %s", got)
	}
}

func TestKeyringVerifyFailures(t *testing.T) {
	ring := testRing(t, "v1")
	sig, _, err := ring.Sign("m1", "hash")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name                     string
		matchID, chain, sig, key string
		want                     error
	}{
		{name: "blank key id", matchID: "m1", chain: "hash", sig: sig},
		{name: "unknown key id", matchID: "m1", chain: "hash", sig: sig, key: "v9", want: ErrUnknownKey},
		{name: "other key", matchID: "m1", chain: "hash", sig: sig, key: "v2", want: ErrSignatureMismatch},
		{name: "other match", matchID: "m2", chain: "hash", sig: sig, key: "v1", want: ErrSignatureMismatch},
		{name: "edited chain", matchID: "m1", chain: "hash2", sig: sig, key: "v1", want: ErrSignatureMismatch},
		{name: "blank match", chain: "hash", sig: sig, key: "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ring.Verify(tt.matchID, tt.chain, tt.sig, tt.key)
			if err == nil {
				t.Fatal("expected verification error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNilKeyring(t *testing.T) {
	var ring *Keyring
	if ring.ActiveKeyID() != "" || ring.KeyIDs() != nil {
		t.Fatal("nil ring should report no keys")
	}
	if _, _, err := ring.Sign("m1", "x"); err == nil {
		t.Fatal("expected sign error")
	}
	if err := ring.Verify("m1", "x", "sig", "v1"); err == nil {
		t.Fatal("expected verify error")
	}
}
