package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownKey is returned when a signature names a key the ring lacks.
	ErrUnknownKey = errors.New("unknown hmac key id")
	// ErrSignatureMismatch is returned when a chain hash was not signed by the
	// named key for this match.
	ErrSignatureMismatch = errors.New("journal signature mismatch")
)

// Keyring holds root secrets by id. Signing uses the active id; verification
// accepts any id so rotated journals stay readable.
type Keyring struct {
	roots  map[string][]byte
	active string
}

// NewKeyring copies keys and selects activeKeyID for signing.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	active := strings.TrimSpace(activeKeyID)
	if active == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	roots := make(map[string][]byte, len(keys))
	for id, secret := range keys {
		if len(secret) == 0 {
			return nil, fmt.Errorf("hmac key %q is empty", id)
		}
		roots[id] = append([]byte(nil), secret...)
	}
	if _, ok := roots[active]; !ok {
		return nil, fmt.Errorf("active hmac key id %q: %w", active, ErrUnknownKey)
	}
	return &Keyring{roots: roots, active: active}, nil
}

// ActiveKeyID returns the signing key id, or "" on a nil ring.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.active
}

// KeyIDs lists the configured ids in sorted order.
func (k *Keyring) KeyIDs() []string {
	if k == nil {
		return nil
	}
	ids := make([]string, 0, len(k.roots))
	for id := range k.roots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sign returns the signature of chainHash for matchID and the key id used.
func (k *Keyring) Sign(matchID, chainHash string) (signature string, keyID string, err error) {
	if k == nil {
		return "", "", fmt.Errorf("hmac keyring is not configured")
	}
	mac, err := k.mac(k.active, matchID, chainHash)
	if err != nil {
		return "", "", err
	}
	return mac, k.active, nil
}

// Verify checks signature against chainHash using keyID's secret.
func (k *Keyring) Verify(matchID, chainHash, signature, keyID string) error {
	if k == nil {
		return fmt.Errorf("hmac keyring is not configured")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("signature key id is required")
	}
	want, err := k.mac(keyID, matchID, chainHash)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// mac derives a per-match key from the root so a signature cannot be moved
// between matches.
func (k *Keyring) mac(keyID, matchID, chainHash string) (string, error) {
	root, ok := k.roots[keyID]
	if !ok {
		return "", fmt.Errorf("key %q: %w", keyID, ErrUnknownKey)
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return "", fmt.Errorf("match id is required")
	}
	derived, err := hkdf.Key(sha256.New, root, nil, "match:"+matchID, sha256.Size)
	if err != nil {
		return "", fmt.Errorf("derive match key: %w", err)
	}
	h := hmac.New(sha256.New, derived)
	_, _ = h.Write([]byte(chainHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}
