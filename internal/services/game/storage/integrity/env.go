package integrity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tabletop.run/internal/platform/config"
)

const defaultKeyID = "v1"

// ErrNoKeys indicates that no journal signing key is configured.
var ErrNoKeys = errors.New("journal hmac key is not configured")

// Config holds journal signing keys read from the environment.
//
// Keys is a comma-separated list of id=secret pairs. Key is a single secret
// used under KeyID when Keys is empty.
type Config struct {
	Keys  string `env:"JOURNAL_HMAC_KEYS"`
	Key   string `env:"JOURNAL_HMAC_KEY"`
	KeyID string `env:"JOURNAL_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the HMAC keyring from TABLETOP_RUN_JOURNAL_HMAC_*.
// It returns ErrNoKeys when nothing is configured.
func KeyringFromEnv() (*Keyring, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return cfg.Keyring()
}

// Keyring builds a keyring from the configuration.
func (c Config) Keyring() (*Keyring, error) {
	keyID := strings.TrimSpace(c.KeyID)
	if keyID == "" {
		keyID = defaultKeyID
	}

	keySpec := strings.TrimSpace(c.Keys)
	if keySpec == "" {
		raw := strings.TrimSpace(c.Key)
		if raw == "" {
			return nil, ErrNoKeys
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid journal hmac key entry %q", id)
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
