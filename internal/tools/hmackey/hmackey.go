// Package hmackey generates journal signing keys as env assignments.
package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/tabletop.run/internal/platform/config"
)

// Config holds configuration for HMAC key generation.
type Config struct {
	Bytes int
	KeyID string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1"}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes")
	fs.StringVar(&cfg.KeyID, "key-id", cfg.KeyID, "id the key is stored under")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes the env lines to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" || strings.ContainsAny(keyID, ",=") {
		return fmt.Errorf("invalid key id %q", cfg.KeyID)
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	_, err := fmt.Fprintf(out, "%sJOURNAL_HMAC_KEY_ID=%s\n%sJOURNAL_HMAC_KEY=%s\n",
		config.EnvPrefix, keyID, config.EnvPrefix, hex.EncodeToString(buf))
	return err
}
