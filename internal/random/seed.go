// Package random generates seeds for new matches.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// NewSeed returns a non-negative seed read from crypto/rand.
func NewSeed() (int64, error) {
	return SeedFrom(crand.Reader)
}

// SeedFrom reads eight bytes from r and folds them into a non-negative
// seed, so generated seeds survive a round trip through uint64 storage.
func SeedFrom(r io.Reader) (int64, error) {
	var raw uint64
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return 0, fmt.Errorf("read match seed: %w", err)
	}
	return int64(raw &^ (1 << 63)), nil
}
