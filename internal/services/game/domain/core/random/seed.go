package random

import (
	"errors"
	"math"
)

// SeedSource records who picked a match seed.
type SeedSource string

const (
	// SeedSourceServer means the seed came from the server generator.
	SeedSourceServer SeedSource = "server"
	// SeedSourceClient means the caller supplied the seed (replays, tests).
	SeedSourceClient SeedSource = "client"
)

const maxSeedInt64 = uint64(math.MaxInt64)

var errSeedOutOfRange = errors.New("seed exceeds int64 range")

// ErrSeedOutOfRange reports a client seed that does not fit in an int64.
func ErrSeedOutOfRange() error {
	return errSeedOutOfRange
}

// ResolveSeed picks the seed for a new match. A requested seed is used when
// allowed; otherwise generate supplies one.
func ResolveSeed(requested *uint64, allowRequested bool, generate func() (int64, error)) (int64, SeedSource, error) {
	if requested != nil && allowRequested {
		if *requested > maxSeedInt64 {
			return 0, "", errSeedOutOfRange
		}
		return int64(*requested), SeedSourceClient, nil
	}
	if generate == nil {
		return 0, "", errors.New("seed generator is required")
	}
	seed, err := generate()
	if err != nil {
		return 0, "", err
	}
	return seed, SeedSourceServer, nil
}
