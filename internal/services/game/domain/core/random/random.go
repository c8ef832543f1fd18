// Package random defines the injected deterministic randomness contract.
//
// Engine and game code never read a global generator. Every random draw goes
// through a Fn supplied by the caller, so replaying the same commands with the
// same seed reproduces the same match bit for bit.
package random

import (
	"math"
	"math/rand"
)

// Fn is the deterministic pseudo-random source handed to domain code.
type Fn interface {
	// Random returns a value in [0, 1).
	Random() float64
	// D returns a die roll in [1, max]. A max below 1 yields 1.
	D(max int) int
	// Range returns a value in [min, max], swapping reversed bounds.
	Range(min, max int) int
}

// Seeded is a Fn backed by a seeded math/rand source.
type Seeded struct {
	rng  *rand.Rand
	seed int64
}

// NewSeeded returns a deterministic source for seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed this source was created with.
func (s *Seeded) Seed() int64 {
	return s.seed
}

// Random returns a value in [0, 1).
func (s *Seeded) Random() float64 {
	return s.rng.Float64()
}

// D returns a roll in [1, max].
func (s *Seeded) D(max int) int {
	if max < 1 {
		return 1
	}
	return s.rng.Intn(max) + 1
}

// Range returns a value in [min, max].
func (s *Seeded) Range(min, max int) int {
	if max < min {
		min, max = max, min
	}
	span := uint64(max) - uint64(min) + 1
	if span != 0 && span <= math.MaxInt64 && span <= uint64(math.MaxInt) {
		return min + s.rng.Intn(int(span))
	}
	return int(uint64(min) + s.wide(span))
}

// wide draws uniformly from [0, span) for spans an int cannot hold. A span of
// zero stands for the full 2^64 range.
func (s *Seeded) wide(span uint64) uint64 {
	if span == 0 {
		return s.rng.Uint64()
	}
	limit := math.MaxUint64 - math.MaxUint64%span
	for {
		if v := s.rng.Uint64(); v < limit {
			return v % span
		}
	}
}

// Shuffle returns a shuffled copy of items using a Fisher-Yates pass driven by r.
// The input slice is left untouched.
func Shuffle[T any](r Fn, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(r.Random() * float64(i+1))
		if j > i {
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ForCommand derives the source for the seq-th command of a match seeded with seed.
// Each command gets an independent stream so replaying a suffix of the journal
// does not depend on how many draws earlier commands made.
func ForCommand(seed int64, seq uint64) *Seeded {
	return NewSeeded(seed ^ int64(seq*0x9E3779B97F4A7C15))
}
