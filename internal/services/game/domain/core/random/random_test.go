package random

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 50; i++ {
		if x, y := a.D(20), b.D(20); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestSeededBounds(t *testing.T) {
	r := NewSeeded(7)
	for i := 0; i < 200; i++ {
		if v := r.D(6); v < 1 || v > 6 {
			t.Fatalf("D(6) = %d, out of range", v)
		}
		if v := r.Range(3, 5); v < 3 || v > 5 {
			t.Fatalf("Range(3,5) = %d, out of range", v)
		}
		if v := r.Range(5, 3); v < 3 || v > 5 {
			t.Fatalf("Range(5,3) = %d, out of range", v)
		}
		if v := r.Random(); v < 0 || v >= 1 {
			t.Fatalf("Random() = %f, out of range", v)
		}
	}
	if v := r.D(0); v != 1 {
		t.Fatalf("D(0) = %d, want 1", v)
	}
}

func TestShuffleKeepsInputAndIsDeterministic(t *testing.T) {
	input := []string{"a", "b", "c", "d", "e", "f"}
	first := Shuffle[string](NewSeeded(9), input)
	second := Shuffle[string](NewSeeded(9), input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("shuffle not deterministic: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(input, []string{"a", "b", "c", "d", "e", "f"}) {
		t.Fatalf("input mutated: %v", input)
	}
	if len(first) != len(input) {
		t.Fatalf("shuffle length = %d", len(first))
	}
}

func TestForCommandSeparatesStreams(t *testing.T) {
	a := ForCommand(1, 1).D(1000000)
	b := ForCommand(1, 2).D(1000000)
	if a == b {
		t.Fatalf("expected different streams for different sequences")
	}
	if ForCommand(1, 3).D(1000) != ForCommand(1, 3).D(1000) {
		t.Fatal("expected same stream for same sequence")
	}
}

func TestScriptedSequenceWraps(t *testing.T) {
	s := NewScripted([]int{1, 6, 8}, false, 1, NewSeeded(1))
	got := []int{s.D(6), s.D(6), s.D(6), s.D(6)}
	want := []int{6, 2, 1, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("D sequence = %v, want %v", got, want)
	}
	if s.Consumed() != 4 {
		t.Fatalf("consumed = %d, want 4", s.Consumed())
	}
}

func TestScriptedFixed(t *testing.T) {
	s := NewScripted([]int{3}, true, 0, NewSeeded(1))
	for i := 0; i < 3; i++ {
		if v := s.D(6); v != 3 {
			t.Fatalf("D(6) = %d, want 3", v)
		}
	}
	if v := s.Range(10, 12); v != 12 {
		t.Fatalf("Range(10,12) = %d, want 12", v)
	}
}

func TestScriptedEmptyFallsBack(t *testing.T) {
	s := NewScripted(nil, false, 0, NewSeeded(5))
	if got, want := s.D(20), NewSeeded(5).D(20); got != want {
		t.Fatalf("fallback D = %d, want %d", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ value, max, want int }{
		{value: 3, max: 6, want: 3},
		{value: 7, max: 6, want: 1},
		{value: 12, max: 6, want: 6},
		{value: 0, max: 6, want: 1},
		{value: -4, max: 6, want: 1},
		{value: 5, max: 0, want: 1},
	}
	for _, tt := range tests {
		if got := Normalize(tt.value, tt.max); got != tt.want {
			t.Fatalf("Normalize(%d,%d) = %d, want %d", tt.value, tt.max, got, tt.want)
		}
	}
}

func TestResolveSeedDefaultsToServerSeed(t *testing.T) {
	seed, source, err := ResolveSeed(nil, true, func() (int64, error) {
		return 123, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 123 {
		t.Fatalf("seed = %d, want 123", seed)
	}
	if source != SeedSourceServer {
		t.Fatalf("seed source = %q, want %q", source, SeedSourceServer)
	}
}

func TestResolveSeedUsesClientSeedWhenAllowed(t *testing.T) {
	seedValue := uint64(77)
	seed, source, err := ResolveSeed(&seedValue, true, func() (int64, error) {
		return 123, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != int64(seedValue) || source != SeedSourceClient {
		t.Fatalf("seed = %d (%s), want %d (client)", seed, source, seedValue)
	}
}

func TestResolveSeedIgnoresClientSeedWhenDisallowed(t *testing.T) {
	seedValue := uint64(77)
	seed, source, err := ResolveSeed(&seedValue, false, func() (int64, error) {
		return 555, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 555 || source != SeedSourceServer {
		t.Fatalf("seed = %d (%s), want 555 (server)", seed, source)
	}
}

func TestResolveSeedRejectsOutOfRangeSeed(t *testing.T) {
	seedValue := maxSeedInt64 + 1
	_, _, err := ResolveSeed(&seedValue, true, func() (int64, error) {
		return 123, nil
	})
	if !errors.Is(err, ErrSeedOutOfRange()) {
		t.Fatalf("ResolveSeed error = %v, want %v", err, ErrSeedOutOfRange())
	}
}

func TestSeededRangeWideBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
	}{
		{name: "zero to max", min: 0, max: math.MaxInt},
		{name: "min to zero", min: math.MinInt, max: 0},
		{name: "full range", min: math.MinInt, max: math.MaxInt},
		{name: "reversed", min: math.MaxInt, max: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.min, tt.max
			if hi < lo {
				lo, hi = hi, lo
			}
			a, b := NewSeeded(1), NewSeeded(1)
			for i := 0; i < 50; i++ {
				v := a.Range(tt.min, tt.max)
				if v < lo || v > hi {
					t.Fatalf("Range(%d, %d) = %d, out of range", tt.min, tt.max, v)
				}
				if w := b.Range(tt.min, tt.max); w != v {
					t.Fatalf("draw %d: %d != %d", i, v, w)
				}
			}
		})
	}
}

func TestSeededRangeSingleValue(t *testing.T) {
	r := NewSeeded(3)
	for _, v := range []int{math.MinInt, 0, math.MaxInt} {
		if got := r.Range(v, v); got != v {
			t.Fatalf("Range(%d, %d) = %d", v, v, got)
		}
	}
}
