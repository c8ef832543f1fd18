package random

// sequenceMax is the virtual die size used when a scripted value feeds Random.
const sequenceMax = 1000000

// Scripted replays configured values instead of drawing from a generator.
// In fixed mode every draw returns the first value; otherwise draws walk the
// list from a starting offset and wrap. An empty list defers to the base Fn.
type Scripted struct {
	values   []int
	fixed    bool
	start    int
	consumed int
	base     Fn
}

// NewScripted builds a scripted source over base.
func NewScripted(values []int, fixed bool, start int, base Fn) *Scripted {
	copied := make([]int, len(values))
	copy(copied, values)
	return &Scripted{values: copied, fixed: fixed, start: start, base: base}
}

// Consumed reports how many scripted draws were taken.
func (s *Scripted) Consumed() int {
	return s.consumed
}

func (s *Scripted) next(max int) (int, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	if s.fixed {
		return Normalize(s.values[0], max), true
	}
	index := (s.start + s.consumed) % len(s.values)
	if index < 0 {
		index += len(s.values)
	}
	s.consumed++
	return Normalize(s.values[index], max), true
}

// Random returns (v-1)/1e6 for the next scripted value v.
func (s *Scripted) Random() float64 {
	if v, ok := s.next(sequenceMax); ok {
		return float64(v-1) / sequenceMax
	}
	return s.base.Random()
}

// D returns the next scripted value normalized into [1, max].
func (s *Scripted) D(max int) int {
	if v, ok := s.next(max); ok {
		return v
	}
	return s.base.D(max)
}

// Range returns the next scripted value mapped into [min, max].
func (s *Scripted) Range(min, max int) int {
	if max < min {
		min, max = max, min
	}
	if v, ok := s.next(max - min + 1); ok {
		return min + v - 1
	}
	return s.base.Range(min, max)
}

// Normalize folds value into [1, max]. Values above max wrap around and
// values below 1 clamp to 1.
func Normalize(value int, max int) int {
	if max <= 0 || value <= 0 {
		return 1
	}
	if value > max {
		return ((value - 1) % max) + 1
	}
	return value
}
