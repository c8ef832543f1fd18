// Package dice rolls symbol dice and scores the results.
package dice

import (
	"fmt"
	"sort"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
)

// Face is one side of a die.
type Face struct {
	Value   int      `json:"value" yaml:"value"`
	Symbols []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// Definition describes a kind of die.
type Definition struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Sides int    `json:"sides" yaml:"sides"`
	Faces []Face `json:"faces,omitempty" yaml:"faces,omitempty"`
}

// Validate checks that every face value lies within the die's sides and
// appears once.
func (d Definition) Validate() error {
	if d.Sides < 1 {
		return apperrors.WithMetadata(apperrors.CodeDiceInvalidSpec, "dice must have at least one side", map[string]string{"Dice": d.ID})
	}
	seen := map[int]bool{}
	for _, f := range d.Faces {
		if f.Value < 1 || f.Value > d.Sides || seen[f.Value] {
			return apperrors.WithMetadata(apperrors.CodeDiceInvalidSpec, fmt.Sprintf("face value %d is invalid", f.Value), map[string]string{"Dice": d.ID})
		}
		seen[f.Value] = true
	}
	return nil
}

// Face returns the face showing value.
func (d Definition) Face(value int) (Face, bool) {
	for _, f := range d.Faces {
		if f.Value == value {
			return f, true
		}
	}
	return Face{}, false
}

// Die is one die in play.
type Die struct {
	ID           int      `json:"id"`
	DefinitionID string   `json:"definitionId"`
	Value        int      `json:"value"`
	Symbols      []string `json:"symbols,omitempty"`
	Kept         bool     `json:"kept,omitempty"`
}

// Symbol returns the primary symbol, if any.
func (d Die) Symbol() string {
	if len(d.Symbols) == 0 {
		return ""
	}
	return d.Symbols[0]
}

func (d Die) show(def Definition, value int) Die {
	d.Value = value
	d.Symbols = nil
	if face, ok := def.Face(value); ok && len(face.Symbols) > 0 {
		d.Symbols = append([]string(nil), face.Symbols...)
	}
	return d
}

// New creates a rolled die.
func New(def Definition, id int, r random.Fn) Die {
	return Die{ID: id, DefinitionID: def.ID}.show(def, r.D(def.Sides))
}

// NewShowing creates a die showing value.
func NewShowing(def Definition, id, value int) Die {
	return Die{ID: id, DefinitionID: def.ID}.show(def, value)
}

// Stats summarizes a set of dice.
type Stats struct {
	Total         int            `json:"total"`
	SymbolCounts  map[string]int `json:"symbolCounts"`
	ValueCounts   map[int]int    `json:"valueCounts"`
	SmallStraight bool           `json:"smallStraight"`
	LargeStraight bool           `json:"largeStraight"`
	MaxOfAKind    int            `json:"maxOfAKind"`
}

// RollResult is the dice after a roll and their stats.
type RollResult struct {
	Dice  []Die
	Stats Stats
}

// Roll rerolls every die not kept.
func Roll(dice []Die, def Definition, r random.Fn) RollResult {
	out := make([]Die, len(dice))
	for i, d := range dice {
		if d.Kept {
			out[i] = d
			continue
		}
		out[i] = d.show(def, r.D(def.Sides))
	}
	return RollResult{Dice: out, Stats: Compute(out)}
}

// SetKept marks the die with id as kept or not.
func SetKept(dice []Die, id int, kept bool) ([]Die, error) {
	out := append([]Die(nil), dice...)
	for i := range out {
		if out[i].ID == id {
			out[i].Kept = kept
			return out, nil
		}
	}
	return nil, apperrors.WithMetadata(apperrors.CodeDiceMissing, "die is not in play", map[string]string{"Die": fmt.Sprint(id)})
}

// Compute scores dice.
func Compute(dice []Die) Stats {
	s := Stats{SymbolCounts: map[string]int{}, ValueCounts: map[int]int{}}
	for _, d := range dice {
		s.Total += d.Value
		s.ValueCounts[d.Value]++
		for _, sym := range d.Symbols {
			s.SymbolCounts[sym]++
		}
	}
	values := make([]int, 0, len(s.ValueCounts))
	for v, n := range s.ValueCounts {
		values = append(values, v)
		s.MaxOfAKind = max(s.MaxOfAKind, n)
	}
	sort.Ints(values)
	s.SmallStraight = straight(values, 4)
	s.LargeStraight = straight(values, 5)
	return s
}

func straight(sorted []int, length int) bool {
	run := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run >= length {
			return true
		}
	}
	return length <= 1 && len(sorted) > 0
}

// SymbolsTrigger reports whether counts meets every required symbol count.
func SymbolsTrigger(counts, required map[string]int) bool {
	for sym, n := range required {
		if counts[sym] < n {
			return false
		}
	}
	return true
}

// TotalTrigger reports whether total lies within the optional bounds.
func TotalTrigger(total int, min, max *int) bool {
	if min != nil && total < *min {
		return false
	}
	if max != nil && total > *max {
		return false
	}
	return true
}
