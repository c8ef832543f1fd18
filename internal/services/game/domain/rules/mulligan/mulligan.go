// Package mulligan redraws opening hands.
package mulligan

import (
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
)

// Result is the hand and deck after mulligans. Count is the number taken.
type Result[T any] struct {
	Hand  []T
	Deck  []T
	Count int
}

// Perform shuffles hand into deck and draws up to n new cards.
func Perform[T any](hand, deck []T, n int, r random.Fn) Result[T] {
	combined := make([]T, 0, len(deck)+len(hand))
	combined = append(combined, deck...)
	combined = append(combined, hand...)
	shuffled := random.Shuffle(r, combined)
	n = max(0, min(n, len(shuffled)))
	return Result[T]{Hand: shuffled[:n:n], Deck: shuffled[n:], Count: 1}
}

// Auto mulligans up to maxTimes while redraw reports the hand should go back.
func Auto[T any](hand, deck []T, n int, r random.Fn, maxTimes int, redraw func(hand []T) bool) Result[T] {
	res := Result[T]{Hand: hand, Deck: deck}
	for i := 0; i < maxTimes && redraw(res.Hand); i++ {
		next := Perform(res.Hand, res.Deck, n, r)
		res.Hand, res.Deck = next.Hand, next.Deck
		res.Count++
	}
	return res
}
