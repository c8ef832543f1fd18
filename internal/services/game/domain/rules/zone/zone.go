// Package zone moves cards between ordered zones such as deck, hand, and
// discard. Index 0 is the top of a zone. Results never share backing arrays
// with their inputs.
package zone

import (
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
)

// Card is anything with a stable id.
type Card interface {
	CardID() string
}

// Find returns the card with id.
func Find[T Card](cards []T, id string) (T, bool) {
	for _, c := range cards {
		if c.CardID() == id {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// Remove takes the first card with id out of cards.
func Remove[T Card](cards []T, id string) (card T, remaining []T, found bool) {
	for i, c := range cards {
		if c.CardID() == id {
			remaining = make([]T, 0, len(cards)-1)
			remaining = append(remaining, cards[:i]...)
			remaining = append(remaining, cards[i+1:]...)
			return c, remaining, true
		}
	}
	return card, clone(cards), false
}

// DrawTop splits off up to n cards from the top.
func DrawTop[T any](cards []T, n int) (drawn, remaining []T) {
	n = bound(n, len(cards))
	return clone(cards[:n]), clone(cards[n:])
}

// Peek returns up to n cards from the top without removing them.
func Peek[T any](cards []T, n int) []T {
	return clone(cards[:bound(n, len(cards))])
}

// MoveResult is the outcome of Move. From and To are unchanged copies when
// the card was not found.
type MoveResult[T any] struct {
	Found bool
	Card  T
	From  []T
	To    []T
}

// Move moves the card with id from the from zone to the bottom of to.
func Move[T Card](from, to []T, id string) MoveResult[T] {
	card, remaining, ok := Remove(from, id)
	if !ok {
		return MoveResult[T]{From: clone(from), To: clone(to)}
	}
	dest := make([]T, 0, len(to)+1)
	dest = append(dest, to...)
	return MoveResult[T]{Found: true, Card: card, From: remaining, To: append(dest, card)}
}

// Draw moves up to n cards from the top of deck to the end of hand.
func Draw[T any](deck, hand []T, n int) (newDeck, newHand []T) {
	drawn, rest := DrawTop(deck, n)
	newHand = make([]T, 0, len(hand)+len(drawn))
	newHand = append(newHand, hand...)
	return rest, append(newHand, drawn...)
}

// Shuffle returns a shuffled copy of cards.
func Shuffle[T any](cards []T, r random.Fn) []T {
	return random.Shuffle(r, cards)
}

// ReshuffleDiscard shuffles discard under deck and empties discard.
func ReshuffleDiscard[T any](deck, discard []T, r random.Fn) (newDeck, newDiscard []T) {
	combined := make([]T, 0, len(deck)+len(discard))
	combined = append(combined, deck...)
	combined = append(combined, discard...)
	return random.Shuffle(r, combined), []T{}
}

func bound(n, size int) int {
	if n < 0 {
		return 0
	}
	return min(n, size)
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
