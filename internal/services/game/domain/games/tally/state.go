package tally

import (
	"fmt"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/resource"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/tag"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/zone"
)

// CardKind selects what a card does when played.
type CardKind string

const (
	KindNumber CardKind = "number"
	KindHex    CardKind = "hex"
	KindShield CardKind = "shield"
	KindWild   CardKind = "wild"
)

// Card is one card.
type Card struct {
	ID    string   `json:"id"`
	Kind  CardKind `json:"kind"`
	Value int      `json:"value"`
}

// CardID implements zone.Card.
func (c Card) CardID() string { return c.ID }

const (
	// ResourcePoints is the score.
	ResourcePoints = "points"
	// ResourceRolls counts bonus rolls left this turn.
	ResourceRolls = "rolls"
)

const (
	StatusHexed    = "status.hexed"
	StatusShielded = "status.shielded"
	StatusBlessed  = "status.blessed"
)

// Player is one seat.
type Player struct {
	Hand      []Card        `json:"hand"`
	Pool      resource.Pool `json:"pool"`
	Tags      tag.Container `json:"tags"`
	Mulligans int           `json:"mulligans"`
}

// Core is the tally game state.
type Core struct {
	Order   []string          `json:"order"`
	Turn    int               `json:"turn"`
	Round   int               `json:"round"`
	Players map[string]Player `json:"players"`
	Deck    []Card            `json:"deck"`
	Discard []Card            `json:"discard"`
	Target  int               `json:"target"`
	Winner  string            `json:"winner"`
}

// Current returns the id of the player whose turn it is.
func (c Core) Current() string {
	if len(c.Order) == 0 {
		return ""
	}
	return c.Order[c.Turn%len(c.Order)]
}

// Points returns a player's score.
func (c Core) Points(playerID string) int {
	return c.Players[playerID].Pool.Get(ResourcePoints)
}

// Opponents returns every other player in seat order.
func (c Core) Opponents(playerID string) []string {
	var out []string
	for _, id := range c.Order {
		if id != playerID {
			out = append(out, id)
		}
	}
	return out
}

// clone copies everything a reducer may change.
func (c Core) clone() Core {
	out := c
	out.Order = append([]string(nil), c.Order...)
	out.Deck = cloneCards(c.Deck)
	out.Discard = cloneCards(c.Discard)
	out.Players = make(map[string]Player, len(c.Players))
	for id, p := range c.Players {
		p.Hand = cloneCards(p.Hand)
		pool := make(resource.Pool, len(p.Pool))
		for k, v := range p.Pool {
			pool[k] = v
		}
		p.Pool = pool
		tags := make(tag.Container, len(p.Tags))
		for k, v := range p.Tags {
			tags[k] = v
		}
		p.Tags = tags
		out.Players[id] = p
	}
	return out
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Options configures a new game.
type Options struct {
	HandSize int    `json:"handSize,omitempty"`
	Target   int    `json:"target,omitempty"`
	Deck     []Card `json:"deck,omitempty"`
}

const (
	DefaultHandSize = 3
	DefaultTarget   = 25
)

// DefaultDeck returns the standard 24-card deck in a fixed order.
func DefaultDeck() []Card {
	var deck []Card
	for copyN := 1; copyN <= 2; copyN++ {
		for v := 1; v <= 9; v++ {
			deck = append(deck, Card{ID: fmt.Sprintf("n%d-%d", v, copyN), Kind: KindNumber, Value: v})
		}
		deck = append(deck,
			Card{ID: fmt.Sprintf("hex-%d", copyN), Kind: KindHex, Value: 2},
			Card{ID: fmt.Sprintf("shield-%d", copyN), Kind: KindShield},
			Card{ID: fmt.Sprintf("wild-%d", copyN), Kind: KindWild},
		)
	}
	return deck
}

// Setup shuffles the deck with r and deals each player a hand.
func Setup(playerIDs []string, r random.Fn, opts Options) Core {
	if opts.HandSize <= 0 {
		opts.HandSize = DefaultHandSize
	}
	if opts.Target <= 0 {
		opts.Target = DefaultTarget
	}
	deck := opts.Deck
	if deck == nil {
		deck = DefaultDeck()
	}
	core := Core{
		Order:   append([]string(nil), playerIDs...),
		Round:   1,
		Players: make(map[string]Player, len(playerIDs)),
		Deck:    zone.Shuffle(deck, r),
		Discard: []Card{},
		Target:  opts.Target,
	}
	for _, id := range playerIDs {
		var hand []Card
		core.Deck, hand = zone.Draw(core.Deck, []Card{}, opts.HandSize)
		core.Players[id] = Player{
			Hand: hand,
			Pool: resource.Pool{ResourcePoints: 0, ResourceRolls: 1},
			Tags: tag.Container{},
		}
	}
	return core
}
