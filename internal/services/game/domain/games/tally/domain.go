package tally

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/random"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/engine"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/dice"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/effect"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/mulligan"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/resource"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/target"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/zone"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/responsewindow"
)

// Domain is the tally game domain.
type Domain struct {
	rules *Rules
}

var _ engine.Domain[Core] = (*Domain)(nil)

// NewDomain builds the domain around rules.
func NewDomain(rules *Rules) *Domain {
	return &Domain{rules: rules}
}

// Validate implements engine.Domain.
func (d *Domain) Validate(state match.State[Core], cmd command.Command) error {
	core := state.Core
	if core.Winner != "" {
		return apperrors.WithMetadata(CodeGameOver, "the game is over", map[string]string{"WinnerID": core.Winner})
	}
	p, ok := core.Players[cmd.PlayerID]
	if !ok {
		return fmt.Errorf("player %q is not seated", cmd.PlayerID)
	}
	if cmd.Type == CommandPlay && responsewindow.ResponderID(state.Sys) == cmd.PlayerID {
		return d.validatePlay(core, cmd, true)
	}
	if cmd.PlayerID != core.Current() {
		return apperrors.WithMetadata(CodeNotYourTurn, "it is not your turn", map[string]string{"PlayerID": core.Current()})
	}

	switch cmd.Type {
	case CommandDraw:
		if len(core.Deck) == 0 && len(core.Discard) == 0 {
			return apperrors.New(CodeDeckEmpty, "no cards left to draw")
		}
	case CommandPlay:
		return d.validatePlay(core, cmd, false)
	case CommandRoll:
		if !p.Pool.CanAfford(rollCost).OK {
			return apperrors.New(CodeNoRollsLeft, "no bonus rolls left this turn")
		}
	case CommandMulligan:
		if core.Round != 1 || p.Mulligans > 0 {
			return apperrors.New(CodeMulliganRefused, "mulligans are only allowed once, in the first round")
		}
	case CommandEndTurn:
	default:
		return fmt.Errorf("unsupported command %s", cmd.Type)
	}
	return nil
}

func (d *Domain) validatePlay(core Core, cmd command.Command, responding bool) error {
	var payload PlayPayload
	if err := cmd.Decode(&payload); err != nil {
		return apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "decode play payload", err)
	}
	card, ok := zone.Find(core.Players[cmd.PlayerID].Hand, payload.CardID)
	if !ok {
		return apperrors.WithMetadata(CodeCardNotInHand, "card is not in hand", map[string]string{"CardID": payload.CardID})
	}
	if payload.TargetID != "" && !slices.Contains(core.Opponents(cmd.PlayerID), payload.TargetID) {
		return fmt.Errorf("target %q is not an opponent", payload.TargetID)
	}
	targets, err := d.targets(core, cmd.PlayerID, payload.TargetID)
	if err != nil {
		return err
	}
	id, err := d.rules.playable(core, cmd.PlayerID, card, responding, targets)
	if err != nil {
		return err
	}
	if id == "" {
		return apperrors.WithMetadata(CodeCardBlocked, "card cannot be played now", map[string]string{"CardID": card.ID})
	}
	return nil
}

func (d *Domain) targets(core Core, playerID, chosen string) ([]string, error) {
	return d.rules.targets.Resolve(target.Ref{Kind: TargetChosen}, targetContext(core, playerID, chosen))
}

func targetContext(core Core, playerID, chosen string) target.Context {
	return target.Context{SelfID: playerID, OwnerID: playerID, PlayerIDs: core.Order, Data: chosen}
}

// Execute implements engine.Domain.
func (d *Domain) Execute(state match.State[Core], cmd command.Command, r random.Fn) (Core, []event.Event) {
	core := state.Core
	var events []event.Event
	switch cmd.Type {
	case CommandDraw:
		core, events = d.draw(core, cmd, r)
	case CommandPlay:
		core, events = d.play(core, cmd, responsewindow.ResponderID(state.Sys) == cmd.PlayerID)
	case CommandRoll:
		core, events = d.roll(core, cmd, r)
	case CommandEndTurn:
		core, events = d.endTurn(core, cmd)
	case CommandMulligan:
		core, events = d.mulligan(core, cmd, r)
	}
	return finish(core, cmd, events)
}

// finish announces a winner the first time one exists.
func finish(core Core, cmd command.Command, events []event.Event) (Core, []event.Event) {
	if core.Winner != "" {
		return core, events
	}
	core = checkWinner(core)
	if core.Winner == "" {
		return core, events
	}
	return core, append(events, command.MustEvent(cmd, EventGameOver, gameOverPayload{
		WinnerID: core.Winner,
		Points:   core.Points(core.Winner),
	}))
}

func (d *Domain) draw(core Core, cmd command.Command, r random.Fn) (Core, []event.Event) {
	core = core.clone()
	reshuffled := false
	if len(core.Deck) == 0 {
		core.Deck, core.Discard = zone.ReshuffleDiscard(core.Deck, core.Discard, r)
		reshuffled = true
	}
	p := core.Players[cmd.PlayerID]
	core.Deck, p.Hand = zone.Draw(core.Deck, p.Hand, 1)
	core.Players[cmd.PlayerID] = p
	drawn := p.Hand[len(p.Hand)-1]
	return core, []event.Event{command.MustEvent(cmd, EventCardDrawn, cardDrawnPayload{
		PlayerID:   cmd.PlayerID,
		CardID:     drawn.ID,
		Reshuffled: reshuffled,
	})}
}

func (d *Domain) play(core Core, cmd command.Command, responding bool) (Core, []event.Event) {
	var payload PlayPayload
	_ = cmd.Decode(&payload)

	player := core.Players[cmd.PlayerID]
	card, _ := zone.Find(player.Hand, payload.CardID)
	targets, _ := d.targets(core, cmd.PlayerID, payload.TargetID)
	abilityID, _ := d.rules.playable(core, cmd.PlayerID, card, responding, targets)

	core = core.clone()
	p := core.Players[cmd.PlayerID]
	moved := zone.Move(p.Hand, core.Discard, card.ID)
	p.Hand, core.Discard = moved.From, moved.To
	core.Players[cmd.PlayerID] = p

	played := cardPlayedPayload{PlayerID: cmd.PlayerID, CardID: card.ID, Kind: card.Kind}
	if card.Kind == KindHex && len(targets) > 0 {
		played.TargetID = targets[0]
	}
	events := []event.Event{command.MustEvent(cmd, EventCardPlayed, played)}

	effects := slices.Clone(d.rules.effectsFor(abilityID))
	for i := range effects {
		switch effects[i].Type {
		case effect.Heal:
			effects[i].Amount = cardValue(player, card)
		case effect.Damage:
			effects[i].Amount = card.Value
		case effect.Custom:
			effects[i].Params = map[string]any{"cardId": card.ID}
		}
	}
	res, err := d.rules.effects(cmd).ExecuteAll(effects, effect.Context[Core]{
		State:     core,
		Targets:   targetContext(core, cmd.PlayerID, payload.TargetID),
		Resolver:  d.rules.targets,
		Timestamp: cmd.Timestamp,
	})
	if err != nil {
		return core, events
	}
	return res.State, append(events, res.Events...)
}

func (d *Domain) roll(core Core, cmd command.Command, r random.Fn) (Core, []event.Event) {
	core = core.clone()
	p := core.Players[cmd.PlayerID]
	p.Pool = p.Pool.Pay(rollCost, nil)
	core.Players[cmd.PlayerID] = p

	rolled := make([]dice.Die, 0, BonusDice)
	values := make([]int, 0, BonusDice)
	for i := 1; i <= BonusDice; i++ {
		die := dice.New(BonusDie, i, r)
		rolled = append(rolled, die)
		values = append(values, die.Value)
	}
	points, _ := bonusPoints(dice.Compute(rolled))
	events := []event.Event{command.MustEvent(cmd, EventBonusRolled, bonusPayload{PlayerID: cmd.PlayerID, Values: values, Points: points})}
	if points > 0 {
		var gained []event.Event
		core, gained = actions{cmd: cmd}.ApplyHeal(core, cmd.PlayerID, points)
		events = append(events, gained...)
	}
	return core, events
}

func (d *Domain) endTurn(core Core, cmd command.Command) (Core, []event.Event) {
	core = core.clone()
	p := core.Players[cmd.PlayerID]
	ticked := p.Tags.TickDurations()
	p.Tags = ticked.Updated
	core.Players[cmd.PlayerID] = p

	var events []event.Event
	for _, status := range ticked.Expired {
		events = append(events, command.MustEvent(cmd, EventStatusExpired, statusPayload{PlayerID: cmd.PlayerID, Status: status}))
	}

	core.Turn = (core.Turn + 1) % len(core.Order)
	if core.Turn == 0 {
		core.Round++
	}
	nextID := core.Current()
	next := core.Players[nextID]
	next.Pool = next.Pool.Set(ResourceRolls, 1, resource.Bounds{}).Pool
	core.Players[nextID] = next

	return core, append(events, command.MustEvent(cmd, EventTurnEnded, turnPayload{
		PlayerID: cmd.PlayerID,
		NextID:   nextID,
		Round:    core.Round,
	}))
}

func (d *Domain) mulligan(core Core, cmd command.Command, r random.Fn) (Core, []event.Event) {
	core = core.clone()
	p := core.Players[cmd.PlayerID]
	res := mulligan.Perform(p.Hand, core.Deck, len(p.Hand), r)
	p.Hand, core.Deck = res.Hand, res.Deck
	p.Mulligans += res.Count
	core.Players[cmd.PlayerID] = p
	return core, []event.Event{command.MustEvent(cmd, EventHandMulliganed, mulliganPayload{PlayerID: cmd.PlayerID, HandSize: len(p.Hand)})}
}
