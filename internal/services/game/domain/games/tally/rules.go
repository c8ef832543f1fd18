package tally

import (
	"log"
	"math"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/ability"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/condition"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/dice"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/effect"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/expression"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/modifier"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/resource"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/tag"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/target"
)

// TagAttack marks abilities a shield blocks.
const TagAttack = "attack"

// TargetChosen resolves to the payload's targetId, or every opponent when
// none was given.
const TargetChosen target.Kind = "chosen"

// ActionWild asks the player how many points the wild card scores.
const ActionWild = "wild"

const (
	HexDuration    = 2
	ShieldDuration = 1
	BlessDuration  = 2
)

var (
	notResponding = &condition.Node{Type: condition.Compare, Op: condition.Eq, Left: condition.Var("responding"), Right: condition.Num(0)}
	luckySeven    = &condition.Node{Type: condition.And, Conditions: []condition.Node{
		*notResponding,
		{Type: condition.Compare, Op: condition.Eq, Left: condition.Var("value"), Right: condition.Num(7)},
	}}
)

// Abilities returns the card abilities, one per card kind.
func Abilities() []ability.Def {
	return []ability.Def{
		{
			ID:      abilityID(KindNumber),
			Name:    "Count",
			Trigger: notResponding,
			Effects: []effect.Effect{{Type: effect.Heal, Target: target.Ref{Kind: target.Self}}},
			Variants: []ability.Variant{{
				ID:      abilityID(KindNumber) + ".lucky",
				Trigger: luckySeven,
				Effects: []effect.Effect{
					{Type: effect.Heal, Target: target.Ref{Kind: target.Self}},
					{Type: effect.GrantStatus, Target: target.Ref{Kind: target.Self}, Status: StatusBlessed, Duration: tag.Int(BlessDuration)},
				},
				Priority: 1,
			}},
		},
		{
			ID:      abilityID(KindHex),
			Name:    "Hex",
			Trigger: notResponding,
			Tags:    []string{TagAttack},
			Effects: []effect.Effect{
				{Type: effect.Damage, Target: target.Ref{Kind: TargetChosen}},
				{Type: effect.GrantStatus, Target: target.Ref{Kind: TargetChosen}, Status: StatusHexed, Duration: tag.Int(HexDuration)},
			},
		},
		{
			ID:   abilityID(KindShield),
			Name: "Shield",
			Effects: []effect.Effect{
				{Type: effect.RemoveStatus, Target: target.Ref{Kind: target.Self}, Status: StatusHexed},
				{Type: effect.GrantStatus, Target: target.Ref{Kind: target.Self}, Status: StatusShielded, Duration: tag.Int(ShieldDuration)},
			},
		},
		{
			ID:      abilityID(KindWild),
			Name:    "Wild",
			Trigger: notResponding,
			Effects: []effect.Effect{{Type: effect.Custom, Target: target.Ref{Kind: target.Self}, ActionID: ActionWild}},
		},
	}
}

func abilityID(kind CardKind) string {
	return "card." + string(kind)
}

// Rules bundles the registries the tally domain plays through.
type Rules struct {
	abilities *ability.Registry
	targets   *target.Registry
}

// NewRules builds the tally rule registries. logger receives registry
// warnings and may be nil.
func NewRules(logger *log.Logger) *Rules {
	abilities := ability.NewRegistry(Namespace, logger)
	abilities.RegisterAll(Abilities()...)

	targets := target.NewRegistry()
	if err := targets.Register(TargetChosen, resolveChosen); err != nil {
		panic(err)
	}
	return &Rules{abilities: abilities, targets: targets}
}

func resolveChosen(ref target.Ref, ctx target.Context) ([]string, error) {
	if id, ok := ctx.Data.(string); ok && id != "" {
		return []string{id}, nil
	}
	return target.NewRegistry().Resolve(target.Ref{Kind: target.Opponent}, ctx)
}

// effects binds the built-in effect kinds to a command's actions.
func (r *Rules) effects(cmd command.Command) *effect.Registry[Core] {
	reg := effect.NewRegistry[Core]()
	effect.RegisterActions[Core](reg, actions{cmd: cmd})
	return reg
}

// effectsFor returns the effects of an ability or one of its variants.
func (r *Rules) effectsFor(id string) []effect.Effect {
	for _, def := range r.abilities.All() {
		if def.ID == id {
			return def.Effects
		}
		for _, v := range def.Variants {
			if v.ID == id {
				return v.Effects
			}
		}
	}
	return nil
}

// playable returns the ability id a card resolves to, or "" when the card
// cannot be played right now.
func (r *Rules) playable(core Core, playerID string, card Card, responding bool, targets []string) (string, error) {
	ctx := ability.Context{
		Phase:    "play",
		SourceID: card.ID,
		OwnerID:  playerID,
		Vars: condition.Context{
			"value":      card.Value,
			"responding": boolNum(responding),
		},
	}
	if responding {
		ctx.Phase = "respond"
	}
	if allShielded(core, targets) {
		ctx.BlockedTags = []string{TagAttack}
	}
	ids, err := r.abilities.Available([]string{abilityID(card.Kind)}, ctx)
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

func allShielded(core Core, ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !core.Players[id].Tags.Has(StatusShielded) {
			return false
		}
	}
	return true
}

func boolNum(b bool) int {
	if b {
		return 1
	}
	return 0
}

// cardValue applies the player's statuses to a number card's face value.
func cardValue(p Player, card Card) int {
	var stack modifier.Stack[Player]
	stack = stack.AddAll(
		modifier.Def[Player]{
			ID:     StatusHexed,
			Source: StatusHexed,
			Kind:   modifier.Compute,
			Compute: func(current float64, p Player) float64 {
				return current - float64(p.Tags.Stacks(StatusHexed))
			},
			Condition: func(p Player) bool { return p.Tags.Has(StatusHexed) },
		},
		modifier.Def[Player]{
			ID:        StatusBlessed,
			Source:    StatusBlessed,
			Kind:      modifier.Percent,
			Priority:  1,
			Value:     50,
			Condition: func(p Player) bool { return p.Tags.Has(StatusBlessed) },
		},
	)
	v := modifier.Value(float64(card.Value), stack, p)
	return max(0, int(math.Floor(v)))
}

// BonusDie is the d6 rolled by ROLL_BONUS; a six shows a star.
var BonusDie = dice.Definition{
	ID:    "bonus",
	Name:  "Bonus die",
	Sides: 6,
	Faces: []dice.Face{{Value: 6, Symbols: []string{"star"}}},
}

// BonusDice is the number of dice one bonus roll throws.
const BonusDice = 2

// bonusFormula scores a bonus roll: whatever the dice beat six by, plus two
// per star.
var bonusFormula = expression.Plus(
	expression.Largest(expression.Minus(expression.Ref("total"), expression.Lit(6)), expression.Lit(0)),
	expression.Times(expression.Lit(2), expression.Ref("stars")),
)

func bonusPoints(stats dice.Stats) (int, error) {
	v, err := expression.Evaluate(bonusFormula, expression.Context{
		"total": float64(stats.Total),
		"stars": float64(stats.SymbolCounts["star"]),
	})
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

var rollCost = map[string]int{ResourceRolls: 1}

var floorZero = resource.Bounds{Min: resource.Int(0)}

// actions applies effects to a Core, stamping events with the command time.
type actions struct {
	cmd command.Command
}

var (
	_ effect.GameContext[Core]          = actions{}
	_ effect.CustomActionExecutor[Core] = actions{}
)

func (a actions) changePoints(core Core, playerID string, delta int) (Core, []event.Event) {
	p, ok := core.Players[playerID]
	if !ok {
		return core, nil
	}
	ch := p.Pool.Modify(ResourcePoints, delta, floorZero)
	if ch.Delta == 0 {
		return core, nil
	}
	core = core.clone()
	p = core.Players[playerID]
	p.Pool = ch.Pool
	core.Players[playerID] = p
	return core, []event.Event{command.MustEvent(a.cmd, EventPointsChanged, pointsPayload{PlayerID: playerID, Delta: ch.Delta, Total: ch.Value})}
}

func (a actions) ApplyDamage(core Core, playerID string, amount int) (Core, []event.Event) {
	return a.changePoints(core, playerID, -amount)
}

func (a actions) ApplyHeal(core Core, playerID string, amount int) (Core, []event.Event) {
	return a.changePoints(core, playerID, amount)
}

func (a actions) GrantStatus(core Core, playerID, status string, stacks int, duration *int) (Core, []event.Event) {
	if _, ok := core.Players[playerID]; !ok {
		return core, nil
	}
	core = core.clone()
	p := core.Players[playerID]
	p.Tags = p.Tags.Add(status, tag.AddOptions{Stacks: stacks, Duration: duration, DurationMode: tag.DurationMax})
	core.Players[playerID] = p
	return core, []event.Event{command.MustEvent(a.cmd, EventStatusGranted, statusPayload{PlayerID: playerID, Status: status})}
}

func (a actions) RemoveStatus(core Core, playerID, status string, stacks int) (Core, []event.Event) {
	p, ok := core.Players[playerID]
	if !ok || !p.Tags.Has(status) {
		return core, nil
	}
	core = core.clone()
	p = core.Players[playerID]
	p.Tags = p.Tags.Remove(status, stacks)
	core.Players[playerID] = p
	return core, []event.Event{command.MustEvent(a.cmd, EventStatusRemoved, statusPayload{PlayerID: playerID, Status: status})}
}

func (a actions) ExecuteCustomAction(core Core, actionID string, params map[string]any, targetIDs []string) (Core, []event.Event) {
	if actionID != ActionWild {
		return core, nil
	}
	cardID, _ := params["cardId"].(string)
	var events []event.Event
	for _, id := range targetIDs {
		events = append(events, command.MustEvent(a.cmd, EventWildPending, wildPayload{PlayerID: id, CardID: cardID}))
	}
	return core, events
}

// Resource implements cheat.Modifier.
func (a actions) Resource(core Core, playerID, resourceID string) int {
	return core.Players[playerID].Pool.Get(resourceID)
}

// SetResource implements cheat.Modifier.
func (a actions) SetResource(core Core, playerID, resourceID string, value int) Core {
	p, ok := core.Players[playerID]
	if !ok {
		return core
	}
	core = core.clone()
	p = core.Players[playerID]
	p.Pool = p.Pool.Set(resourceID, value, floorZero).Pool
	core.Players[playerID] = p
	return checkWinner(core)
}

// SetStatus implements cheat.Modifier. A non-positive amount clears the status.
func (a actions) SetStatus(core Core, playerID, statusID string, amount int) Core {
	p, ok := core.Players[playerID]
	if !ok {
		return core
	}
	core = core.clone()
	p = core.Players[playerID]
	if amount <= 0 {
		p.Tags = p.Tags.Remove(statusID, 0)
	} else {
		p.Tags = p.Tags.Add(statusID, tag.AddOptions{Stacks: amount, StackMode: tag.StackReplace})
	}
	core.Players[playerID] = p
	return core
}

// checkWinner records the first player in seat order at or past the target.
func checkWinner(core Core) Core {
	if core.Winner != "" {
		return core
	}
	for _, id := range core.Order {
		if core.Points(id) >= core.Target {
			core.Winner = id
			return core
		}
	}
	return core
}
