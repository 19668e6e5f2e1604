package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
)

// ActionCard is a one-shot card. It resolves from the graveyard, so its
// own effects never see it in hand.
type ActionCard struct {
	baseCard
	target  string
	ability string
	value   int
}

// NewActionCard builds an action instance from its definition.
func NewActionCard(e *Engine, id string, owner PlayerID, def catalog.ActionDefinition) *ActionCard {
	return &ActionCard{
		baseCard: baseCard{
			engine:       e,
			id:           id,
			definitionID: def.ID,
			name:         def.Name,
			description:  def.Description,
			owner:        owner,
			rarity:       def.Rarity,
			color:        def.Color,
		},
		target:  def.Target,
		ability: def.Ability,
		value:   def.Value,
	}
}

func (a *ActionCard) Type() CardType { return CardTypeAction }
func (a *ActionCard) TargetKind() string { return a.target }
func (a *ActionCard) Ability() string { return a.ability }
func (a *ActionCard) Value() int { return a.value }

func (a *ActionCard) NeedsTarget() bool {
	return a.target != "" && a.target != catalog.TargetNone
}

// ValidTargets lists the slots matching the card's target kind. Unit kinds
// only offer occupied slots.
func (a *ActionCard) ValidTargets() []SlotCoord {
	var out []SlotCoord
	for t := 0; t < NumTerrains; t++ {
		for p := PlayerID(0); p < NumPlayers; p++ {
			s := Slot(t, p)
			occupied := a.engine.UnitAt(s) != nil
			ally := p == a.owner
			switch a.target {
			case catalog.TargetAllyUnit:
				if ally && occupied {
					out = append(out, s)
				}
			case catalog.TargetEnemyUnit:
				if !ally && occupied {
					out = append(out, s)
				}
			case catalog.TargetAnyUnit:
				if occupied {
					out = append(out, s)
				}
			case catalog.TargetAllySlot:
				if ally {
					out = append(out, s)
				}
			case catalog.TargetAnySlot:
				out = append(out, s)
			}
		}
	}
	return out
}

// Play resolves the card's ability against target. A unit target that
// left its slot in the meantime makes the card fizzle.
func (a *ActionCard) Play(target *SlotCoord) error {
	e := a.engine
	if !a.NeedsTarget() {
		return a.resolve(nil, nil)
	}
	if target == nil {
		return fmt.Errorf("action %s needs a target", a.id)
	}
	return a.resolve(target, e.UnitAt(*target))
}

func (a *ActionCard) resolve(target *SlotCoord, unit *UnitCard) error {
	e := a.engine
	player := e.players[a.owner]
	switch a.ability {
	case catalog.AbilityDraw:
		player.Draw(a.value)
	case catalog.AbilityDealDamage:
		if unit != nil {
			unit.DealDamage(a.value, a.id)
		}
	case catalog.AbilityAddPower:
		if unit != nil {
			unit.AddPower(a.value)
		}
	case catalog.AbilityBounce:
		if unit != nil {
			unit.Bounce()
		}
	case catalog.AbilityKill:
		if unit != nil {
			unit.Kill(CauseKill)
		}
	case catalog.AbilityFight:
		if unit == nil {
			return nil
		}
		enemy := e.UnitInFront(unit.terrain, unit.owner)
		if enemy == nil {
			return nil
		}
		powerA, powerB := unit.Power(), enemy.Power()
		enemy.DealDamage(powerA, unit.id)
		unit.DealDamage(powerB, enemy.id)
	case catalog.AbilitySeed:
		if target == nil {
			return nil
		}
		e.AddSlotModifier(*target, a.value)
		for _, adj := range adjacentTerrains(target.Terrain) {
			e.AddSlotModifier(Slot(adj, target.Player), a.value)
		}
	case catalog.AbilityMove:
		if unit == nil {
			return nil
		}
		return a.requestMove(unit)
	default:
		return fmt.Errorf("action %s: unknown ability %q", a.definitionID, a.ability)
	}
	return nil
}

// requestMove asks the owner for an empty slot on their side.
func (a *ActionCard) requestMove(unit *UnitCard) error {
	e := a.engine
	req := InputRequest{
		PlayerID: a.owner,
		Kind:     InputKindSlot,
		Prompt:   fmt.Sprintf("%s: choose where %s moves", a.name, unit.name),
		Min:      1,
		Max:      1,
		SourceID: a.id,
	}
	for t := 0; t < NumTerrains; t++ {
		s := Slot(t, a.owner)
		if t == unit.terrain || e.UnitAt(s) != nil {
			continue
		}
		st := slotTarget(e, s)
		req.Candidates = append(req.Candidates, InputOption{ID: st.ID(), Label: st.label(), Slot: slotRef(s)})
	}
	if len(req.Candidates) == 0 {
		return nil
	}
	return e.RequestInput(req, func(resp InputResponse) error {
		for _, opt := range req.Candidates {
			if opt.ID == resp.Selected[0] {
				unit.MoveTo(opt.Slot.Terrain)
			}
		}
		return nil
	})
}

func (a *ActionCard) State() CardState {
	st := a.baseState(CardTypeAction)
	st.Target = a.target
	return st
}
