package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
)

// CreateCard instantiates a catalog definition for owner and registers it
// with the engine. Instance ids are drawn from the match RNG, so they are
// stable for a given seed.
func (e *Engine) CreateCard(defID string, owner PlayerID) (Card, error) {
	if !e.catalog.HasCard(defID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, defID)
	}
	id := e.newCardID(defID, owner)
	var (
		card Card
		err  error
	)
	if e.catalog.IsUnit(defID) {
		def, _ := e.catalog.Unit(defID)
		card, err = e.newUnit(id, owner, def)
	} else {
		def, _ := e.catalog.Action(defID)
		card = NewActionCard(e, id, owner, def)
	}
	if err != nil {
		return nil, err
	}
	e.cards[id] = card
	return card, nil
}

func (e *Engine) newCardID(defID string, owner PlayerID) string {
	for {
		id := fmt.Sprintf("p%d_%s_%06d", owner, defID, e.rng.NextInt(0, 1000000))
		if _, taken := e.cards[id]; !taken {
			return id
		}
	}
}

func (e *Engine) newUnit(id string, owner PlayerID, def catalog.UnitDefinition) (*UnitCard, error) {
	u := &UnitCard{
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
		unitType:    def.UnitType,
		token:       def.Token,
		basePower:   def.Power,
		terrain:     -1,
		lastTerrain: -1,
	}
	for _, td := range def.Traits {
		tr, err := buildTrait(td)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", def.ID, err)
		}
		tr.OnAttach(u)
		u.traits = append(u.traits, tr)
		if p, ok := tr.(abilityProvider); ok && u.ability == nil {
			u.ability = p.ActivatedAbility()
		}
	}
	return u, nil
}

func buildTrait(td catalog.TraitDefinition) (Trait, error) {
	switch td.Type {
	case catalog.TraitReaction:
		if td.Reaction == nil {
			return nil, fmt.Errorf("%w: reaction without config", ErrUnknownTrait)
		}
		return NewReactionTrait(*td.Reaction)
	case catalog.TraitRuleModifier:
		if td.Rule == nil {
			return nil, fmt.Errorf("%w: rule modifier without kind", ErrUnknownTrait)
		}
		return NewRuleModifierTrait(td.Rule.Kind)
	case catalog.TraitShield:
		return NewShieldTrait(td.Shield), nil
	case catalog.TraitDeployCondition:
		if td.Deploy == nil {
			return NewDeployConditionTrait(catalog.DeployConditionConfig{}), nil
		}
		return NewDeployConditionTrait(*td.Deploy), nil
	case catalog.TraitDominant:
		if td.Dominant == nil {
			return nil, fmt.Errorf("%w: dominant without effect", ErrUnknownTrait)
		}
		return NewDominantTrait(*td.Dominant), nil
	case catalog.TraitPassive:
		if td.Passive == nil {
			return nil, fmt.Errorf("%w: passive without config", ErrUnknownTrait)
		}
		return NewPassiveTrait(*td.Passive), nil
	case catalog.TraitScript:
		return NewScriptTrait(td.Script)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrait, td.Type)
	}
}
