package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
)

// RuleModifierTrait registers a pure rule modifier while its owner is on
// the board.
type RuleModifierTrait struct {
	BaseTrait
	ruleKind string
	regs     registrations
}

// NewRuleModifierTrait builds a rule modifier of a known kind.
func NewRuleModifierTrait(kind string) (*RuleModifierTrait, error) {
	switch kind {
	case catalog.RuleBlockEnemyDeployInFront, catalog.RuleLowestPowerWins,
		catalog.RuleUntargetableByEnemy, catalog.RuleCannotBeConsumed:
	default:
		return nil, fmt.Errorf("unknown rule modifier %q", kind)
	}
	return &RuleModifierTrait{BaseTrait: BaseTrait{kind: "ruleModifier"}, ruleKind: kind}, nil
}

// RuleKind returns the modifier kind.
func (t *RuleModifierTrait) RuleKind() string { return t.ruleKind }

func (t *RuleModifierTrait) OnDeploy() {
	owner := t.owner
	m := owner.engine.rules
	var id string
	switch t.ruleKind {
	case catalog.RuleBlockEnemyDeployInFront:
		id = m.RegisterCanDeploy(owner.id, func(ctx DeployContext, allowed bool) bool {
			if !allowed || !owner.OnBoard() {
				return allowed
			}
			if ctx.Card.Owner() != owner.owner && ctx.Target == Slot(owner.terrain, owner.owner.Opponent()) {
				return false
			}
			return allowed
		})
	case catalog.RuleLowestPowerWins:
		id = m.RegisterTerrainWinner(owner.id, func(ctx TerrainContext, winner PlayerID) PlayerID {
			if !owner.OnBoard() || ctx.Terrain != owner.terrain || !ctx.Present[0] || !ctx.Present[1] {
				return winner
			}
			switch {
			case ctx.Power[0] < ctx.Power[1]:
				return 0
			case ctx.Power[1] < ctx.Power[0]:
				return 1
			}
			return NoPlayer
		})
	case catalog.RuleUntargetableByEnemy:
		id = m.RegisterCanTarget(owner.id, func(ctx TargetContext, allowed bool) bool {
			if ctx.Unit == owner && ctx.Source != nil && ctx.Source.Owner() != owner.owner {
				return false
			}
			return allowed
		})
	case catalog.RuleCannotBeConsumed:
		id = m.RegisterCanConsume(owner.id, func(ctx ConsumeContext, allowed bool) bool {
			if ctx.Victim == owner {
				return false
			}
			return allowed
		})
	}
	if id != "" {
		t.regs.rules = append(t.regs.rules, id)
	}
}

func (t *RuleModifierTrait) OnLeave() { t.regs.release(t.owner.engine) }
func (t *RuleModifierTrait) Detach() { t.regs.release(t.owner.engine) }
