package game

import "github.com/skirmishgg/skirmish-server-go/internal/catalog"

// PassiveTrait adds power to its owner while every condition holds.
type PassiveTrait struct {
	BaseTrait
	cfg catalog.PassiveConfig
}

// NewPassiveTrait builds the trait from its catalog block.
func NewPassiveTrait(cfg catalog.PassiveConfig) *PassiveTrait {
	return &PassiveTrait{BaseTrait: BaseTrait{kind: "passive"}, cfg: cfg}
}

func (t *PassiveTrait) ModifyPower(power int) int {
	if !t.owner.OnBoard() {
		return power
	}
	ctx := &reactionContext{owner: t.owner}
	if t.owner.engine.evaluateConditions(t.cfg.Conditions, ctx) {
		return power + t.cfg.Power
	}
	return power
}
