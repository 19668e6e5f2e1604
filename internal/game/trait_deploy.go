package game

import (
	"slices"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
)

// DeployConditionTrait restricts where its own card may be deployed.
type DeployConditionTrait struct {
	BaseTrait
	cfg catalog.DeployConditionConfig
}

// NewDeployConditionTrait builds the trait from its catalog block.
func NewDeployConditionTrait(cfg catalog.DeployConditionConfig) *DeployConditionTrait {
	return &DeployConditionTrait{BaseTrait: BaseTrait{kind: "deployCondition"}, cfg: cfg}
}

func (t *DeployConditionTrait) CanDeploy(target SlotCoord, allowed bool) bool {
	if !allowed {
		return false
	}
	e := t.owner.engine
	if len(t.cfg.Terrains) > 0 && !slices.Contains(t.cfg.Terrains, target.Terrain) {
		return false
	}
	if t.cfg.RequireConsume && e.UnitAt(target) == nil {
		return false
	}
	if t.cfg.RequireCloseAlly && len(e.CloseUnits(target.Terrain, t.owner.owner, FilterAlly)) == 0 {
		return false
	}
	return true
}
