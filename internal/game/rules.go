package game

import "github.com/skirmishgg/skirmish-server-go/internal/game/rules"

// RuleType names a decision point that traits may modify.
type RuleType string

const (
	RuleCanDeploy              RuleType = "CAN_DEPLOY"
	RuleCanTarget              RuleType = "CAN_TARGET"
	RuleCanConsume             RuleType = "CAN_CONSUME"
	RuleDetermineTerrainWinner RuleType = "DETERMINE_TERRAIN_WINNER"
)

// DeployContext is the input to CAN_DEPLOY.
type DeployContext struct {
	Card     Card
	Target   SlotCoord
	Occupant *UnitCard
}

// Source is whatever aims an effect: a card or a leader.
type Source interface {
	Owner() PlayerID
}

// TargetContext is the input to CAN_TARGET. Unit is nil for an empty slot.
type TargetContext struct {
	Source Source
	Target SlotCoord
	Unit   *UnitCard
}

// ConsumeContext is the input to CAN_CONSUME.
type ConsumeContext struct {
	Consumer Card
	Victim   *UnitCard
}

// TerrainContext is the input to DETERMINE_TERRAIN_WINNER.
type TerrainContext struct {
	Terrain int
	Power   [NumPlayers]int
	Present [NumPlayers]bool
}

// RuleManager holds one ordered modifier chain per rule type.
type RuleManager struct {
	canDeploy     *rules.Chain[DeployContext, bool]
	canTarget     *rules.Chain[TargetContext, bool]
	canConsume    *rules.Chain[ConsumeContext, bool]
	terrainWinner *rules.Chain[TerrainContext, PlayerID]
}

// NewRuleManager creates a manager with empty chains.
func NewRuleManager() *RuleManager {
	return &RuleManager{
		canDeploy:     rules.NewChain[DeployContext, bool](),
		canTarget:     rules.NewChain[TargetContext, bool](),
		canConsume:    rules.NewChain[ConsumeContext, bool](),
		terrainWinner: rules.NewChain[TerrainContext, PlayerID](),
	}
}

func (m *RuleManager) RegisterCanDeploy(owner string, fn rules.Modifier[DeployContext, bool]) string {
	return m.canDeploy.Register(owner, fn)
}

func (m *RuleManager) RegisterCanTarget(owner string, fn rules.Modifier[TargetContext, bool]) string {
	return m.canTarget.Register(owner, fn)
}

func (m *RuleManager) RegisterCanConsume(owner string, fn rules.Modifier[ConsumeContext, bool]) string {
	return m.canConsume.Register(owner, fn)
}

func (m *RuleManager) RegisterTerrainWinner(owner string, fn rules.Modifier[TerrainContext, PlayerID]) string {
	return m.terrainWinner.Register(owner, fn)
}

// CanDeploy folds CAN_DEPLOY over initial.
func (m *RuleManager) CanDeploy(ctx DeployContext, initial bool) bool {
	return m.canDeploy.Evaluate(ctx, initial)
}

// CanTarget folds CAN_TARGET over initial.
func (m *RuleManager) CanTarget(ctx TargetContext, initial bool) bool {
	return m.canTarget.Evaluate(ctx, initial)
}

// CanConsume folds CAN_CONSUME over initial.
func (m *RuleManager) CanConsume(ctx ConsumeContext, initial bool) bool {
	return m.canConsume.Evaluate(ctx, initial)
}

// TerrainWinner folds DETERMINE_TERRAIN_WINNER over the base result.
func (m *RuleManager) TerrainWinner(ctx TerrainContext, initial PlayerID) PlayerID {
	return m.terrainWinner.Evaluate(ctx, initial)
}

// Unregister removes one registration from whichever chain holds it.
func (m *RuleManager) Unregister(id string) bool {
	return m.canDeploy.Unregister(id) ||
		m.canTarget.Unregister(id) ||
		m.canConsume.Unregister(id) ||
		m.terrainWinner.Unregister(id)
}

// UnregisterOwner removes an owner's entries from every chain.
func (m *RuleManager) UnregisterOwner(owner string) int {
	return m.canDeploy.UnregisterOwner(owner) +
		m.canTarget.UnregisterOwner(owner) +
		m.canConsume.UnregisterOwner(owner) +
		m.terrainWinner.UnregisterOwner(owner)
}

// Len returns the number of registrations for a rule type.
func (m *RuleManager) Len(rule RuleType) int {
	switch rule {
	case RuleCanDeploy:
		return m.canDeploy.Len()
	case RuleCanTarget:
		return m.canTarget.Len()
	case RuleCanConsume:
		return m.canConsume.Len()
	case RuleDetermineTerrainWinner:
		return m.terrainWinner.Len()
	}
	return 0
}
