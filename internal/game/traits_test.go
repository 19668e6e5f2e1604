package game

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelBlocksDeployInFront(t *testing.T) {
	e := newTestEngine(t, 101)
	sentinel := place(t, e, 0, "sentinel", 2)
	vet := give(t, e, 1, "veteran")

	assert.False(t, e.IsDeploymentAllowed(vet, Slot(2, 1)))
	assert.True(t, e.IsDeploymentAllowed(vet, Slot(1, 1)))
	assert.NotContains(t, e.PlayTargets(vet), Slot(2, 1))

	own := give(t, e, 0, "veteran")
	assert.True(t, e.IsDeploymentAllowed(own, Slot(3, 0)), "allies are not blocked")

	sentinel.Kill(CauseKill)
	require.NoError(t, e.drain())
	assert.True(t, e.IsDeploymentAllowed(vet, Slot(2, 1)), "rule is released with the unit")
	for _, r := range []RuleType{RuleCanDeploy, RuleCanTarget, RuleCanConsume, RuleDetermineTerrainWinner} {
		assert.Zero(t, e.Rules().Len(r), "rule %v left registered", r)
	}
}

func TestRogueLowestPowerWins(t *testing.T) {
	e := newTestEngine(t, 103)
	place(t, e, 0, "rogue", 1)
	place(t, e, 1, "veteran", 1)
	assert.Equal(t, PlayerID(0), e.CalculateTerrainWinner(1))

	place(t, e, 0, "rogue", 3)
	place(t, e, 1, "scout", 3)
	assert.Equal(t, NoPlayer, e.CalculateTerrainWinner(3))

	// Lanes without a rogue keep the normal rule.
	place(t, e, 0, "veteran", 0)
	place(t, e, 1, "champion", 0)
	assert.Equal(t, PlayerID(1), e.CalculateTerrainWinner(0))
}

func TestLoneUnitWinsLane(t *testing.T) {
	e := newTestEngine(t, 104)
	place(t, e, 1, "squire", 4)
	assert.Equal(t, PlayerID(1), e.CalculateTerrainWinner(4))
	assert.Equal(t, NoPlayer, e.CalculateTerrainWinner(0))
}

func TestConsumptionOrdering(t *testing.T) {
	e := newTestEngine(t, 107)
	acolyte := place(t, e, 0, "acolyte", 0)
	hand := e.Player(0).HandSize()
	events := recordEvents(e, EventUnitDied, EventUnitConsumed, EventUnitDeployed, EventAbilityTriggered)

	apprentice := place(t, e, 0, "apprentice", 0)

	var types []EventType
	var triggered []string
	for _, ev := range *events {
		types = append(types, ev.Type)
		if ev.Type == EventAbilityTriggered {
			triggered = append(triggered, ev.CardID)
		}
	}
	assert.Equal(t, []EventType{
		EventUnitDied, EventUnitConsumed, EventUnitDeployed,
		EventAbilityTriggered, EventAbilityTriggered,
	}, types)
	assert.Equal(t, []string{"acolyte", "apprentice"}, triggered)

	assert.Equal(t, CauseConsumed, (*events)[0].Cause)
	assert.Equal(t, acolyte.ID(), (*events)[1].UnitID)
	assert.Equal(t, apprentice.ID(), (*events)[1].SourceID)
	assert.Equal(t, 6, apprentice.Power())
	assert.Equal(t, hand+1, e.Player(0).HandSize())
	assert.Contains(t, cardIDs(e.Player(0).Graveyard()), acolyte.ID())
}

func TestCannotBeConsumed(t *testing.T) {
	e := newTestEngine(t, 109)
	place(t, e, 0, "stalwart", 0)
	place(t, e, 0, "veteran", 1)
	vet := give(t, e, 0, "veteran")

	assert.False(t, e.IsDeploymentAllowed(vet, Slot(0, 0)))
	assert.True(t, e.IsDeploymentAllowed(vet, Slot(1, 0)))
}

func TestDeployConditionRequiresConsume(t *testing.T) {
	e := newTestEngine(t, 113)
	dragon := give(t, e, 0, "dragon")

	assert.False(t, e.IsDeploymentAllowed(dragon, Slot(1, 0)))
	place(t, e, 0, "veteran", 1)
	assert.True(t, e.IsDeploymentAllowed(dragon, Slot(1, 0)))
	assert.Equal(t, []SlotCoord{Slot(1, 0)}, e.PlayTargets(dragon))
}

func TestUntargetableByEnemyActions(t *testing.T) {
	e := newTestEngine(t, 127)
	place(t, e, 1, "peace_enforcer", 2)
	place(t, e, 1, "veteran", 3)

	strike := give(t, e, 0, "strike")
	assert.False(t, e.IsTargetingAllowed(strike, Slot(2, 1)))
	assert.Equal(t, []SlotCoord{Slot(3, 1)}, e.PlayTargets(strike))

	energize := give(t, e, 1, "energize")
	assert.True(t, e.IsTargetingAllowed(energize, Slot(2, 1)))
}

func TestShieldAbsorbsDamage(t *testing.T) {
	e := newTestEngine(t, 131)
	g := place(t, e, 0, "guardian", 0)
	shield := recordEvents(e, EventShieldChanged)

	require.Equal(t, 2, g.Shield())
	assert.Equal(t, 1, g.DealDamage(3, ""))
	assert.Equal(t, 0, g.Shield())
	assert.Equal(t, 2, g.Power())
	require.Len(t, *shield, 1)
	assert.Equal(t, -2, (*shield)[0].Amount)
}

func TestPassivePowerWhileAlone(t *testing.T) {
	e := newTestEngine(t, 137)
	jackal := place(t, e, 0, "lone_jackal", 2)
	assert.Equal(t, 5, jackal.Power())

	place(t, e, 0, "veteran", 3)
	assert.Equal(t, 2, jackal.Power())
}

func TestDominantFiresOnceAtOwnersTurn(t *testing.T) {
	e := newTestEngine(t, 139)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()
	bulwark := place(t, e, first, "bulwark", 3)

	dominant, ok := bulwark.traits[0].(*DominantTrait)
	require.True(t, ok)

	play(t, e, e.Player(first).Hand()[0], at(0, first))
	assert.False(t, dominant.Triggered())

	play(t, e, e.Player(second).Hand()[0], at(0, second))
	assert.True(t, dominant.Triggered())
	assert.Equal(t, 2, bulwark.Shield())

	play(t, e, e.Player(first).Hand()[0], at(1, first))
	play(t, e, e.Player(second).Hand()[0], at(1, second))
	assert.Equal(t, 2, bulwark.Shield(), "dominant fires once per deploy")
}

func TestDominantCreatesCards(t *testing.T) {
	e := newTestEngine(t, 149)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()
	place(t, e, first, "warbanner", 2)
	created := recordEvents(e, EventCardCreated)

	play(t, e, e.Player(first).Hand()[0], at(0, first))
	play(t, e, e.Player(second).Hand()[0], at(0, second))

	require.Len(t, *created, 1)
	c, ok := e.Card((*created)[0].CardID)
	require.True(t, ok)
	assert.Equal(t, "squire", c.DefinitionID())
	_, inHand := e.Player(first).FindInHand(c.ID())
	assert.True(t, inHand)
}

func TestScriptTraitRunsLua(t *testing.T) {
	e := newTestEngine(t, 151)
	enemy := place(t, e, 1, "veteran", 2)
	hand := e.Player(0).HandSize()

	oracle := place(t, e, 0, "oracle", 2)

	assert.Equal(t, hand+1, e.Player(0).HandSize())
	assert.Equal(t, 3, enemy.Power())
	assert.True(t, oracle.OnBoard())
}

func TestScriptTraitWithoutEnemy(t *testing.T) {
	e := newTestEngine(t, 152)
	hand := e.Player(0).HandSize()
	place(t, e, 0, "oracle", 0)
	assert.Equal(t, hand+1, e.Player(0).HandSize())
	assert.NoError(t, e.Err())
}

func TestScriptTraitCompileError(t *testing.T) {
	_, err := NewScriptTrait("function on_deploy(")
	require.Error(t, err)

	tr, err := NewScriptTrait("function on_death() end")
	require.NoError(t, err)
	assert.True(t, tr.HasHook(scriptOnDeath))
	assert.False(t, tr.HasHook(scriptOnDeploy))
}

func TestScriptTraitCannotLoadFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outside.lua")
	require.NoError(t, os.WriteFile(path, []byte(`leaked = "read from disk"`), 0o600))

	_, err := NewScriptTrait(fmt.Sprintf("dofile(%q)", path))
	require.Error(t, err)

	tr, err := NewScriptTrait("loaders = dofile == nil and loadfile == nil and load == nil")
	require.NoError(t, err)
	tr.state.Global("loaders")
	assert.True(t, tr.state.ToBoolean(-1))
	tr.state.Pop(1)
	tr.state.Global("leaked")
	assert.True(t, tr.state.IsNil(-1))
	tr.state.Pop(1)
}

func TestDeathReactionFromCloseUnit(t *testing.T) {
	e := newTestEngine(t, 157)
	ghoul := place(t, e, 0, "ghoul", 1)
	victim := place(t, e, 1, "veteran", 2)
	far := place(t, e, 1, "veteran", 4)

	far.Kill(CauseKill)
	require.NoError(t, e.drain())
	assert.Equal(t, 1, ghoul.Power(), "terrain 4 is not close")

	victim.Kill(CauseKill)
	require.NoError(t, e.drain())
	assert.Equal(t, 3, ghoul.Power())
}

func TestOnDeathModifiesOwnSlot(t *testing.T) {
	e := newTestEngine(t, 158)
	roots := place(t, e, 0, "roots", 3)

	roots.Kill(CauseKill)
	require.NoError(t, e.drain())
	assert.Equal(t, 2, e.Terrain(3).Modifier(0))
}

func TestKnightDeploysChosenSquire(t *testing.T) {
	e := newTestEngine(t, 163)
	place(t, e, 0, "knight", 2)

	req, ok := e.PendingInput()
	require.True(t, ok)
	assert.Equal(t, InputKindSlot, req.Kind)
	require.Len(t, req.Candidates, 2)
	assert.Equal(t, "slot:t1:p0", req.Candidates[0].ID)
	assert.Equal(t, "slot:t3:p0", req.Candidates[1].ID)

	require.NoError(t, e.SubmitInput(InputResponse{PlayerID: 0, Selected: []string{req.Candidates[1].ID}}))
	squire := e.UnitAt(Slot(3, 0))
	require.NotNil(t, squire)
	assert.Equal(t, "squire", squire.DefinitionID())
	assert.True(t, squire.Token())
	assert.Nil(t, e.UnitAt(Slot(1, 0)))
}

func TestSquadLeaderBuffsEachCloseAlly(t *testing.T) {
	e := newTestEngine(t, 167)
	left := place(t, e, 0, "veteran", 1)
	right := place(t, e, 0, "veteran", 3)
	far := place(t, e, 0, "veteran", 4)

	place(t, e, 0, "squad_leader", 2)

	assert.Equal(t, 5, left.Power())
	assert.Equal(t, 5, right.Power())
	assert.Equal(t, 4, far.Power())
}

func TestActivatedAbilityWithCooldown(t *testing.T) {
	e := newTestEngine(t, 173)
	first := e.Game().CurrentPlayer()
	vampire := place(t, e, first, "vampire", 2)
	enemy := place(t, e, first.Opponent(), "veteran", 2)

	require.Contains(t, e.LegalActions(first), Activate(first, vampire.ID()))
	_, err := e.SubmitAction(Activate(first, vampire.ID()), "")
	require.NoError(t, err)

	req, ok := e.PendingInput()
	require.True(t, ok)
	require.Len(t, req.Candidates, 1)
	require.NoError(t, e.SubmitInput(InputResponse{PlayerID: first, Selected: []string{enemy.ID()}}))

	assert.Equal(t, 2, enemy.Power())
	assert.Equal(t, 1, vampire.Cooldown())
	assert.False(t, vampire.CanActivate())
	assert.Equal(t, first, e.Game().CurrentPlayer(), "activation keeps the turn")
	assert.NotContains(t, e.LegalActions(first), Activate(first, vampire.ID()))
}

func TestUnknownTraitType(t *testing.T) {
	_, err := buildTrait(catalog.TraitDefinition{Type: "flying"})
	assert.ErrorIs(t, err, ErrUnknownTrait)
}
