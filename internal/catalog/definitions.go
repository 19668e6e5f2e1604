// Package catalog loads card, leader and deck definitions. Definitions are
// plain data; the game package turns them into live cards and traits.
package catalog

import (
	"github.com/skirmishgg/skirmish-server-go/internal/game/react"
)

// Rarity tags a card definition.
type Rarity string

const (
	RarityBronze Rarity = "Bronze"
	RaritySilver Rarity = "Silver"
	RarityGold   Rarity = "Gold"
)

// Trait type names accepted in definitions.
const (
	TraitReaction        = "reaction"
	TraitRuleModifier    = "ruleModifier"
	TraitShield          = "shield"
	TraitDeployCondition = "deployCondition"
	TraitDominant        = "dominant"
	TraitPassive         = "passive"
	TraitScript          = "script"
)

// Rule modifier kinds implemented by the engine.
const (
	RuleBlockEnemyDeployInFront = "block_enemy_deploy_in_front"
	RuleLowestPowerWins         = "lowest_power_wins"
	RuleUntargetableByEnemy     = "untargetable_by_enemy"
	RuleCannotBeConsumed        = "cannot_be_consumed"
)

// RuleModifierConfig selects one of the engine's rule modifier kinds.
type RuleModifierConfig struct {
	Kind string `yaml:"kind" json:"kind"`
}

// DeployConditionConfig restricts where the owning card may be deployed.
type DeployConditionConfig struct {
	// Terrains lists the only terrains the card may enter. Empty means any.
	Terrains []int `yaml:"terrains,omitempty" json:"terrains,omitempty"`
	// RequireConsume only allows deploying onto an occupied own slot.
	RequireConsume bool `yaml:"requireConsume,omitempty" json:"requireConsume,omitempty"`
	// RequireCloseAlly only allows terrains next to an allied unit.
	RequireCloseAlly bool `yaml:"requireCloseAlly,omitempty" json:"requireCloseAlly,omitempty"`
}

// DominantConfig describes a one-shot effect fired at the owner's turn start
// while the owner's lane total beats the opponent's.
type DominantConfig struct {
	Effect string `yaml:"effect" json:"effect"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	Value  int    `yaml:"value,omitempty" json:"value,omitempty"`
	// Cards is "cardId:count" for CREATE_CARDS.
	Cards string `yaml:"cards,omitempty" json:"cards,omitempty"`
}

// Dominant effect and target names.
const (
	DominantAddPower    = "ADD_POWER"
	DominantDealDamage  = "DEAL_DAMAGE"
	DominantAddShield   = "ADD_SHIELD"
	DominantDrawCards   = "DRAW_CARDS"
	DominantCreateCards = "CREATE_CARDS"

	DominantTargetSelf       = "SELF"
	DominantTargetCloseAlly  = "CLOSE_ALLY"
	DominantTargetCloseEnemy = "CLOSE_ENEMY"
	DominantTargetInFront    = "IN_FRONT"
)

// PassiveConfig adjusts the owner's power while every condition holds.
type PassiveConfig struct {
	Conditions []react.Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Power      int               `yaml:"power" json:"power"`
}

// TraitDefinition is one entry in a unit's trait list. Exactly one of the
// typed payloads is read, chosen by Type.
type TraitDefinition struct {
	Type     string                 `yaml:"type" json:"type"`
	Reaction *react.ReactionConfig  `yaml:"reaction,omitempty" json:"reaction,omitempty"`
	Rule     *RuleModifierConfig    `yaml:"rule,omitempty" json:"rule,omitempty"`
	Shield   int                    `yaml:"shield,omitempty" json:"shield,omitempty"`
	Deploy   *DeployConditionConfig `yaml:"deploy,omitempty" json:"deploy,omitempty"`
	Dominant *DominantConfig        `yaml:"dominant,omitempty" json:"dominant,omitempty"`
	Passive  *PassiveConfig         `yaml:"passive,omitempty" json:"passive,omitempty"`
	Script   string                 `yaml:"script,omitempty" json:"script,omitempty"`
}

// UnitDefinition is everything needed to construct a unit card.
type UnitDefinition struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Power       int               `yaml:"power" json:"power"`
	Rarity      Rarity            `yaml:"rarity" json:"rarity"`
	Color       string            `yaml:"color,omitempty" json:"color,omitempty"`
	UnitType    string            `yaml:"unitType,omitempty" json:"unitType,omitempty"`
	Token       bool              `yaml:"token,omitempty" json:"token,omitempty"`
	Traits      []TraitDefinition `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// Action target kinds.
const (
	TargetNone      = "none"
	TargetAllyUnit  = "ally_unit"
	TargetEnemyUnit = "enemy_unit"
	TargetAnyUnit   = "any_unit"
	TargetAllySlot  = "ally_slot"
	TargetAnySlot   = "any_slot"
)

// Action ability kinds.
const (
	AbilityDealDamage = "deal_damage"
	AbilityAddPower   = "add_power"
	AbilityBounce     = "bounce"
	AbilityKill       = "kill"
	AbilityFight      = "fight"
	AbilitySeed       = "seed"
	AbilityMove       = "move"
	AbilityDraw       = "draw"
)

// ActionDefinition is a one-shot card.
type ActionDefinition struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Rarity      Rarity `yaml:"rarity" json:"rarity"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
	Target      string `yaml:"target" json:"target"`
	Ability     string `yaml:"ability" json:"ability"`
	Value       int    `yaml:"value,omitempty" json:"value,omitempty"`
}

// Leader ability kinds.
const (
	LeaderDrawCards  = "draw_cards"
	LeaderDealDamage = "deal_damage"
	LeaderAddPower   = "add_power"
)

// LeaderAbility is the activated power of a leader.
type LeaderAbility struct {
	Kind   string `yaml:"kind" json:"kind"`
	Value  int    `yaml:"value,omitempty" json:"value,omitempty"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

// LeaderDefinition describes a leader and its charges.
type LeaderDefinition struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	MaxCharges  int            `yaml:"maxCharges" json:"maxCharges"`
	Ability     *LeaderAbility `yaml:"ability,omitempty" json:"ability,omitempty"`
}

// DeckEntry is a card id with a copy count.
type DeckEntry struct {
	Card  string `yaml:"card" json:"card"`
	Count int    `yaml:"count" json:"count"`
}

// DeckDefinition is a named list of cards with a default leader.
type DeckDefinition struct {
	ID     string      `yaml:"id" json:"id"`
	Name   string      `yaml:"name" json:"name"`
	Leader string      `yaml:"leader,omitempty" json:"leader,omitempty"`
	Cards  []DeckEntry `yaml:"cards" json:"cards"`
}

// CardIDs expands the deck into one id per copy, in list order.
func (d DeckDefinition) CardIDs() []string {
	var ids []string
	for _, entry := range d.Cards {
		for i := 0; i < entry.Count; i++ {
			ids = append(ids, entry.Card)
		}
	}
	return ids
}
