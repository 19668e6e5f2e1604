// Package react holds the declarative configuration of reaction abilities:
// triggers, conditions, target selectors, value selectors and effect
// definitions. The types decode from the YAML card catalog and carry no
// engine behavior beyond validation and comparison.
package react

// TriggerType names what a reaction listens for.
type TriggerType string

// Event triggers fire on engine events and may carry a target filter.
const (
	TriggerDeploy    TriggerType = "Deploy"
	TriggerDeath     TriggerType = "Death"
	TriggerTurnStart TriggerType = "TurnStart"
	TriggerPlayCard  TriggerType = "PlayCard"
	TriggerConsume   TriggerType = "Consume"
	TriggerConquer   TriggerType = "Conquer"
)

// Lifecycle triggers fire from the owning unit's own transitions.
const (
	TriggerOnDeploy    TriggerType = "OnDeploy"
	TriggerOnDeath     TriggerType = "OnDeath"
	TriggerOnConquer   TriggerType = "OnConquer"
	TriggerOnConsume   TriggerType = "OnConsume"
	TriggerOnConsumed  TriggerType = "OnConsumed"
	TriggerOnTurnStart TriggerType = "OnTurnStart"
	// TriggerActivate turns the reaction into an activated ability.
	TriggerActivate TriggerType = "Activate"
)

// IsLifecycle reports whether the trigger is driven by the owner's own hooks
// rather than by the event stream.
func (t TriggerType) IsLifecycle() bool {
	switch t {
	case TriggerOnDeploy, TriggerOnDeath, TriggerOnConquer, TriggerOnConsume,
		TriggerOnConsumed, TriggerOnTurnStart, TriggerActivate:
		return true
	}
	return false
}

// Operator is a comparison used by conditions.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
)

// Strategy selects how a TargetSelector anchors itself.
type Strategy string

const (
	// StrategySelf yields the owning unit.
	StrategySelf Strategy = "Self"
	// StrategyRelative is relative to the iteration unit, or the owner.
	StrategyRelative Strategy = "Relative"
	// StrategyRelativeToTrigger is relative to the unit that caused the event.
	StrategyRelativeToTrigger Strategy = "RelativeToTrigger"
	// StrategyRelativeToIteration yields the unit of the current ForEach step.
	StrategyRelativeToIteration Strategy = "RelativeToIteration"
	// StrategyTrigger yields the unit that caused the event itself.
	StrategyTrigger Strategy = "Trigger"
	// StrategyInherited yields the targets handed down by a Sequence.
	StrategyInherited Strategy = "Inherited"
)

// Entity is the kind of object a selector yields.
type Entity string

const (
	EntityUnit Entity = "Unit"
	EntitySlot Entity = "Slot"
)

// Proximity describes which slots around an anchor are considered.
type Proximity string

const (
	// ProximitySelf is the anchor's own slot.
	ProximitySelf Proximity = "Self"
	// ProximityOpposing is the slot across the lane.
	ProximityOpposing Proximity = "Opposing"
	// ProximityClose is the slot across the lane plus both slots of each
	// adjacent terrain.
	ProximityClose Proximity = "Close"
	// ProximityAdjacent is both slots of each adjacent terrain only.
	ProximityAdjacent Proximity = "Adjacent"
	// ProximityAll is every slot on the board.
	ProximityAll Proximity = "All"
)

// Relationship filters slots by side relative to the anchor.
type Relationship string

const (
	RelationAlly  Relationship = "Ally"
	RelationEnemy Relationship = "Enemy"
	RelationNone  Relationship = "None"
)

// SelectionStrategy picks final targets out of the candidates.
type SelectionStrategy string

const (
	SelectAll    SelectionStrategy = "All"
	SelectPlayer SelectionStrategy = "Player"
	SelectRandom SelectionStrategy = "Random"
)

// ValueSource says where a numeric or string value comes from.
type ValueSource string

const (
	ValueStatic ValueSource = "static"
	ValueTarget ValueSource = "target"
	ValueMe     ValueSource = "me"
	ValueEvent  ValueSource = "event"
)

// ActionType is the operation an effect applies to its targets.
type ActionType string

const (
	ActionAddPower   ActionType = "AddPower"
	ActionDealDamage ActionType = "DealDamage"
	ActionAddShield  ActionType = "AddShield"
	ActionHeal       ActionType = "Heal"
	ActionSetPower   ActionType = "SetPower"
	ActionKill       ActionType = "Kill"
	ActionBounce     ActionType = "Bounce"
	ActionCleanse    ActionType = "Cleanse"
	ActionDrawCards  ActionType = "DrawCards"
	ActionModifySlot ActionType = "ModifySlot"
	ActionMoveUnit   ActionType = "MoveUnit"
	ActionFight      ActionType = "Fight"
	ActionDeployUnit ActionType = "DeployUnit"
	ActionSequence   ActionType = "Sequence"
)

// Iteration controls whether an action runs once or per target.
type Iteration string

const (
	IterateOnce    Iteration = "Once"
	IterateForEach Iteration = "ForEach"
)

// ValueSelector resolves a value at execution time.
type ValueSelector struct {
	Type   ValueSource     `yaml:"type" json:"type"`
	Value  any             `yaml:"value" json:"value"`
	Target *TargetSelector `yaml:"target,omitempty" json:"target,omitempty"`
}

// Static is shorthand for a constant value selector.
func Static(v any) *ValueSelector {
	return &ValueSelector{Type: ValueStatic, Value: v}
}

// Condition compares a property of each tested object against a value.
type Condition struct {
	Target   *TargetSelector `yaml:"target,omitempty" json:"target,omitempty"`
	Path     string          `yaml:"path" json:"path"`
	Operator Operator        `yaml:"condition" json:"condition"`
	Value    ValueSelector   `yaml:"value" json:"value"`
}

// TargetSelector describes a set of units or slots.
type TargetSelector struct {
	Type         Strategy     `yaml:"type" json:"type"`
	Entity       Entity       `yaml:"entity,omitempty" json:"entity,omitempty"`
	Proximity    Proximity    `yaml:"proximity,omitempty" json:"proximity,omitempty"`
	Relationship Relationship `yaml:"relationship,omitempty" json:"relationship,omitempty"`
	Conditions   []Condition  `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// SelectionConfig narrows candidates to targets.
type SelectionConfig struct {
	Strategy SelectionStrategy `yaml:"strategy" json:"strategy"`
	Min      int               `yaml:"min,omitempty" json:"min,omitempty"`
	Max      int               `yaml:"max,omitempty" json:"max,omitempty"`
}

// Bounds returns min and max with the defaults applied (1 and 1).
func (s SelectionConfig) Bounds() (int, int) {
	min, max := s.Min, s.Max
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 1
	}
	if max < min {
		max = min
	}
	return min, max
}

// ActionConfig is the operation plus its parameters.
type ActionConfig struct {
	Type      ActionType         `yaml:"type" json:"type"`
	Value     *ValueSelector     `yaml:"value,omitempty" json:"value,omitempty"`
	ToSlot    *TargetSelector    `yaml:"toSlot,omitempty" json:"toSlot,omitempty"`
	Opponent  *TargetSelector    `yaml:"opponent,omitempty" json:"opponent,omitempty"`
	Effects   []EffectDefinition `yaml:"effects,omitempty" json:"effects,omitempty"`
	Iteration Iteration          `yaml:"iteration,omitempty" json:"iteration,omitempty"`
	Swap      bool               `yaml:"swap,omitempty" json:"swap,omitempty"`
}

// EffectDefinition is one step of a reaction. When Candidates is nil the
// step operates on the inherited targets.
type EffectDefinition struct {
	Candidates *TargetSelector  `yaml:"candidates,omitempty" json:"candidates,omitempty"`
	Selection  *SelectionConfig `yaml:"selection,omitempty" json:"selection,omitempty"`
	Action     ActionConfig     `yaml:"action" json:"action"`
}

// TriggerConfig describes one trigger.
type TriggerConfig struct {
	Type     TriggerType     `yaml:"type" json:"type"`
	Target   *TargetSelector `yaml:"target,omitempty" json:"target,omitempty"`
	CardType string          `yaml:"cardType,omitempty" json:"cardType,omitempty"`
	// Cooldown only applies to Activate triggers.
	Cooldown int `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
}

// LimitConfig caps executions within a scope.
type LimitConfig struct {
	Scope string `yaml:"scope" json:"scope"`
	Max   int    `yaml:"max" json:"max"`
}

// ReactionConfig is the full declaration of a reaction trait.
type ReactionConfig struct {
	Triggers   []TriggerConfig    `yaml:"triggers" json:"triggers"`
	Conditions []Condition        `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Effects    []EffectDefinition `yaml:"effects" json:"effects"`
	Limit      *LimitConfig       `yaml:"limit,omitempty" json:"limit,omitempty"`
}
