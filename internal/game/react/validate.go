package react

import (
	"errors"
	"fmt"
)

// Validate checks that a reaction config only uses known vocabulary. It is
// meant to run once, when the catalog is loaded.
func (c ReactionConfig) Validate() error {
	if len(c.Triggers) == 0 {
		return errors.New("reaction has no triggers")
	}
	for i, trigger := range c.Triggers {
		if err := trigger.validate(); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	for i, cond := range c.Conditions {
		if err := cond.validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	if len(c.Effects) == 0 {
		return errors.New("reaction has no effects")
	}
	if err := validateEffects(c.Effects); err != nil {
		return err
	}
	if c.Limit != nil {
		switch c.Limit.Scope {
		case "Turn", "Round", "Game":
		default:
			return fmt.Errorf("unknown limit scope %q", c.Limit.Scope)
		}
		if c.Limit.Max <= 0 {
			return errors.New("limit max must be positive")
		}
	}
	return nil
}

func (t TriggerConfig) validate() error {
	switch t.Type {
	case TriggerDeploy, TriggerDeath, TriggerTurnStart, TriggerPlayCard, TriggerConsume, TriggerConquer,
		TriggerOnDeploy, TriggerOnDeath, TriggerOnConquer, TriggerOnConsume, TriggerOnConsumed,
		TriggerOnTurnStart, TriggerActivate:
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	if t.Target != nil {
		if err := t.Target.validate(); err != nil {
			return err
		}
	}
	if t.Cooldown < 0 {
		return errors.New("cooldown must not be negative")
	}
	return nil
}

func (c Condition) validate() error {
	if c.Path == "" {
		return errors.New("condition path is required")
	}
	switch c.Operator {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains:
	default:
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if c.Target != nil {
		if err := c.Target.validate(); err != nil {
			return err
		}
	}
	return c.Value.validate()
}

func (v ValueSelector) validate() error {
	switch v.Type {
	case ValueStatic, ValueMe, ValueEvent:
	case ValueTarget:
		if v.Target != nil {
			return v.Target.validate()
		}
	default:
		return fmt.Errorf("unknown value source %q", v.Type)
	}
	return nil
}

func (s TargetSelector) validate() error {
	switch s.Type {
	case StrategySelf, StrategyRelative, StrategyRelativeToTrigger, StrategyRelativeToIteration,
		StrategyTrigger, StrategyInherited:
	default:
		return fmt.Errorf("unknown target strategy %q", s.Type)
	}
	switch s.Entity {
	case "", EntityUnit, EntitySlot:
	default:
		return fmt.Errorf("unknown entity %q", s.Entity)
	}
	switch s.Proximity {
	case "", ProximitySelf, ProximityOpposing, ProximityClose, ProximityAdjacent, ProximityAll:
	default:
		return fmt.Errorf("unknown proximity %q", s.Proximity)
	}
	switch s.Relationship {
	case "", RelationAlly, RelationEnemy, RelationNone:
	default:
		return fmt.Errorf("unknown relationship %q", s.Relationship)
	}
	for _, cond := range s.Conditions {
		if err := cond.validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateEffects(effects []EffectDefinition) error {
	for i, def := range effects {
		if def.Candidates != nil {
			if err := def.Candidates.validate(); err != nil {
				return fmt.Errorf("effect %d candidates: %w", i, err)
			}
		}
		if def.Selection != nil {
			switch def.Selection.Strategy {
			case SelectAll, SelectPlayer, SelectRandom:
			default:
				return fmt.Errorf("effect %d: unknown selection strategy %q", i, def.Selection.Strategy)
			}
		}
		if err := def.Action.validate(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}
	return nil
}

func (a ActionConfig) validate() error {
	switch a.Type {
	case ActionAddPower, ActionDealDamage, ActionAddShield, ActionHeal, ActionSetPower,
		ActionKill, ActionBounce, ActionCleanse, ActionDrawCards, ActionModifySlot:
	case ActionMoveUnit:
		if a.ToSlot == nil {
			return errors.New("MoveUnit requires toSlot")
		}
	case ActionFight:
		if a.Opponent == nil {
			return errors.New("Fight requires opponent")
		}
	case ActionDeployUnit:
		if a.Value == nil {
			return errors.New("DeployUnit requires a token card id value")
		}
	case ActionSequence:
		if len(a.Effects) == 0 {
			return errors.New("Sequence requires nested effects")
		}
		return validateEffects(a.Effects)
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	switch a.Iteration {
	case "", IterateOnce, IterateForEach:
	default:
		return fmt.Errorf("unknown iteration %q", a.Iteration)
	}
	if a.Value != nil {
		if err := a.Value.validate(); err != nil {
			return err
		}
	}
	return nil
}
