package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/game/react"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rules"
)

// eventTriggers maps event-driven trigger types to the events they watch.
var eventTriggers = map[react.TriggerType]EventType{
	react.TriggerDeploy:    EventUnitDeployed,
	react.TriggerDeath:     EventUnitDied,
	react.TriggerTurnStart: EventTurnChanged,
	react.TriggerPlayCard:  EventCardPlayed,
	react.TriggerConsume:   EventUnitConsumed,
	react.TriggerConquer:   EventConquerTriggered,
}

// ReactionTrait runs declarative effects when one of its triggers fires.
type ReactionTrait struct {
	BaseTrait
	config  react.ReactionConfig
	limiter *rules.Limiter
	regs    registrations
	ability *ActivatedAbility
}

// NewReactionTrait validates cfg and builds the trait.
func NewReactionTrait(cfg react.ReactionConfig) (*ReactionTrait, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &ReactionTrait{BaseTrait: BaseTrait{kind: "reaction"}, config: cfg}
	if cfg.Limit != nil {
		scope, err := rules.ParseLimitScope(cfg.Limit.Scope)
		if err != nil {
			return nil, err
		}
		t.limiter = rules.NewLimiter(scope, cfg.Limit.Max)
	}
	return t, nil
}

// Config returns the reaction declaration.
func (t *ReactionTrait) Config() react.ReactionConfig { return t.config }

func (t *ReactionTrait) OnAttach(owner *UnitCard) {
	t.BaseTrait.OnAttach(owner)
	for _, trig := range t.config.Triggers {
		if trig.Type == react.TriggerActivate {
			t.ability = NewActivatedAbility("reaction", trig.Cooldown, func(*UnitCard) error {
				return t.run(t.owner.engine, &reactionContext{owner: t.owner, trigger: t.owner})
			})
		}
	}
}

// ActivatedAbility is non-nil when the reaction declares an Activate
// trigger.
func (t *ReactionTrait) ActivatedAbility() *ActivatedAbility { return t.ability }

func (t *ReactionTrait) OnDeploy() {
	t.registerEventTriggers()
	t.fireLifecycle(react.TriggerOnDeploy, Event{
		Type:     EventUnitDeployed,
		PlayerID: t.owner.owner,
		UnitID:   t.owner.id,
		Slot:     t.owner.slotRef(),
		Power:    t.owner.Power(),
	}, t.owner)
}

func (t *ReactionTrait) OnDeath() {
	t.fireLifecycle(react.TriggerOnDeath, Event{
		Type:     EventUnitDied,
		PlayerID: t.owner.owner,
		UnitID:   t.owner.id,
		Slot:     slotRef(Slot(t.owner.position(), t.owner.owner)),
		Power:    t.owner.lastPower,
	}, t.owner)
}

func (t *ReactionTrait) OnLeave() {
	t.regs.release(t.owner.engine)
}

func (t *ReactionTrait) OnConquer() {
	t.fireLifecycle(react.TriggerOnConquer, Event{
		Type:     EventConquerTriggered,
		PlayerID: t.owner.owner,
		UnitID:   t.owner.id,
		Slot:     t.owner.slotRef(),
	}, t.owner)
}

func (t *ReactionTrait) OnConsume(victim *UnitCard) {
	t.fireLifecycle(react.TriggerOnConsume, Event{
		Type:     EventUnitConsumed,
		PlayerID: t.owner.owner,
		UnitID:   victim.id,
		SourceID: t.owner.id,
		Slot:     t.owner.slotRef(),
		Power:    victim.lastPower,
	}, victim)
}

func (t *ReactionTrait) OnConsumed(consumer *UnitCard) {
	t.fireLifecycle(react.TriggerOnConsumed, Event{
		Type:     EventUnitConsumed,
		PlayerID: consumer.owner,
		UnitID:   t.owner.id,
		SourceID: consumer.id,
		Slot:     consumer.slotRef(),
		Power:    t.owner.lastPower,
	}, consumer)
}

func (t *ReactionTrait) OnTurnStart() {
	t.fireLifecycle(react.TriggerOnTurnStart, Event{
		Type:     EventTurnChanged,
		PlayerID: t.owner.owner,
		UnitID:   t.owner.id,
	}, t.owner)
}

func (t *ReactionTrait) Detach() {
	t.regs.release(t.owner.engine)
}

func (t *ReactionTrait) fireLifecycle(kind react.TriggerType, ev Event, trigger *UnitCard) {
	for _, trig := range t.config.Triggers {
		if trig.Type == kind {
			t.schedule(ev, trigger)
			return
		}
	}
}

func (t *ReactionTrait) registerEventTriggers() {
	e := t.owner.engine
	for _, trig := range t.config.Triggers {
		evType, ok := eventTriggers[trig.Type]
		if !ok {
			continue
		}
		id := e.triggers.Register(rules.Trigger[Event]{
			OwnerID:   t.owner.id,
			EventType: string(evType),
			Condition: func(ev Event) bool { return t.matches(trig, ev) },
			Fire: func(ev Event) {
				var trigger *UnitCard
				if u, ok := e.unit(ev.UnitID); ok {
					trigger = u
				}
				t.schedule(ev, trigger)
			},
		})
		t.regs.triggers = append(t.regs.triggers, id)
	}
}

// matches applies a trigger's filters to an event.
func (t *ReactionTrait) matches(trig react.TriggerConfig, ev Event) bool {
	e := t.owner.engine
	if trig.Type == react.TriggerPlayCard {
		if trig.CardType != "" && string(ev.CardType) != trig.CardType {
			return false
		}
		return t.matchesRelationship(trig.Target, ev.PlayerID)
	}
	sel := trig.Target
	if sel == nil {
		return true
	}
	if sel.Type == react.StrategySelf {
		return ev.UnitID == t.owner.id
	}
	if ev.Slot == nil {
		return t.matchesRelationship(sel, ev.PlayerID)
	}

	slotSel := *sel
	slotSel.Entity = react.EntitySlot
	ctx := &reactionContext{owner: t.owner}
	hit := false
	for _, s := range e.resolveSelector(&slotSel, ctx, false) {
		if s.Slot == *ev.Slot {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	if len(sel.Conditions) == 0 {
		return true
	}
	subject, ok := e.unit(ev.UnitID)
	if !ok {
		return false
	}
	return e.evaluateConditions(sel.Conditions, ctx.withIteration(unitTarget(subject)))
}

func (t *ReactionTrait) matchesRelationship(sel *react.TargetSelector, player PlayerID) bool {
	if sel == nil {
		return true
	}
	switch sel.Relationship {
	case react.RelationAlly:
		return player == t.owner.owner
	case react.RelationEnemy:
		return player == t.owner.owner.Opponent()
	}
	return true
}

// schedule pushes a TriggerEffect. Root conditions and the limiter are
// checked when it executes.
func (t *ReactionTrait) schedule(ev Event, trigger *UnitCard) {
	e := t.owner.engine
	evCopy := ev
	ctx := &reactionContext{owner: t.owner, event: &evCopy, trigger: trigger}
	label := fmt.Sprintf("%s:%s", t.owner.definitionID, ev.Type)
	e.Interrupt(NewTriggerEffect(t.owner, label,
		func() bool { return t.ready(e, ctx) },
		func(e *Engine) error { return t.run(e, ctx) },
	))
}

func (t *ReactionTrait) ready(e *Engine, ctx *reactionContext) bool {
	if !t.limiter.Allow(e.game) {
		return false
	}
	return e.evaluateConditions(t.config.Conditions, ctx)
}

func (t *ReactionTrait) run(e *Engine, ctx *reactionContext) error {
	t.limiter.Record(e.game)
	return e.runEffects(t.config.Effects, 0, ctx, nil)
}
