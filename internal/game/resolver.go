package game

import (
	"fmt"
	"sort"

	"github.com/skirmishgg/skirmish-server-go/internal/game/react"
)

// Target is a resolved unit or slot.
type Target struct {
	Unit   *UnitCard
	Slot   SlotCoord
	isSlot bool
	engine *Engine
}

func unitTarget(u *UnitCard) Target {
	t := Target{Unit: u, engine: u.engine}
	if u.OnBoard() {
		t.Slot = Slot(u.terrain, u.owner)
	} else {
		t.Slot = Slot(u.lastTerrain, u.owner)
	}
	return t
}

func slotTarget(e *Engine, s SlotCoord) Target {
	return Target{Unit: e.UnitAt(s), Slot: s, isSlot: true, engine: e}
}

// IsSlot reports whether the target addresses a slot rather than a unit.
func (t Target) IsSlot() bool { return t.isSlot }

// ID is the unit id, or a slot id for slot targets.
func (t Target) ID() string {
	if t.isSlot {
		return fmt.Sprintf("slot:t%d:p%d", t.Slot.Terrain, t.Slot.Player)
	}
	return t.Unit.ID()
}

// Player is the side the target belongs to.
func (t Target) Player() PlayerID {
	if t.isSlot {
		return t.Slot.Player
	}
	return t.Unit.Owner()
}

func (t Target) label() string {
	if t.Unit != nil {
		if t.isSlot {
			return fmt.Sprintf("%s (%s)", t.Unit.Name(), t.Slot)
		}
		return fmt.Sprintf("%s (%d)", t.Unit.Name(), t.Unit.Power())
	}
	return "empty " + t.Slot.String()
}

// Property exposes target values to conditions. Unit targets delegate to
// the unit; slot targets expose the slot itself plus its unit.
func (t Target) Property(name string) (any, bool) {
	if !t.isSlot {
		return t.Unit.Property(name)
	}
	switch name {
	case "occupied":
		return t.Unit != nil, true
	case "modifier":
		return t.engine.terrains[t.Slot.Terrain].Modifier(t.Slot.Player), true
	case "terrainId":
		return t.Slot.Terrain, true
	case "playerId":
		return int(t.Slot.Player), true
	case "power":
		if t.Unit == nil {
			return 0, true
		}
		return t.Unit.Power(), true
	case "unit":
		if t.Unit == nil {
			return nil, true
		}
		return t.Unit, true
	}
	if t.Unit != nil {
		return t.Unit.Property(name)
	}
	return nil, false
}

// reactionContext carries everything a reaction needs while it resolves.
type reactionContext struct {
	owner     *UnitCard
	event     *Event
	trigger   *UnitCard
	iteration *Target
	inherited []Target
}

func (c *reactionContext) withIteration(t Target) *reactionContext {
	cp := *c
	cp.iteration = &t
	return &cp
}

func (c *reactionContext) withInherited(targets []Target) *reactionContext {
	cp := *c
	cp.inherited = targets
	return &cp
}

// anchor is the position relative selectors measure from.
type anchor struct {
	terrain int
	player  PlayerID
}

func unitAnchor(u *UnitCard) (anchor, bool) {
	if u == nil || u.position() < 0 {
		return anchor{}, false
	}
	return anchor{terrain: u.position(), player: u.owner}, true
}

func targetAnchor(t *Target) (anchor, bool) {
	if t == nil {
		return anchor{}, false
	}
	if t.isSlot {
		return anchor{terrain: t.Slot.Terrain, player: t.Slot.Player}, true
	}
	return unitAnchor(t.Unit)
}

// resolveTargets turns a selector into concrete targets. Conditions on the
// selector are applied with each candidate as the subject.
func (e *Engine) resolveTargets(sel *react.TargetSelector, ctx *reactionContext) []Target {
	return e.resolveSelector(sel, ctx, true)
}

func (e *Engine) resolveSelector(sel *react.TargetSelector, ctx *reactionContext, applyConditions bool) []Target {
	if sel == nil {
		return nil
	}
	var out []Target
	switch sel.Type {
	case react.StrategySelf:
		if sel.Entity == react.EntitySlot {
			if a, ok := unitAnchor(ctx.owner); ok {
				out = []Target{slotTarget(e, Slot(a.terrain, a.player))}
			}
		} else {
			out = []Target{unitTarget(ctx.owner)}
		}
	case react.StrategyTrigger:
		if ctx.trigger != nil {
			if sel.Entity == react.EntitySlot {
				if a, ok := unitAnchor(ctx.trigger); ok {
					out = []Target{slotTarget(e, Slot(a.terrain, a.player))}
				}
			} else {
				out = []Target{unitTarget(ctx.trigger)}
			}
		}
	case react.StrategyInherited:
		out = append(out, ctx.inherited...)
	case react.StrategyRelative:
		a, ok := targetAnchor(ctx.iteration)
		if !ok {
			a, ok = unitAnchor(ctx.owner)
		}
		if ok {
			out = e.relativeTargets(sel, ctx, a)
		}
	case react.StrategyRelativeToIteration:
		if a, ok := targetAnchor(ctx.iteration); ok {
			out = e.relativeTargets(sel, ctx, a)
		}
	case react.StrategyRelativeToTrigger:
		if a, ok := unitAnchor(ctx.trigger); ok {
			out = e.relativeTargets(sel, ctx, a)
		}
	}
	if !applyConditions || len(sel.Conditions) == 0 {
		return out
	}
	kept := out[:0:0]
	for _, t := range out {
		subject := ctx.withInherited(nil).withIteration(t)
		if e.evaluateConditions(sel.Conditions, subject) {
			kept = append(kept, t)
		}
	}
	return kept
}

// relativeTargets lists the slots at proximity from a, filtered by the
// relationship to the reaction owner, as units or slots.
func (e *Engine) relativeTargets(sel *react.TargetSelector, ctx *reactionContext, a anchor) []Target {
	var slots []SlotCoord
	switch sel.Proximity {
	case "", react.ProximitySelf:
		slots = []SlotCoord{Slot(a.terrain, a.player)}
	case react.ProximityOpposing:
		slots = []SlotCoord{Slot(a.terrain, a.player.Opponent())}
	case react.ProximityClose:
		slots = []SlotCoord{Slot(a.terrain, a.player.Opponent())}
		for _, adj := range adjacentTerrains(a.terrain) {
			slots = append(slots, Slot(adj, 0), Slot(adj, 1))
		}
	case react.ProximityAdjacent:
		for _, adj := range adjacentTerrains(a.terrain) {
			slots = append(slots, Slot(adj, 0), Slot(adj, 1))
		}
	case react.ProximityAll:
		for t := 0; t < NumTerrains; t++ {
			slots = append(slots, Slot(t, 0), Slot(t, 1))
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Terrain != slots[j].Terrain {
			return slots[i].Terrain < slots[j].Terrain
		}
		return slots[i].Player < slots[j].Player
	})

	var self PlayerID = NoPlayer
	if ctx.owner != nil {
		self = ctx.owner.owner
	}
	var out []Target
	for _, s := range slots {
		switch sel.Relationship {
		case react.RelationAlly:
			if s.Player != self {
				continue
			}
		case react.RelationEnemy:
			if s.Player == self {
				continue
			}
		}
		if sel.Entity == react.EntitySlot {
			out = append(out, slotTarget(e, s))
			continue
		}
		if u := e.UnitAt(s); u != nil {
			out = append(out, unitTarget(u))
		}
	}
	return out
}

// evaluateConditions reports whether every condition holds. Each condition
// tests its own targets when it names some; otherwise the inherited
// targets, the iteration target or the owner, in that order.
func (e *Engine) evaluateConditions(conds []react.Condition, ctx *reactionContext) bool {
	for _, cond := range conds {
		if !e.evaluateCondition(cond, ctx) {
			return false
		}
	}
	return true
}

func (e *Engine) evaluateCondition(cond react.Condition, ctx *reactionContext) bool {
	var subjects []Target
	switch {
	case cond.Target != nil:
		subjects = e.resolveTargets(cond.Target, ctx)
	case len(ctx.inherited) > 0:
		subjects = ctx.inherited
	case ctx.iteration != nil:
		subjects = []Target{*ctx.iteration}
	case ctx.owner != nil:
		subjects = []Target{unitTarget(ctx.owner)}
	}
	if len(subjects) == 0 {
		return false
	}
	expected := e.resolveValue(&cond.Value, ctx)
	for _, s := range subjects {
		if !react.Compare(cond.Operator, react.Lookup(s, cond.Path), expected) {
			return false
		}
	}
	return true
}

// resolveValue evaluates a value selector.
func (e *Engine) resolveValue(v *react.ValueSelector, ctx *reactionContext) any {
	if v == nil {
		return nil
	}
	switch v.Type {
	case react.ValueStatic, "":
		return v.Value
	case react.ValueMe:
		if ctx.owner == nil {
			return nil
		}
		return react.Lookup(ctx.owner, fmt.Sprint(v.Value))
	case react.ValueEvent:
		if ctx.event == nil {
			return nil
		}
		return react.Lookup(*ctx.event, fmt.Sprint(v.Value))
	case react.ValueTarget:
		var targets []Target
		switch {
		case v.Target != nil:
			targets = e.resolveTargets(v.Target, ctx)
		case len(ctx.inherited) > 0:
			targets = ctx.inherited
		case ctx.iteration != nil:
			targets = []Target{*ctx.iteration}
		}
		return aggregate(targets, fmt.Sprint(v.Value))
	}
	return nil
}

// aggregate sums numeric values; otherwise it returns the first non-nil
// value, or zero.
func aggregate(targets []Target, path string) any {
	var (
		sum      float64
		numeric  = true
		firstVal any
		found    bool
	)
	for _, t := range targets {
		val := react.Lookup(t, path)
		if val == nil {
			continue
		}
		if !found {
			firstVal, found = val, true
		}
		if _, isBool := val.(bool); isBool {
			numeric = false
			continue
		}
		n, ok := react.ToNumber(val)
		if !ok {
			numeric = false
			continue
		}
		sum += n
	}
	switch {
	case !found:
		return 0
	case numeric:
		return int(sum)
	default:
		return firstVal
	}
}
