package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/game/react"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rng"
)

// runEffects executes defs[i:] in order. Every step hands a continuation to
// the next so a player choice can suspend the chain and resume it later.
func (e *Engine) runEffects(defs []react.EffectDefinition, i int, ctx *reactionContext, done func() error) error {
	if i >= len(defs) {
		if done != nil {
			return done()
		}
		return nil
	}
	def := defs[i]
	var candidates []Target
	if def.Candidates != nil {
		candidates = e.resolveTargets(def.Candidates, ctx)
	} else {
		candidates = ctx.inherited
	}
	return e.selectTargets(def.Selection, ctx, candidates, func(targets []Target) error {
		return e.applyAction(def.Action, targets, ctx, func() error {
			return e.runEffects(defs, i+1, ctx, done)
		})
	})
}

// selectTargets narrows candidates according to sel and passes the result
// to next, possibly after asking the owner.
func (e *Engine) selectTargets(sel *react.SelectionConfig, ctx *reactionContext, candidates []Target, next func([]Target) error) error {
	if sel == nil || len(candidates) == 0 {
		return next(candidates)
	}
	switch sel.Strategy {
	case react.SelectRandom:
		_, maxCount := sel.Bounds()
		shuffled := rng.Shuffle(e.rng, candidates)
		return next(shuffled[:min(maxCount, len(shuffled))])
	case react.SelectPlayer:
		minCount, maxCount := sel.Bounds()
		minCount = min(minCount, len(candidates))
		maxCount = min(maxCount, len(candidates))
		req := InputRequest{
			PlayerID: ctx.owner.Owner(),
			Kind:     InputKindTarget,
			Prompt:   fmt.Sprintf("%s: choose a target", ctx.owner.Name()),
			Min:      minCount,
			Max:      maxCount,
			SourceID: ctx.owner.ID(),
		}
		byID := make(map[string]Target, len(candidates))
		for _, c := range candidates {
			opt := InputOption{ID: c.ID(), Label: c.label()}
			if c.Unit != nil && !c.isSlot {
				opt.UnitID = c.Unit.ID()
			}
			if c.isSlot || c.Unit.OnBoard() {
				opt.Slot = slotRef(c.Slot)
			}
			if c.isSlot {
				req.Kind = InputKindSlot
			}
			req.Candidates = append(req.Candidates, opt)
			byID[c.ID()] = c
		}
		return e.RequestInput(req, func(resp InputResponse) error {
			chosen := make([]Target, 0, len(resp.Selected))
			for _, id := range resp.Selected {
				chosen = append(chosen, byID[id])
			}
			return next(chosen)
		})
	default:
		return next(candidates)
	}
}

// applyAction runs one effect definition's action against targets.
func (e *Engine) applyAction(act react.ActionConfig, targets []Target, ctx *reactionContext, next func() error) error {
	if act.Type == react.ActionSequence {
		if act.Iteration == react.IterateForEach {
			return e.sequenceEach(act, targets, 0, ctx, next)
		}
		return e.runEffects(act.Effects, 0, ctx.withInherited(targets), next)
	}

	switch act.Type {
	case react.ActionMoveUnit:
		e.moveFirst(act, targets, ctx)
	case react.ActionFight:
		for _, t := range targets {
			e.fight(act, t, ctx)
		}
	case react.ActionDeployUnit:
		if err := e.deployToken(act, targets, ctx); err != nil {
			return err
		}
	default:
		var once any
		if act.Iteration != react.IterateForEach {
			once = e.resolveValue(act.Value, ctx)
		}
		for _, t := range targets {
			value := once
			if act.Iteration == react.IterateForEach {
				value = e.resolveValue(act.Value, ctx.withIteration(t))
			}
			e.applyToTarget(act.Type, t, react.ToInt(value), ctx)
		}
	}
	return next()
}

func (e *Engine) sequenceEach(act react.ActionConfig, targets []Target, i int, ctx *reactionContext, next func() error) error {
	if i >= len(targets) {
		return next()
	}
	t := targets[i]
	nested := ctx.withIteration(t).withInherited([]Target{t})
	return e.runEffects(act.Effects, 0, nested, func() error {
		return e.sequenceEach(act, targets, i+1, ctx, next)
	})
}

// applyToTarget applies a simple action. Unit actions skip units that are
// no longer on the board; DrawCards goes to the target's owner.
func (e *Engine) applyToTarget(kind react.ActionType, t Target, n int, ctx *reactionContext) {
	if kind == react.ActionDrawCards {
		e.players[t.Player()].Draw(n)
		return
	}
	if kind == react.ActionModifySlot {
		if t.isSlot || t.Unit.OnBoard() {
			e.AddSlotModifier(t.Slot, n)
		}
		return
	}
	u := t.Unit
	if u == nil || !u.OnBoard() {
		return
	}
	switch kind {
	case react.ActionAddPower:
		u.AddPower(n)
	case react.ActionDealDamage:
		u.DealDamage(n, ctx.owner.ID())
	case react.ActionAddShield:
		u.AddShield(n)
	case react.ActionHeal:
		u.Heal(n)
	case react.ActionSetPower:
		u.SetPower(n)
	case react.ActionKill:
		u.Kill(CauseKill)
	case react.ActionBounce:
		u.Bounce()
	case react.ActionCleanse:
		u.ResetBuffs()
	}
}

// moveFirst moves the first unit target to the first resolved destination
// on its owner's side. An occupied destination is only used with swap.
func (e *Engine) moveFirst(act react.ActionConfig, targets []Target, ctx *reactionContext) {
	var mover *UnitCard
	for _, t := range targets {
		if t.Unit != nil && t.Unit.OnBoard() {
			mover = t.Unit
			break
		}
	}
	if mover == nil || act.ToSlot == nil {
		return
	}
	for _, dest := range e.resolveTargets(act.ToSlot, ctx.withIteration(unitTarget(mover))) {
		if dest.Slot.Player != mover.Owner() || dest.Slot.Terrain == mover.terrain {
			continue
		}
		occupant := e.UnitAt(dest.Slot)
		if occupant == nil {
			mover.MoveTo(dest.Slot.Terrain)
			return
		}
		if act.Swap {
			mover.SwapWith(occupant)
			return
		}
	}
}

// fight makes t and its opponent deal their power to each other. Both
// powers are read before any damage lands.
func (e *Engine) fight(act react.ActionConfig, t Target, ctx *reactionContext) {
	a := t.Unit
	if a == nil || !a.OnBoard() {
		return
	}
	var b *UnitCard
	if act.Opponent != nil {
		for _, o := range e.resolveTargets(act.Opponent, ctx.withIteration(t)) {
			if o.Unit != nil && o.Unit.OnBoard() && o.Unit != a {
				b = o.Unit
				break
			}
		}
	} else if ctx.owner != a && ctx.owner.OnBoard() {
		b = ctx.owner
	}
	if b == nil {
		return
	}
	powerA, powerB := a.Power(), b.Power()
	b.DealDamage(powerA, a.ID())
	a.DealDamage(powerB, b.ID())
}

// deployToken creates the token named by the action value for the owner and
// deploys it to the first allowed slot target.
func (e *Engine) deployToken(act react.ActionConfig, targets []Target, ctx *reactionContext) error {
	id := fmt.Sprint(e.resolveValue(act.Value, ctx))
	for _, t := range targets {
		if t.Slot.Player != ctx.owner.Owner() || !t.Slot.Valid() {
			continue
		}
		card, err := e.CreateCard(id, ctx.owner.Owner())
		if err != nil {
			return err
		}
		token, ok := card.(*UnitCard)
		if !ok {
			return fmt.Errorf("%w: %s is not a unit", ErrUnknownCard, id)
		}
		if !e.IsDeploymentAllowed(token, t.Slot) {
			delete(e.cards, token.ID())
			continue
		}
		return token.Deploy(t.Slot.Terrain)
	}
	return nil
}
