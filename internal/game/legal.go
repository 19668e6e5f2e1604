package game

import "github.com/skirmishgg/skirmish-server-go/internal/game/rules"

// CheckAction reports whether action may be submitted now.
func (e *Engine) CheckAction(action Action) rules.LegalityResult {
	p := action.PlayerID
	return rules.CheckAll(
		func() rules.LegalityResult {
			if e.game.MatchEnded() {
				return rules.Illegal("match ended")
			}
			if e.fatal != nil {
				return rules.Illegal("match aborted")
			}
			return rules.Legal()
		},
		func() rules.LegalityResult {
			if !p.Valid() {
				return rules.Illegal("unknown player", "player", p)
			}
			if p != e.game.CurrentPlayer() {
				return rules.Illegal("not your turn", "player", p, "current", e.game.CurrentPlayer())
			}
			if e.players[p].done {
				return rules.Illegal("player is done for this skirmish", "player", p)
			}
			return rules.Legal()
		},
		func() rules.LegalityResult {
			switch action.Type {
			case ActionPlayCard:
				return e.checkPlayCard(action)
			case ActionActivate:
				return e.checkActivate(action)
			case ActionPass:
				return rules.Legal()
			case ActionActivateLeader:
				leader := e.players[p].leader
				if leader == nil || !leader.CanActivate() {
					return rules.Illegal("leader cannot activate")
				}
				return rules.Legal()
			default:
				return rules.Illegal("unknown action type", "type", action.Type)
			}
		},
	)
}

func (e *Engine) checkPlayCard(action Action) rules.LegalityResult {
	player := e.players[action.PlayerID]
	if !e.canPlayCard(player) {
		return rules.Illegal("already played a card this turn")
	}
	card, ok := player.FindInHand(action.CardID)
	if !ok {
		return rules.Illegal("card not in hand", "card", action.CardID)
	}
	if !card.NeedsTarget() {
		return rules.Legal()
	}
	if action.TargetSlot == nil {
		return rules.Illegal("target required", "card", action.CardID)
	}
	for _, s := range e.PlayTargets(card) {
		if s == *action.TargetSlot {
			return rules.Legal()
		}
	}
	return rules.Illegal("invalid target", "card", action.CardID, "target", action.TargetSlot)
}

func (e *Engine) checkActivate(action Action) rules.LegalityResult {
	u, ok := e.unit(action.UnitID)
	if !ok {
		return rules.Illegal("unknown unit", "unit", action.UnitID)
	}
	if u.Owner() != action.PlayerID {
		return rules.Illegal("unit belongs to the opponent", "unit", action.UnitID)
	}
	if !u.CanActivate() {
		return rules.Illegal("unit cannot activate", "unit", action.UnitID, "cooldown", u.Cooldown())
	}
	return rules.Legal()
}

func (e *Engine) canPlayCard(p *Player) bool {
	return !p.playedCardThisTurn || e.players[p.id.Opponent()].done
}

// LegalActions enumerates every action player p may submit now. PASS is
// always first when the list is not empty.
func (e *Engine) LegalActions(p PlayerID) []Action {
	if e.game.MatchEnded() || e.fatal != nil || e.pending != nil || !p.Valid() {
		return nil
	}
	player := e.players[p]
	if p != e.game.CurrentPlayer() || player.done {
		return nil
	}

	actions := []Action{Pass(p)}
	if e.canPlayCard(player) {
		for _, c := range player.hand {
			if !c.NeedsTarget() {
				actions = append(actions, PlayCard(p, c.ID(), nil))
				continue
			}
			for _, s := range e.PlayTargets(c) {
				actions = append(actions, PlayCardAt(p, c.ID(), s))
			}
		}
	}
	for _, u := range e.unitsOf(p) {
		if u.CanActivate() {
			actions = append(actions, Activate(p, u.ID()))
		}
	}
	if player.leader != nil && player.leader.CanActivate() {
		actions = append(actions, ActivateLeader(p))
	}
	return actions
}

// PlayTargets returns the slots card may be played on after rules and
// traits had their say.
func (e *Engine) PlayTargets(card Card) []SlotCoord {
	var out []SlotCoord
	for _, s := range card.ValidTargets() {
		switch card.Type() {
		case CardTypeUnit:
			if e.IsDeploymentAllowed(card, s) {
				out = append(out, s)
			}
		default:
			if e.IsTargetingAllowed(card, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// IsDeploymentAllowed decides whether a unit card may enter target. An
// occupied own slot needs CAN_CONSUME; the card's own traits and then the
// CAN_DEPLOY chain refine the answer.
func (e *Engine) IsDeploymentAllowed(card Card, target SlotCoord) bool {
	u, ok := card.(*UnitCard)
	if !ok || !target.Valid() || target.Player != card.Owner() {
		return false
	}
	occupant := e.UnitAt(target)
	allowed := true
	if occupant != nil {
		allowed = e.rules.CanConsume(ConsumeContext{Consumer: card, Victim: occupant}, true)
	}
	for _, t := range u.traits {
		allowed = t.CanDeploy(target, allowed)
	}
	return e.rules.CanDeploy(DeployContext{Card: card, Target: target, Occupant: occupant}, allowed)
}

// IsTargetingAllowed folds CAN_TARGET for source aimed at target.
func (e *Engine) IsTargetingAllowed(source Source, target SlotCoord) bool {
	if !target.Valid() {
		return false
	}
	return e.rules.CanTarget(TargetContext{Source: source, Target: target, Unit: e.UnitAt(target)}, true)
}
