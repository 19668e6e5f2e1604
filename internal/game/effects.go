package game

import (
	"fmt"

	"go.uber.org/zap"
)

// Effect is one unit of work on the effect stack. Effects emit their events
// as they mutate state and are executed at most once.
type Effect interface {
	Name() string
	Execute(e *Engine) error
}

// PlayCardEffect plays a card from hand. The turn ends after every reaction
// the play caused has resolved.
type PlayCardEffect struct {
	PlayerID PlayerID
	CardID   string
	Target   *SlotCoord
}

func (p *PlayCardEffect) Name() string { return "PlayCard" }

func (p *PlayCardEffect) Execute(e *Engine) error {
	e.Interrupt(&TurnEndEffect{})
	return e.players[p.PlayerID].PlayCard(p.CardID, p.Target)
}

// PassEffect passes the turn.
type PassEffect struct {
	PlayerID PlayerID
}

func (p *PassEffect) Name() string { return "Pass" }

func (p *PassEffect) Execute(e *Engine) error {
	e.players[p.PlayerID].Pass()
	e.Interrupt(&TurnEndEffect{})
	return nil
}

// ActivateEffect uses a unit's activated ability. It does not end the turn.
type ActivateEffect struct {
	PlayerID PlayerID
	UnitID   string
}

func (a *ActivateEffect) Name() string { return "Activate" }

func (a *ActivateEffect) Execute(e *Engine) error {
	u, ok := e.unit(a.UnitID)
	if !ok {
		return fmt.Errorf("unit %s not found", a.UnitID)
	}
	e.players[a.PlayerID].MarkActed()
	return u.Activate()
}

// ActivateLeaderEffect spends a leader charge. It does not end the turn.
type ActivateLeaderEffect struct {
	PlayerID PlayerID
}

func (a *ActivateLeaderEffect) Name() string { return "ActivateLeader" }

func (a *ActivateLeaderEffect) Execute(e *Engine) error {
	player := e.players[a.PlayerID]
	if player.leader == nil {
		return fmt.Errorf("player %d has no leader", a.PlayerID)
	}
	player.MarkActed()
	return player.leader.activate()
}

// TurnStartEffect begins the current player's turn.
type TurnStartEffect struct{}

func (TurnStartEffect) Name() string { return "TurnStart" }

func (TurnStartEffect) Execute(e *Engine) error {
	current := e.game.CurrentPlayer()
	units := e.unitsOf(current)
	for _, u := range units {
		u.reduceCooldown()
	}
	e.emit(Event{Type: EventTurnChanged, PlayerID: current})

	hooks := make([]Effect, 0, len(units))
	for _, u := range units {
		hooks = append(hooks, &hookEffect{label: "OnTurnStart", fn: u.notifyTurnStart})
	}
	e.Sequence(hooks...)
	return nil
}

// TurnEndEffect hands the turn over or resolves the skirmish.
type TurnEndEffect struct{}

func (TurnEndEffect) Name() string { return "TurnEnd" }

func (TurnEndEffect) Execute(e *Engine) error {
	current := e.game.CurrentPlayer()
	opponent := current.Opponent()
	e.game.AdvanceTurn()

	switch {
	case e.players[current].done && e.players[opponent].done:
		e.Interrupt(&ResolveSkirmishEffect{})
	case !e.players[opponent].done:
		e.game.SetCurrentPlayer(opponent)
		e.players[opponent].ResetTurnFlags()
		e.emit(Event{Type: EventPriorityChanged, PlayerID: opponent})
		e.Interrupt(&TurnStartEffect{})
	default:
		// The opponent is done; the current player keeps the initiative.
		e.players[current].ResetTurnFlags()
		e.Interrupt(&TurnStartEffect{})
	}
	return nil
}

// StartSkirmishEffect deals cards and opens the next skirmish.
type StartSkirmishEffect struct{}

func (StartSkirmishEffect) Name() string { return "StartSkirmish" }

func (StartSkirmishEffect) Execute(e *Engine) error {
	number := e.game.StartSkirmish()
	draw := CardsPerSkirmish
	if number == 1 {
		draw = InitialHandSize
	}
	for _, p := range e.players {
		p.ResetSkirmishFlags()
		p.Draw(draw)
	}
	for _, t := range e.terrains {
		t.setWinner(NoPlayer)
	}
	e.emit(Event{Type: EventSkirmishStarted, PlayerID: e.game.CurrentPlayer(), Skirmish: number})
	e.logger.Info("skirmish started",
		zap.Int("skirmish", number),
		zap.Int("first_player", int(e.game.CurrentPlayer())),
	)
	e.Interrupt(&TurnStartEffect{})
	return nil
}

// ResolveSkirmishEffect scores the five lanes and schedules Conquer for
// every won lane, left to right, followed by EndSkirmishEffect.
type ResolveSkirmishEffect struct{}

func (ResolveSkirmishEffect) Name() string { return "ResolveSkirmish" }

func (ResolveSkirmishEffect) Execute(e *Engine) error {
	var next []Effect
	for _, t := range e.terrains {
		winner := e.CalculateTerrainWinner(t.ID())
		t.setWinner(winner)
		ev := Event{Type: EventTerrainResolved, PlayerID: winner, Value: t.ID(), Winner: winnerRef(winner)}
		if winner.Valid() {
			e.players[winner].addSP(1)
			ev.Slot = slotRef(Slot(t.ID(), winner))
			if t.Unit(winner) != nil {
				next = append(next, &ConquerEffect{Terrain: t.ID(), PlayerID: winner})
			}
		}
		e.emit(ev)
	}
	next = append(next, &EndSkirmishEffect{})
	e.Sequence(next...)
	return nil
}

// ConquerEffect fires the Conquer hooks of a lane winner.
type ConquerEffect struct {
	Terrain  int
	PlayerID PlayerID
}

func (c *ConquerEffect) Name() string { return "Conquer" }

func (c *ConquerEffect) Execute(e *Engine) error {
	u := e.UnitAt(Slot(c.Terrain, c.PlayerID))
	if u == nil {
		return nil
	}
	e.emit(Event{
		Type:     EventConquerTriggered,
		PlayerID: c.PlayerID,
		UnitID:   u.ID(),
		Slot:     slotRef(Slot(c.Terrain, c.PlayerID)),
	})
	u.notifyConquer()
	return nil
}

// EndSkirmishEffect decides the skirmish and either ends the match or
// clears the board for the next skirmish.
type EndSkirmishEffect struct{}

func (EndSkirmishEffect) Name() string { return "EndSkirmish" }

func (EndSkirmishEffect) Execute(e *Engine) error {
	scores := [2]int{e.players[0].sp, e.players[1].sp}
	winner := NoPlayer
	switch {
	case scores[0] > scores[1]:
		winner = 0
	case scores[1] > scores[0]:
		winner = 1
	}
	if winner.Valid() {
		e.players[winner].incrementSkirmishesWon()
	}
	number := e.game.CurrentSkirmish()
	e.game.EndSkirmish(winner, scores)
	e.emit(Event{
		Type:     EventSkirmishEnded,
		PlayerID: winner,
		Skirmish: number,
		Winner:   winnerRef(winner),
		Scores:   []int{scores[0], scores[1]},
	})
	e.logger.Info("skirmish ended",
		zap.Int("skirmish", number),
		zap.Int("winner", int(winner)),
		zap.Ints("scores", scores[:]),
	)

	if matchWinner, over := e.matchResult(); over {
		e.game.SetWinner(matchWinner)
		e.emit(Event{Type: EventMatchEnded, PlayerID: matchWinner, Winner: winnerRef(matchWinner)})
		e.logger.Info("match ended", zap.Int("winner", int(matchWinner)))
		// Units stay on the board for the final snapshot but release
		// their registrations.
		for _, u := range e.boardUnits() {
			for _, tr := range u.traits {
				tr.OnLeave()
			}
			e.releaseRegistrations(u.ID())
		}
		e.stack.Clear()
		return nil
	}

	for _, u := range e.boardUnits() {
		u.discard()
	}
	for _, t := range e.terrains {
		t.reset()
	}
	e.Interrupt(&StartSkirmishEffect{})
	return nil
}

// ResolveDeathsEffect kills units whose power fell to zero. Each unit is
// rechecked because earlier deaths may have changed the board.
type ResolveDeathsEffect struct {
	Units []*UnitCard
}

func (r *ResolveDeathsEffect) Name() string { return "ResolveDeaths" }

func (r *ResolveDeathsEffect) Execute(_ *Engine) error {
	for _, u := range r.Units {
		if u.OnBoard() && u.Power() <= 0 {
			u.die(CauseDeath)
		}
	}
	return nil
}

// ResolveConsumptionEffect runs the consumed unit's hooks, then the
// consumer's. Each hook is its own step so reactions fire in that order.
type ResolveConsumptionEffect struct {
	Victim   *UnitCard
	Consumer *UnitCard
}

func (r *ResolveConsumptionEffect) Name() string { return "ResolveConsumption" }

func (r *ResolveConsumptionEffect) Execute(e *Engine) error {
	victim, consumer := r.Victim, r.Consumer
	e.Sequence(
		&hookEffect{label: "OnConsumed", fn: func() { victim.notifyConsumed(consumer) }},
		&hookEffect{label: "OnConsume", fn: func() { consumer.notifyConsume(victim) }},
	)
	return nil
}

type hookEffect struct {
	label string
	fn    func()
}

func (h *hookEffect) Name() string { return h.label }

func (h *hookEffect) Execute(_ *Engine) error {
	h.fn()
	return nil
}

// TriggerEffect runs a triggered ability. check, when set, is evaluated at
// execution time; a failed check skips the ability silently.
type TriggerEffect struct {
	Source *UnitCard
	Label  string
	check  func() bool
	run    func(e *Engine) error
}

// NewTriggerEffect builds a trigger effect for source.
func NewTriggerEffect(source *UnitCard, label string, check func() bool, run func(e *Engine) error) *TriggerEffect {
	return &TriggerEffect{Source: source, Label: label, check: check, run: run}
}

func (t *TriggerEffect) Name() string { return "Trigger:" + t.Label }

func (t *TriggerEffect) Execute(e *Engine) error {
	if t.check != nil && !t.check() {
		return nil
	}
	ev := Event{Type: EventAbilityTriggered}
	if t.Source != nil {
		ev.PlayerID = t.Source.Owner()
		ev.UnitID = t.Source.ID()
		ev.CardID = t.Source.DefinitionID()
		if t.Source.position() >= 0 {
			ev.Slot = slotRef(Slot(t.Source.position(), t.Source.Owner()))
		}
	}
	e.emit(ev)
	if t.run == nil {
		return nil
	}
	return t.run(e)
}
