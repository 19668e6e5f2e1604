// Package game is the deterministic Skirmish engine. An Engine owns one
// match: it turns player actions into effects on a LIFO stack, resolves
// them, and reports every state change as an Event.
package game

import (
	"errors"
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rng"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Config describes a match. Decks hold card definition ids; Leaders hold
// leader definition ids (empty means no leader).
type Config struct {
	Seed               int64
	Decks              [NumPlayers][]string
	Leaders            [NumPlayers]string
	MaxStackIterations int
}

// UnitFilter selects units by side relative to a player.
type UnitFilter int

const (
	FilterAny UnitFilter = iota
	FilterAlly
	FilterEnemy
)

// Engine runs a single match. It is not safe for concurrent use.
type Engine struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	cfg     Config
	rng     *rng.SeededRNG

	game     *Game
	players  [NumPlayers]*Player
	terrains [NumTerrains]*Terrain
	cards    map[string]Card

	stack    *rules.Stack[Effect]
	triggers *rules.TriggerManager[Event]
	rules    *RuleManager
	checker  *StateChecker
	hasher   *StateHasher
	events   *rules.Bus[Event]
	actions  *rules.Bus[ActionRecord]

	phase    Phase
	pending  *pendingInput
	inputSeq int
	started  bool
	busy    bool
	fatal   error
}

// NewEngine builds a match from cfg. Card instances are created and the
// decks shuffled from the seeded RNG, so two engines with the same config
// are identical.
func NewEngine(cfg Config, cat *catalog.Catalog, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	if cfg.MaxStackIterations <= 0 {
		cfg.MaxStackIterations = DefaultMaxStackIterations
	}

	e := &Engine{
		logger:   logger,
		catalog:  cat,
		cfg:      cfg,
		rng:      rng.New(cfg.Seed),
		cards:    make(map[string]Card),
		stack:    rules.NewStack[Effect](),
		triggers: rules.NewTriggerManager[Event](),
		rules:    NewRuleManager(),
		checker:  &StateChecker{},
		hasher:   NewStateHasher(),
		events:   rules.NewBus[Event]("events", logger),
		actions:  rules.NewBus[ActionRecord]("actions", logger),
		phase:    PhaseSetup,
	}
	for i := range e.terrains {
		e.terrains[i] = newTerrain(i)
	}

	var decks [NumPlayers][]Card
	for p := PlayerID(0); p < NumPlayers; p++ {
		for _, defID := range cfg.Decks[p] {
			c, err := e.CreateCard(defID, p)
			if err != nil {
				return nil, fmt.Errorf("player %d deck: %w", p, err)
			}
			decks[p] = append(decks[p], c)
		}
	}
	for p := PlayerID(0); p < NumPlayers; p++ {
		e.players[p] = newPlayer(e, p, rng.Shuffle(e.rng, decks[p]))
		if id := cfg.Leaders[p]; id != "" {
			def, err := cat.Leader(id)
			if err != nil {
				return nil, fmt.Errorf("player %d: %w", p, err)
			}
			e.players[p].leader = newLeader(e, p, def)
		}
	}

	first := PlayerID(1)
	if e.rng.Next() < 0.5 {
		first = 0
	}
	e.game = newGame(first)
	return e, nil
}

// Start opens the first skirmish and runs until the first decision.
func (e *Engine) Start() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if e.started {
		return errors.New("match already started")
	}
	e.started = true
	e.logger.Info("match starting",
		zap.Int64("seed", e.cfg.Seed),
		zap.Int("first_player", int(e.game.CurrentPlayer())),
	)
	e.Interrupt(&StartSkirmishEffect{})
	if err := e.drain(); err != nil {
		return err
	}
	return e.settle()
}

// SubmitAction validates and applies a player action and returns the
// resulting state.
func (e *Engine) SubmitAction(action Action, reasoning string) (GameState, error) {
	if err := e.enter(); err != nil {
		return GameState{}, err
	}
	defer e.leave()
	if !e.started {
		return e.State(), ErrNotStarted
	}
	err := e.processAction(action, reasoning)
	return e.State(), err
}

// SubmitInput answers the pending input request and resumes processing.
func (e *Engine) SubmitInput(resp InputResponse) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if e.pending == nil {
		return ErrNoPendingInput
	}
	req := e.pending.request
	if err := validateSelection(req, resp); err != nil {
		e.logger.Warn("input rejected",
			zap.String("request_id", req.ID),
			zap.Int("player", int(resp.PlayerID)),
			zap.Error(err),
		)
		return err
	}
	if resp.RequestID == "" {
		resp.RequestID = req.ID
	}

	checksum := e.Checksum()
	resume := e.pending.resume
	e.pending = nil
	e.actions.Publish(ActionRecord{
		Action:   Action{Type: ActionInput, PlayerID: resp.PlayerID},
		Input:    &resp,
		Checksum: checksum,
	})
	e.Interrupt(&continuationEffect{resume: resume, response: resp})
	if err := e.drain(); err != nil {
		return err
	}
	return e.settle()
}

func (e *Engine) enter() error {
	if e.busy {
		return ErrEngineBusy
	}
	if e.fatal != nil {
		return fmt.Errorf("%w: %v", ErrMatchAborted, e.fatal)
	}
	e.busy = true
	return nil
}

func (e *Engine) leave() {
	e.busy = false
}

func (e *Engine) processAction(action Action, reasoning string) error {
	if e.pending != nil {
		return &IllegalActionError{Action: action, Reason: "input pending"}
	}
	if result := e.CheckAction(action); !result.Legal {
		e.logger.Warn("illegal action",
			zap.String("action", action.String()),
			zap.String("reason", result.String()),
		)
		return &IllegalActionError{Action: action, Reason: result.String()}
	}

	e.actions.Publish(ActionRecord{Action: action, Checksum: e.Checksum(), Reasoning: reasoning})
	e.logger.Debug("action accepted",
		zap.String("action", action.String()),
		zap.Int("turn", e.game.CurrentTurn()),
	)

	var eff Effect
	switch action.Type {
	case ActionPlayCard:
		eff = &PlayCardEffect{PlayerID: action.PlayerID, CardID: action.CardID, Target: action.TargetSlot}
	case ActionActivate:
		eff = &ActivateEffect{PlayerID: action.PlayerID, UnitID: action.UnitID}
	case ActionPass:
		eff = &PassEffect{PlayerID: action.PlayerID}
	case ActionActivateLeader:
		eff = &ActivateLeaderEffect{PlayerID: action.PlayerID}
	}
	e.Interrupt(eff)
	if err := e.drain(); err != nil {
		return err
	}
	return e.settle()
}

// drain pops and executes effects until the stack is empty or input is
// requested. The state checker runs after every effect.
func (e *Engine) drain() error {
	e.phase = PhaseProcessing
	for i := 0; ; i++ {
		if e.pending != nil || e.stack.IsEmpty() {
			return nil
		}
		if i >= e.cfg.MaxStackIterations {
			e.abort(ErrEffectStackOverflow)
			return ErrEffectStackOverflow
		}
		eff, err := e.stack.Pop()
		if err != nil {
			return err
		}
		e.logger.Debug("executing effect",
			zap.String("effect", eff.Name()),
			zap.Int("stack_size", e.stack.Len()),
		)
		if err := eff.Execute(e); err != nil {
			wrapped := fmt.Errorf("effect %s: %w", eff.Name(), err)
			e.abort(wrapped)
			return wrapped
		}
		e.checker.CheckStateConditions(e)
	}
}

func (e *Engine) abort(err error) {
	e.fatal = err
	e.phase = PhaseAborted
	e.pending = nil
	e.stack.Clear()
	e.logger.Error("match aborted", zap.Error(err))
}

// settle runs once the stack is idle: it publishes a snapshot and works out
// who has to act next.
func (e *Engine) settle() error {
	if e.pending != nil {
		e.phase = PhaseAwaitingInput
		return nil
	}
	state := e.State()
	e.emit(Event{Type: EventStateSnapshot, State: &state})
	return e.checkForRequiredActions()
}

func (e *Engine) checkForRequiredActions() error {
	if e.game.MatchEnded() {
		e.phase = PhaseMatchEnded
		return nil
	}
	current := e.game.CurrentPlayer()
	legal := e.LegalActions(current)
	if len(legal) == 1 && legal[0].Type == ActionPass && !e.players[current].actedThisTurn {
		e.logger.Debug("auto pass", zap.Int("player", int(current)))
		return e.processAction(Pass(current), "auto-pass: no other legal action")
	}
	e.phase = PhaseAwaitingAction
	e.emit(Event{Type: EventActionRequired, PlayerID: current})
	return nil
}

// Interrupt pushes an effect so that it runs next.
func (e *Engine) Interrupt(eff Effect) {
	if eff != nil {
		e.stack.Push(eff)
	}
}

// Sequence pushes effects so that they run in the given order before
// anything already queued.
func (e *Engine) Sequence(effs ...Effect) {
	if len(effs) > 0 {
		e.stack.PushSequence(effs)
	}
}

// emit delivers an event to the reaction triggers first, then to
// subscribers.
func (e *Engine) emit(ev Event) {
	if ev.Turn == 0 {
		ev.Turn = e.game.CurrentTurn()
	}
	if ev.Skirmish == 0 {
		ev.Skirmish = e.game.CurrentSkirmish()
	}
	e.triggers.Handle(string(ev.Type), ev)
	e.events.Publish(ev)
}

// OnEvent subscribes to every event. The returned func unsubscribes.
func (e *Engine) OnEvent(fn func(Event)) func() {
	return e.events.Subscribe(func(ev Event) error {
		fn(ev)
		return nil
	})
}

// OnAction subscribes to accepted actions and inputs.
func (e *Engine) OnAction(fn func(ActionRecord)) func() {
	return e.actions.Subscribe(func(rec ActionRecord) error {
		fn(rec)
		return nil
	})
}

// releaseRegistrations drops anything still registered for owner. Traits
// release their own registrations first; leftovers indicate a leak.
func (e *Engine) releaseRegistrations(owner string) {
	n := e.rules.UnregisterOwner(owner) + e.triggers.UnregisterOwner(owner)
	if n > 0 {
		e.logger.Warn("released dangling registrations",
			zap.String("owner", owner),
			zap.Int("count", n),
		)
	}
}

// Phase returns the engine phase.
func (e *Engine) Phase() Phase { return e.phase }

// Err returns the fatal error that aborted the match, if any.
func (e *Engine) Err() error { return e.fatal }

// Game returns the match counters.
func (e *Engine) Game() *Game { return e.game }

// Player returns a seat.
func (e *Engine) Player(p PlayerID) *Player { return e.players[p] }

// Terrain returns a lane.
func (e *Engine) Terrain(t int) *Terrain { return e.terrains[t] }

// Rules returns the rule manager.
func (e *Engine) Rules() *RuleManager { return e.rules }

// Triggers returns the reaction trigger registry.
func (e *Engine) Triggers() *rules.TriggerManager[Event] { return e.triggers }

// Catalog returns the catalog cards are built from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Seed returns the RNG seed of the match.
func (e *Engine) Seed() int64 { return e.cfg.Seed }

// Card looks up any card instance of the match by id.
func (e *Engine) Card(id string) (Card, bool) {
	c, ok := e.cards[id]
	return c, ok
}

func (e *Engine) unit(id string) (*UnitCard, bool) {
	u, ok := e.cards[id].(*UnitCard)
	return u, ok
}

// UnitAt returns the unit in a slot, or nil.
func (e *Engine) UnitAt(s SlotCoord) *UnitCard {
	if !s.Valid() {
		return nil
	}
	return e.terrains[s.Terrain].Unit(s.Player)
}

// UnitInFront returns the enemy unit facing owner on terrain.
func (e *Engine) UnitInFront(terrain int, owner PlayerID) *UnitCard {
	return e.UnitAt(Slot(terrain, owner.Opponent()))
}

// CloseUnits returns the unit in front plus every unit on the adjacent
// terrains, filtered by side relative to owner.
func (e *Engine) CloseUnits(terrain int, owner PlayerID, filter UnitFilter) []*UnitCard {
	if terrain < 0 || terrain >= NumTerrains {
		return nil
	}
	slots := []SlotCoord{Slot(terrain, owner.Opponent())}
	for _, adj := range adjacentTerrains(terrain) {
		slots = append(slots, Slot(adj, 0), Slot(adj, 1))
	}
	var out []*UnitCard
	for _, s := range slots {
		u := e.UnitAt(s)
		if u == nil {
			continue
		}
		switch filter {
		case FilterAlly:
			if u.Owner() != owner {
				continue
			}
		case FilterEnemy:
			if u.Owner() == owner {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

// CalculateTerrainWinner compares the two slots of a lane. The higher
// power wins, a lone unit wins, ties and empty lanes have no winner; the
// DETERMINE_TERRAIN_WINNER chain has the last word.
func (e *Engine) CalculateTerrainWinner(terrain int) PlayerID {
	ctx := TerrainContext{Terrain: terrain}
	for p := PlayerID(0); p < NumPlayers; p++ {
		if u := e.terrains[terrain].Unit(p); u != nil {
			ctx.Present[p] = true
			ctx.Power[p] = u.Power()
		}
	}
	base := NoPlayer
	switch {
	case ctx.Present[0] && ctx.Present[1]:
		if ctx.Power[0] > ctx.Power[1] {
			base = 0
		} else if ctx.Power[1] > ctx.Power[0] {
			base = 1
		}
	case ctx.Present[0]:
		base = 0
	case ctx.Present[1]:
		base = 1
	}
	return e.rules.TerrainWinner(ctx, base)
}

// AddSlotModifier changes a slot modifier by delta.
func (e *Engine) AddSlotModifier(s SlotCoord, delta int) {
	if !s.Valid() || delta == 0 {
		return
	}
	e.SetSlotModifier(s, e.terrains[s.Terrain].Modifier(s.Player)+delta)
}

// SetSlotModifier replaces a slot modifier.
func (e *Engine) SetSlotModifier(s SlotCoord, value int) {
	if !s.Valid() {
		return
	}
	t := e.terrains[s.Terrain]
	before := t.Modifier(s.Player)
	if before == value {
		return
	}
	t.setModifier(s.Player, value)
	e.emit(Event{
		Type:     EventSlotModifierChanged,
		PlayerID: s.Player,
		Slot:     slotRef(s),
		Amount:   value - before,
		Value:    value,
	})
}

// unitsOf returns a player's board units, left to right.
func (e *Engine) unitsOf(p PlayerID) []*UnitCard {
	var out []*UnitCard
	for _, t := range e.terrains {
		if u := t.Unit(p); u != nil {
			out = append(out, u)
		}
	}
	return out
}

// boardUnits returns every board unit, left to right, player 0 first per
// lane.
func (e *Engine) boardUnits() []*UnitCard {
	var out []*UnitCard
	for _, t := range e.terrains {
		for p := PlayerID(0); p < NumPlayers; p++ {
			if u := t.Unit(p); u != nil {
				out = append(out, u)
			}
		}
	}
	return out
}

func (e *Engine) matchResult() (PlayerID, bool) {
	won := [2]int{e.players[0].skirmishesWon, e.players[1].skirmishesWon}
	ties := e.game.TieSkirmishes()
	switch {
	case won[0] >= SkirmishesToWin:
		return 0, true
	case won[1] >= SkirmishesToWin:
		return 1, true
	case ties >= 1 && won[0] >= 1 && won[1] >= 1:
		// One win each plus a tie is a draw whichever seat won first.
		return NoPlayer, true
	case ties >= 1 && won[0] >= 1:
		return 0, true
	case ties >= 1 && won[1] >= 1:
		return 1, true
	case ties >= 2:
		return NoPlayer, true
	}
	return NoPlayer, false
}
