package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/skirmishgg/skirmish-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartDealsOpeningHands(t *testing.T) {
	e := newTestEngine(t, 7)

	assert.Equal(t, PhaseAwaitingAction, e.Phase())
	assert.Equal(t, 1, e.Game().CurrentSkirmish())
	for p := PlayerID(0); p < NumPlayers; p++ {
		assert.Equal(t, InitialHandSize, e.Player(p).HandSize())
		assert.Equal(t, 20-InitialHandSize, e.Player(p).DeckSize())
		assert.False(t, e.Player(p).IsDone())
	}
}

func TestStartTwiceFails(t *testing.T) {
	e := newTestEngine(t, 7)
	require.Error(t, e.Start())
}

func TestSubmitBeforeStart(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = e.SubmitAction(Pass(0), "")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestNewEngineRejectsUnknownCards(t *testing.T) {
	_, err := NewEngine(Config{Decks: [NumPlayers][]string{{"ghost"}, nil}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = NewEngine(Config{Leaders: [NumPlayers]string{"ghost", ""}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownLeader)
}

func TestSameSeedSameMatch(t *testing.T) {
	cfg := Config{
		Seed:    99,
		Decks:   [NumPlayers][]string{repeatCard("archer", 10), repeatCard("scout", 10)},
		Leaders: [NumPlayers]string{"sage", "warlord"},
	}
	a := newStartedEngine(t, cfg)
	b := newStartedEngine(t, cfg)

	assert.Equal(t, a.Checksum(), b.Checksum())
	assert.Equal(t, a.Game().CurrentPlayer(), b.Game().CurrentPlayer())

	sumsA := playOut(t, a, 300, lastAction)
	sumsB := playOut(t, b, 300, lastAction)
	assert.Equal(t, sumsA, sumsB)

	stateA, err := json.Marshal(a.State())
	require.NoError(t, err)
	stateB, err := json.Marshal(b.State())
	require.NoError(t, err)
	assert.JSONEq(t, string(stateA), string(stateB))
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := newTestEngine(t, 1)
	b := newTestEngine(t, 2)
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestMatchPlaysToCompletion(t *testing.T) {
	e := newTestEngine(t, 3)
	playOut(t, e, 500, lastAction)

	require.True(t, e.Game().MatchEnded())
	assert.Equal(t, PhaseMatchEnded, e.Phase())
	assert.Empty(t, e.LegalActions(0))
	assert.Empty(t, e.LegalActions(1))

	st := e.State()
	require.NotNil(t, st.MatchWinner)
	assert.NotEmpty(t, st.SkirmishHistory)

	_, err := e.SubmitAction(Pass(e.Game().CurrentPlayer()), "")
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestArcherAgainstVeteran(t *testing.T) {
	e := newTestEngine(t, 42)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()

	vet := give(t, e, first, "veteran")
	play(t, e, vet, at(0, first))
	require.Equal(t, second, e.Game().CurrentPlayer())

	archer := give(t, e, second, "archer")
	play(t, e, archer, at(0, second))

	veteran := e.UnitAt(Slot(0, first))
	require.NotNil(t, veteran)
	assert.Equal(t, 2, veteran.Power())
	assert.Equal(t, 2, veteran.Damage())
	assert.Equal(t, second, e.CalculateTerrainWinner(0))
}

func TestTurnPassesAfterPlayingACard(t *testing.T) {
	e := newTestEngine(t, 5)
	first := e.Game().CurrentPlayer()
	changes := recordEvents(e, EventPriorityChanged, EventTurnChanged)

	play(t, e, e.Player(first).Hand()[0], at(2, first))

	assert.Equal(t, first.Opponent(), e.Game().CurrentPlayer())
	require.Len(t, *changes, 2)
	assert.Equal(t, EventPriorityChanged, (*changes)[0].Type)
	assert.Equal(t, EventTurnChanged, (*changes)[1].Type)
	assert.Equal(t, first.Opponent(), (*changes)[1].PlayerID)
}

func TestIllegalActions(t *testing.T) {
	e := newTestEngine(t, 11)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()
	card := e.Player(first).Hand()[0]

	tests := []struct {
		name   string
		action Action
	}{
		{"not your turn", Pass(second)},
		{"invalid player", Pass(5)},
		{"card not in hand", PlayCardAt(first, "nope", Slot(0, first))},
		{"unit without target", PlayCard(first, card.ID(), nil)},
		{"enemy slot", PlayCardAt(first, card.ID(), Slot(0, second))},
		{"unknown unit", Activate(first, "nope")},
		{"no leader", ActivateLeader(first)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Checksum()
			_, err := e.SubmitAction(tt.action, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIllegalAction)
			var illegal *IllegalActionError
			require.True(t, errors.As(err, &illegal))
			assert.NotEmpty(t, illegal.Reason)
			assert.Equal(t, before, e.Checksum())
		})
	}
}

func TestLegalActionsListsPassFirst(t *testing.T) {
	e := newTestEngine(t, 13)
	first := e.Game().CurrentPlayer()

	legal := e.LegalActions(first)
	require.NotEmpty(t, legal)
	assert.Equal(t, ActionPass, legal[0].Type)
	// eight veterans, five terrains each
	assert.Len(t, legal, 1+InitialHandSize*NumTerrains)
	for _, a := range legal {
		assert.True(t, e.CheckAction(a).Legal, a.String())
	}
	assert.Empty(t, e.LegalActions(first.Opponent()))
}

func TestAutoPassWhenOnlyPassIsLegal(t *testing.T) {
	e := newTestEngine(t, 17)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()
	e.players[second].hand = nil

	var records []ActionRecord
	e.OnAction(func(rec ActionRecord) { records = append(records, rec) })

	play(t, e, e.Player(first).Hand()[0], at(1, first))

	require.Len(t, records, 2)
	assert.Equal(t, ActionPass, records[1].Type)
	assert.Equal(t, second, records[1].PlayerID)
	assert.Equal(t, "auto-pass: no other legal action", records[1].Reasoning)
	assert.True(t, e.Player(second).IsDone())
	assert.Equal(t, first, e.Game().CurrentPlayer())
	assert.Equal(t, PhaseAwaitingAction, e.Phase())
}

func TestPassingTwiceEndsSkirmish(t *testing.T) {
	e := newTestEngine(t, 19)
	first := e.Game().CurrentPlayer()
	second := first.Opponent()
	ended := recordEvents(e, EventSkirmishEnded)

	vet := give(t, e, first, "veteran")
	play(t, e, vet, at(2, first))
	_, err := e.SubmitAction(Pass(second), "")
	require.NoError(t, err)
	require.True(t, e.Player(second).IsDone())

	// first has not acted in this new turn, so passing ends it as well.
	_, err = e.SubmitAction(Pass(first), "")
	require.NoError(t, err)

	require.Len(t, *ended, 1)
	require.NotNil(t, (*ended)[0].Winner)
	assert.Equal(t, first, *(*ended)[0].Winner)
	assert.Equal(t, 1, (*ended)[0].Scores[first])
	assert.Equal(t, 0, (*ended)[0].Scores[second])
	assert.Equal(t, 2, e.Game().CurrentSkirmish())
	assert.Equal(t, 1, e.Player(first).SkirmishesWon())
	assert.Nil(t, e.UnitAt(Slot(2, first)), "board is cleared between skirmishes")
	assert.Equal(t, InitialHandSize+CardsPerSkirmish, e.Player(first).HandSize())
}

func TestStackOverflowAbortsMatch(t *testing.T) {
	e, err := NewEngine(Config{
		Seed:               1,
		Decks:              [NumPlayers][]string{repeatCard("veteran", 10), repeatCard("veteran", 10)},
		MaxStackIterations: 1,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	err = e.Start()
	require.ErrorIs(t, err, ErrEffectStackOverflow)
	assert.Equal(t, PhaseAborted, e.Phase())
	assert.ErrorIs(t, e.Err(), ErrEffectStackOverflow)

	_, err = e.SubmitAction(Pass(0), "")
	assert.ErrorIs(t, err, ErrMatchAborted)
}

func TestMatchResult(t *testing.T) {
	tests := []struct {
		name   string
		won    [NumPlayers]int
		ties   int
		winner PlayerID
		ended  bool
	}{
		{name: "in progress", won: [NumPlayers]int{1, 0}, winner: NoPlayer},
		{name: "two wins", won: [NumPlayers]int{0, 2}, winner: 1, ended: true},
		{name: "win and tie", won: [NumPlayers]int{1, 0}, ties: 1, winner: 0, ended: true},
		{name: "win each and tie", won: [NumPlayers]int{1, 1}, ties: 1, winner: NoPlayer, ended: true},
		{name: "two ties", ties: 2, winner: NoPlayer, ended: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, 31)
			for p := range tt.won {
				e.players[p].skirmishesWon = tt.won[p]
			}
			e.game.tieSkirmishes = tt.ties

			winner, ended := e.matchResult()
			assert.Equal(t, tt.ended, ended)
			assert.Equal(t, tt.winner, winner)
		})
	}
}

func TestRunawayTriggerChainHitsDefaultCeiling(t *testing.T) {
	e := newTestEngine(t, 29)
	require.Equal(t, DefaultMaxStackIterations, e.cfg.MaxStackIterations)
	first := e.Game().CurrentPlayer()
	vet := give(t, e, first, "veteran")
	unit := vet.(*UnitCard)

	// Every power change of the unit grants it one more power.
	grow := func(Event) {
		e.Interrupt(NewTriggerEffect(unit, "grow", nil, func(*Engine) error {
			unit.AddPower(1)
			return nil
		}))
	}
	e.triggers.Register(rules.Trigger[Event]{
		OwnerID:   unit.ID(),
		EventType: string(EventUnitDeployed),
		Condition: func(ev Event) bool { return ev.UnitID == unit.ID() },
		Fire:      grow,
	})
	e.triggers.Register(rules.Trigger[Event]{
		OwnerID:   unit.ID(),
		EventType: string(EventUnitPowerChanged),
		Condition: func(ev Event) bool { return ev.UnitID == unit.ID() },
		Fire:      grow,
	})

	_, err := e.SubmitAction(PlayCard(first, unit.ID(), at(2, first)), "")
	require.ErrorIs(t, err, ErrEffectStackOverflow)
	assert.Equal(t, PhaseAborted, e.Phase())
	assert.ErrorIs(t, e.Err(), ErrEffectStackOverflow)
	assert.Greater(t, unit.Power(), 4, "the chain ran before the ceiling stopped it")
}

func TestListenerCannotReenter(t *testing.T) {
	e := newTestEngine(t, 23)
	first := e.Game().CurrentPlayer()

	var reentry error
	e.OnEvent(func(ev Event) {
		if ev.Type == EventUnitDeployed && reentry == nil {
			_, reentry = e.SubmitAction(Pass(first), "")
		}
	})
	play(t, e, e.Player(first).Hand()[0], at(0, first))
	assert.ErrorIs(t, reentry, ErrEngineBusy)
}

func TestPowerFloorAndDeath(t *testing.T) {
	e := newTestEngine(t, 29)
	u := place(t, e, 0, "veteran", 3)
	died := recordEvents(e, EventUnitDied)

	dealt := u.DealDamage(10, "")
	assert.Equal(t, 10, dealt)
	assert.Equal(t, 0, u.Power())

	e.checker.CheckStateConditions(e)
	require.NoError(t, e.drain())

	assert.False(t, u.OnBoard())
	assert.Nil(t, e.UnitAt(Slot(3, 0)))
	require.Len(t, *died, 1)
	assert.Equal(t, CauseDeath, (*died)[0].Cause)
	assert.Contains(t, cardIDs(e.Player(0).Graveyard()), u.ID())
}

func TestSnapshotIsDetached(t *testing.T) {
	e := newTestEngine(t, 31)
	u := place(t, e, 1, "veteran", 4)

	st := e.State()
	require.NotNil(t, st.Terrains[4].Slots[1].Unit)
	assert.Equal(t, 4, st.Terrains[4].Slots[1].Unit.Power)

	u.AddPower(3)
	assert.Equal(t, 4, st.Terrains[4].Slots[1].Unit.Power)
	assert.Equal(t, 7, e.State().Terrains[4].Slots[1].Unit.Power)
}

func TestChecksumTracksState(t *testing.T) {
	e := newTestEngine(t, 37)
	before := e.Checksum()
	assert.Len(t, before, checksumLength)

	place(t, e, 0, "veteran", 0)
	assert.NotEqual(t, before, e.Checksum())
}

func TestActionRecordsCarryPreActionChecksum(t *testing.T) {
	e := newTestEngine(t, 41)
	first := e.Game().CurrentPlayer()
	before := e.Checksum()

	var records []ActionRecord
	e.OnAction(func(rec ActionRecord) { records = append(records, rec) })
	_, err := e.SubmitAction(PlayCardAt(first, e.Player(first).Hand()[0].ID(), Slot(0, first)), "opening")
	require.NoError(t, err)

	require.NotEmpty(t, records)
	assert.Equal(t, before, records[0].Checksum)
	assert.Equal(t, "opening", records[0].Reasoning)
}
