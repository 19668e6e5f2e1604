package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func repeatCard(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id
	}
	return out
}

// newTestEngine starts a match where both seats hold nothing but
// veterans, so every test chooses its own cards.
func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	return newStartedEngine(t, Config{
		Seed:  seed,
		Decks: [NumPlayers][]string{repeatCard("veteran", 20), repeatCard("veteran", 20)},
	})
}

func newStartedEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, e.Start())
	return e
}

// give creates a card and puts it into p's hand.
func give(t *testing.T, e *Engine, p PlayerID, defID string) Card {
	t.Helper()
	c, err := e.CreateCard(defID, p)
	require.NoError(t, err)
	e.players[p].AddToHand(c)
	return c
}

// place deploys a fresh unit directly, bypassing turns, and resolves
// whatever it triggered.
func place(t *testing.T, e *Engine, p PlayerID, defID string, terrain int) *UnitCard {
	t.Helper()
	c, err := e.CreateCard(defID, p)
	require.NoError(t, err)
	u, ok := c.(*UnitCard)
	require.True(t, ok, "%s is not a unit", defID)
	require.NoError(t, u.Deploy(terrain))
	require.NoError(t, e.drain())
	return u
}

// play submits a card from the hand and fails the test on error.
func play(t *testing.T, e *Engine, c Card, target *SlotCoord) GameState {
	t.Helper()
	st, err := e.SubmitAction(PlayCard(c.Owner(), c.ID(), target), "")
	require.NoError(t, err)
	return st
}

func at(terrain int, p PlayerID) *SlotCoord {
	s := Slot(terrain, p)
	return &s
}

// recordEvents collects every event of the given types.
func recordEvents(e *Engine, types ...EventType) *[]Event {
	var out []Event
	want := make(map[EventType]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	e.OnEvent(func(ev Event) {
		if len(want) == 0 || want[ev.Type] {
			out = append(out, ev)
		}
	})
	return &out
}

// playOut drives a match with pick, answering every input with the first
// candidates, until it ends or steps run out. It returns the checksum after
// every step.
func playOut(t *testing.T, e *Engine, steps int, pick func([]Action) Action) []string {
	t.Helper()
	var sums []string
	for i := 0; i < steps && !e.Game().MatchEnded(); i++ {
		if req, ok := e.PendingInput(); ok {
			require.NoError(t, e.SubmitInput(InputResponse{
				PlayerID: req.PlayerID,
				Selected: firstCandidates(req),
			}))
			sums = append(sums, e.Checksum())
			continue
		}
		legal := e.LegalActions(e.Game().CurrentPlayer())
		if len(legal) == 0 {
			break
		}
		_, err := e.SubmitAction(pick(legal), "")
		require.NoError(t, err)
		sums = append(sums, e.Checksum())
	}
	return sums
}

func firstCandidates(req InputRequest) []string {
	n := max(req.Min, 1)
	n = min(n, len(req.Candidates))
	out := make([]string, 0, n)
	for _, c := range req.Candidates[:n] {
		out = append(out, c.ID)
	}
	return out
}

func lastAction(legal []Action) Action { return legal[len(legal)-1] }
