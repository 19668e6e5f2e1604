package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type submitted struct {
	action    game.Action
	reasoning string
}

// fakePort records submissions and rejects the first action when reject
// is set.
type fakePort struct {
	state   game.GameState
	legal   []game.Action
	pending *game.InputRequest
	reject  error
	actions []submitted
	inputs  []game.InputResponse
}

func (f *fakePort) State() game.GameState { return f.state }

func (f *fakePort) LegalActions(game.PlayerID) []game.Action { return f.legal }

func (f *fakePort) PendingInput() (game.InputRequest, bool) {
	if f.pending == nil {
		return game.InputRequest{}, false
	}
	return *f.pending, true
}

func (f *fakePort) SubmitAction(a game.Action, reasoning string) (game.GameState, error) {
	f.actions = append(f.actions, submitted{a, reasoning})
	if f.reject != nil {
		err := f.reject
		f.reject = nil
		return f.state, err
	}
	return f.state, nil
}

func (f *fakePort) SubmitInput(resp game.InputResponse) error {
	f.inputs = append(f.inputs, resp)
	f.pending = nil
	return nil
}

func awaiting(p game.PlayerID) game.GameState {
	return game.GameState{Phase: game.PhaseAwaitingAction, CurrentPlayer: p, CurrentTurn: 1}
}

func targetRequest(p game.PlayerID, min, max int) *game.InputRequest {
	return &game.InputRequest{
		ID:       "req-1",
		PlayerID: p,
		Kind:     game.InputKindTarget,
		Min:      min,
		Max:      max,
		Candidates: []game.InputOption{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		},
	}
}

func TestRandomPassesWithoutOptions(t *testing.T) {
	port := &fakePort{state: awaiting(0), legal: []game.Action{game.Pass(0)}}
	r := NewRandom(0, 7, zap.NewNop())

	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port))
	require.Len(t, port.actions, 1)
	assert.Equal(t, game.ActionPass, port.actions[0].action.Type)
}

func TestRandomPrefersNonPassActions(t *testing.T) {
	legal := []game.Action{game.Pass(1), game.PlayCard(1, "p1_insight_000001", nil), game.Activate(1, "u1")}
	for seed := int64(0); seed < 20; seed++ {
		port := &fakePort{state: awaiting(1), legal: legal}
		r := NewRandom(1, seed, nil)
		require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 1}, port))
		assert.NotEqual(t, game.ActionPass, port.actions[0].action.Type, "seed %d", seed)
	}
}

func TestRandomIsSeeded(t *testing.T) {
	legal := []game.Action{
		game.Pass(0),
		game.PlayCardAt(0, "c1", game.Slot(0, 0)),
		game.PlayCardAt(0, "c1", game.Slot(1, 0)),
		game.PlayCardAt(0, "c1", game.Slot(2, 0)),
		game.PlayCardAt(0, "c1", game.Slot(3, 0)),
	}
	pick := func(seed int64) []game.Action {
		r := NewRandom(0, seed, nil)
		var out []game.Action
		for i := 0; i < 5; i++ {
			port := &fakePort{state: awaiting(0), legal: legal}
			port.state.CurrentTurn = i
			require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port))
			out = append(out, port.actions[0].action)
		}
		return out
	}
	assert.Equal(t, pick(99), pick(99))
}

func TestRandomActivatesOncePerTurn(t *testing.T) {
	legal := []game.Action{game.Pass(0), game.Activate(0, "u1")}
	r := NewRandom(0, 3, nil)
	port := &fakePort{state: awaiting(0), legal: legal}
	ev := game.Event{Type: game.EventActionRequired, PlayerID: 0}

	require.NoError(t, r.OnEvent(context.Background(), ev, port))
	require.NoError(t, r.OnEvent(context.Background(), ev, port))
	require.Len(t, port.actions, 2)
	assert.Equal(t, game.ActionActivate, port.actions[0].action.Type)
	assert.Equal(t, game.ActionPass, port.actions[1].action.Type)

	port.state.CurrentTurn = 2
	require.NoError(t, r.OnEvent(context.Background(), ev, port))
	assert.Equal(t, game.ActionActivate, port.actions[2].action.Type)
}

func TestRandomFallsBackToPass(t *testing.T) {
	port := &fakePort{
		state:  awaiting(0),
		legal:  []game.Action{game.Pass(0), game.PlayCard(0, "x", nil)},
		reject: errors.New("boom"),
	}
	r := NewRandom(0, 1, nil)

	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port))
	require.Len(t, port.actions, 2)
	assert.Equal(t, game.ActionPass, port.actions[1].action.Type)
	assert.Contains(t, port.actions[1].reasoning, "fallback pass")
}

func TestRandomIgnoresOtherSeatsAndStaleEvents(t *testing.T) {
	r := NewRandom(0, 1, nil)
	port := &fakePort{state: awaiting(1), legal: []game.Action{game.Pass(0)}}

	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 1}, port))
	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port))
	assert.Empty(t, port.actions)

	req := targetRequest(0, 1, 1)
	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventInputRequired, PlayerID: 0, Input: req}, port))
	assert.Empty(t, port.inputs, "request no longer pending")
}

func TestRandomAnswersInput(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		want     int
	}{
		{"exactly one", 1, 1, 1},
		{"optional", 0, 2, 1},
		{"two", 2, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := targetRequest(0, tt.min, tt.max)
			port := &fakePort{pending: req}
			r := NewRandom(0, 5, nil)

			require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventInputRequired, PlayerID: 0, Input: req}, port))
			require.Len(t, port.inputs, 1)
			assert.Equal(t, "req-1", port.inputs[0].RequestID)
			assert.Len(t, port.inputs[0].Selected, tt.want)
		})
	}
}

func TestRandomStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	port := &fakePort{state: awaiting(0), legal: []game.Action{game.Pass(0)}}

	err := NewRandom(0, 1, nil).OnEvent(ctx, game.Event{Type: game.EventActionRequired, PlayerID: 0}, port)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, port.actions)
}

func TestScriptedPlaysQueueThenPasses(t *testing.T) {
	s := NewScripted(1, game.PlayCard(1, "c1", nil))
	port := &fakePort{state: awaiting(1)}
	ev := game.Event{Type: game.EventActionRequired, PlayerID: 1}

	require.NoError(t, s.OnEvent(context.Background(), ev, port))
	require.NoError(t, s.OnEvent(context.Background(), ev, port))
	assert.Equal(t, game.ActionPlayCard, port.actions[0].action.Type)
	assert.Equal(t, game.ActionPass, port.actions[1].action.Type)
}

func TestScriptedInputs(t *testing.T) {
	s := NewScripted(0)
	s.QueueInput("c")

	req := targetRequest(0, 1, 1)
	port := &fakePort{pending: req}
	require.NoError(t, s.OnEvent(context.Background(), game.Event{Type: game.EventInputRequired, PlayerID: 0, Input: req}, port))
	assert.Equal(t, []string{"c"}, port.inputs[0].Selected)

	port.pending = req
	require.NoError(t, s.OnEvent(context.Background(), game.Event{Type: game.EventInputRequired, PlayerID: 0, Input: req}, port))
	assert.Equal(t, []string{"a"}, port.inputs[1].Selected)
}

func TestScriptedRecordsErrors(t *testing.T) {
	s := NewScripted(0, game.Pass(0))
	port := &fakePort{reject: game.ErrIllegalAction}

	err := s.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port)
	assert.ErrorIs(t, err, game.ErrIllegalAction)
	assert.Len(t, s.Errors(), 1)
}

func TestRemoteForwardsEvents(t *testing.T) {
	var got []game.EventType
	r := NewRemote(1, func(_ context.Context, ev game.Event) error {
		got = append(got, ev.Type)
		return nil
	})
	port := &fakePort{}

	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 1}, port))
	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventCardDrawn, PlayerID: 0}, port))
	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventActionRequired, PlayerID: 0}, port))
	require.NoError(t, r.OnEvent(context.Background(), game.Event{Type: game.EventInputRequired, PlayerID: 0}, port))
	assert.Equal(t, []game.EventType{game.EventActionRequired, game.EventCardDrawn}, got, "the other seat's prompts are dropped")
	assert.Empty(t, port.actions)
	assert.Equal(t, TypeHuman, r.Type())

	assert.NoError(t, NewRemote(0, nil).OnEvent(context.Background(), game.Event{}, port))
}
