package controller

import (
	"context"
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rng"
	"go.uber.org/zap"
)

// Random plays a uniformly chosen legal action. Each unit is activated at
// most once per turn so a zero cooldown cannot stall the match. Errors
// while deciding fall back to PASS.
type Random struct {
	id        game.PlayerID
	rng       *rng.SeededRNG
	logger    *zap.Logger
	turn      int
	activated map[string]bool
}

// NewRandom creates a random controller seeded independently of the match.
func NewRandom(id game.PlayerID, seed int64, logger *zap.Logger) *Random {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Random{
		id:        id,
		rng:       rng.New(seed),
		logger:    logger,
		turn:      -1,
		activated: make(map[string]bool),
	}
}

func (r *Random) PlayerID() game.PlayerID { return r.id }

func (r *Random) Type() string { return TypeAI }

func (r *Random) OnEvent(ctx context.Context, ev game.Event, port Port) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actionRequired(ev, r.id) {
		return r.act(port)
	}
	if req, ok := inputRequired(ev, r.id); ok && stillPending(port, req) {
		return port.SubmitInput(game.InputResponse{
			PlayerID:  r.id,
			RequestID: req.ID,
			Selected:  r.choose(req),
		})
	}
	return nil
}

func (r *Random) act(port Port) error {
	state := port.State()
	if state.Phase != game.PhaseAwaitingAction || state.CurrentPlayer != r.id {
		return nil
	}
	if state.CurrentTurn != r.turn {
		r.turn = state.CurrentTurn
		clear(r.activated)
	}

	action, reasoning := r.decide(port.LegalActions(r.id))
	if action.Type == game.ActionActivate {
		r.activated[action.UnitID] = true
	}
	if _, err := port.SubmitAction(action, reasoning); err != nil {
		if action.Type == game.ActionPass {
			return err
		}
		r.logger.Warn("random action rejected, passing",
			zap.Int("player", int(r.id)),
			zap.Stringer("action", action),
			zap.Error(err),
		)
		_, err = port.SubmitAction(game.Pass(r.id), fmt.Sprintf("fallback pass: %v", err))
		return err
	}
	return nil
}

// decide picks among every legal non-PASS action, passing when none is
// left.
func (r *Random) decide(legal []game.Action) (game.Action, string) {
	options := make([]game.Action, 0, len(legal))
	for _, a := range legal {
		switch {
		case a.Type == game.ActionPass:
		case a.Type == game.ActionActivate && r.activated[a.UnitID]:
		default:
			options = append(options, a)
		}
	}
	if len(options) == 0 {
		return game.Pass(r.id), "random: nothing left to do"
	}
	pick := options[r.rng.NextInt(0, len(options))]
	return pick, fmt.Sprintf("random: picked 1 of %d", len(options))
}

// choose selects between Min and Max candidates, at least one when any are
// offered.
func (r *Random) choose(req game.InputRequest) []string {
	ids := rng.Shuffle(r.rng, candidateIDs(req))
	n := max(req.Min, 1)
	if req.Max > 0 {
		n = min(n, req.Max)
	}
	return ids[:min(n, len(ids))]
}
