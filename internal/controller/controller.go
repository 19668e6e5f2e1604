// Package controller holds the decision makers that sit in a seat: the
// seeded random AI, a scripted controller for tests and a passive remote
// controller for humans connected over a transport.
package controller

import (
	"context"

	"github.com/skirmishgg/skirmish-server-go/internal/game"
)

// Controller types recorded in game logs and match records.
const (
	TypeAI       = "ai"
	TypeScripted = "scripted"
	TypeHuman    = "human"
)

// Port is the narrow view of a match a controller may use. Calls made from
// OnEvent are safe: events are delivered after the engine returned.
type Port interface {
	State() game.GameState
	LegalActions(p game.PlayerID) []game.Action
	PendingInput() (game.InputRequest, bool)
	SubmitAction(action game.Action, reasoning string) (game.GameState, error)
	SubmitInput(resp game.InputResponse) error
}

// Controller decides for one seat.
type Controller interface {
	PlayerID() game.PlayerID
	Type() string
	OnEvent(ctx context.Context, ev game.Event, port Port) error
}

// actionRequired reports whether ev asks seat p to act.
func actionRequired(ev game.Event, p game.PlayerID) bool {
	return ev.Type == game.EventActionRequired && ev.PlayerID == p
}

// inputRequired returns the request ev carries when it is addressed to p.
func inputRequired(ev game.Event, p game.PlayerID) (game.InputRequest, bool) {
	if ev.Type != game.EventInputRequired || ev.PlayerID != p || ev.Input == nil {
		return game.InputRequest{}, false
	}
	return *ev.Input, true
}

// stillPending reports whether req is the request the match is waiting on.
// A stale event must not be answered twice.
func stillPending(port Port, req game.InputRequest) bool {
	cur, ok := port.PendingInput()
	return ok && cur.ID == req.ID
}

func candidateIDs(req game.InputRequest) []string {
	ids := make([]string, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		ids = append(ids, c.ID)
	}
	return ids
}
