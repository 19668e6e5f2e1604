package controller

import (
	"context"

	"github.com/skirmishgg/skirmish-server-go/internal/game"
)

// Sink receives the events a remote seat should see.
type Sink func(ctx context.Context, ev game.Event) error

// Remote is a seat driven from outside the process. It never decides on its
// own: the transport submits actions through the match, and OnEvent
// forwards events to the attached sink. Prompts addressed to the other seat
// are not forwarded.
type Remote struct {
	id   game.PlayerID
	sink Sink
}

// NewRemote creates a remote seat. sink may be nil until a client joins.
func NewRemote(id game.PlayerID, sink Sink) *Remote {
	return &Remote{id: id, sink: sink}
}

func (r *Remote) PlayerID() game.PlayerID { return r.id }

func (r *Remote) Type() string { return TypeHuman }

func (r *Remote) OnEvent(ctx context.Context, ev game.Event, _ Port) error {
	if r.sink == nil {
		return nil
	}
	if isPrompt(ev.Type) && ev.PlayerID != r.id {
		return nil
	}
	return r.sink(ctx, ev)
}

func isPrompt(t game.EventType) bool {
	return t == game.EventActionRequired || t == game.EventInputRequired
}
