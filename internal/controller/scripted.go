package controller

import (
	"context"
	"sync"

	"github.com/skirmishgg/skirmish-server-go/internal/game"
)

// Scripted replays queued decisions. An empty action queue passes; an empty
// input queue picks the first Min candidates.
type Scripted struct {
	id game.PlayerID

	mu      sync.Mutex
	actions []game.Action
	inputs  [][]string
	errs    []error
}

// NewScripted creates a scripted controller with the given actions.
func NewScripted(id game.PlayerID, actions ...game.Action) *Scripted {
	return &Scripted{id: id, actions: actions}
}

// QueueAction appends actions to the script.
func (s *Scripted) QueueAction(actions ...game.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, actions...)
}

// QueueInput appends one input selection to the script.
func (s *Scripted) QueueInput(selected ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, selected)
}

// Errors returns the submission errors seen so far.
func (s *Scripted) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func (s *Scripted) PlayerID() game.PlayerID { return s.id }

func (s *Scripted) Type() string { return TypeScripted }

func (s *Scripted) OnEvent(_ context.Context, ev game.Event, port Port) error {
	if actionRequired(ev, s.id) {
		action := s.nextAction()
		_, err := port.SubmitAction(action, "scripted")
		return s.record(err)
	}
	if req, ok := inputRequired(ev, s.id); ok && stillPending(port, req) {
		selected := s.nextInput(req)
		return s.record(port.SubmitInput(game.InputResponse{PlayerID: s.id, RequestID: req.ID, Selected: selected}))
	}
	return nil
}

func (s *Scripted) nextAction() game.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.actions) == 0 {
		return game.Pass(s.id)
	}
	a := s.actions[0]
	s.actions = s.actions[1:]
	return a
}

func (s *Scripted) nextInput(req game.InputRequest) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return candidateIDs(req)[:min(req.Min, len(req.Candidates))]
	}
	sel := s.inputs[0]
	s.inputs = s.inputs[1:]
	return sel
}

func (s *Scripted) record(err error) error {
	if err != nil {
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
	return err
}
