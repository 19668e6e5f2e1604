package game

import (
	"fmt"

	"go.uber.org/zap"
)

// InputKind says what an input request asks for.
type InputKind string

const (
	InputKindTarget InputKind = "TARGET"
	InputKindSlot   InputKind = "SLOT"
)

// InputOption is one selectable candidate.
type InputOption struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	UnitID string     `json:"unitId,omitempty"`
	Slot   *SlotCoord `json:"slot,omitempty"`
}

// InputRequest asks a player to pick between Min and Max candidates.
type InputRequest struct {
	ID         string        `json:"id"`
	PlayerID   PlayerID      `json:"playerId"`
	Kind       InputKind     `json:"kind"`
	Prompt     string        `json:"prompt"`
	Candidates []InputOption `json:"candidates"`
	Min        int           `json:"min"`
	Max        int           `json:"max"`
	SourceID   string        `json:"sourceId,omitempty"`
}

// InputResponse answers the pending request with candidate ids.
type InputResponse struct {
	PlayerID  PlayerID `json:"playerId"`
	RequestID string   `json:"requestId,omitempty"`
	Selected  []string `json:"selected"`
}

type pendingInput struct {
	request InputRequest
	resume  func(InputResponse) error
}

// RequestInput suspends effect processing until SubmitInput answers req.
// resume runs inside an effect once the answer is accepted.
func (e *Engine) RequestInput(req InputRequest, resume func(InputResponse) error) error {
	if e.pending != nil {
		return ErrInputAlreadyPending
	}
	// Ids come from a counter so seeded engines issue the same ids.
	e.inputSeq++
	if req.ID == "" {
		req.ID = fmt.Sprintf("input-%d", e.inputSeq)
	}
	if req.Max < req.Min {
		req.Max = req.Min
	}
	e.pending = &pendingInput{request: req, resume: resume}
	e.phase = PhaseAwaitingInput
	e.logger.Debug("input requested",
		zap.String("request_id", req.ID),
		zap.Int("player", int(req.PlayerID)),
		zap.Int("candidates", len(req.Candidates)),
	)
	copied := req
	e.emit(Event{Type: EventInputRequired, PlayerID: req.PlayerID, SourceID: req.SourceID, Input: &copied})
	return nil
}

// PendingInput returns the outstanding request, if any.
func (e *Engine) PendingInput() (InputRequest, bool) {
	if e.pending == nil {
		return InputRequest{}, false
	}
	return e.pending.request, true
}

func validateSelection(req InputRequest, resp InputResponse) error {
	if resp.PlayerID != req.PlayerID {
		return fmt.Errorf("%w: request belongs to player %d", ErrInvalidInput, req.PlayerID)
	}
	if resp.RequestID != "" && resp.RequestID != req.ID {
		return fmt.Errorf("%w: unknown request %s", ErrInvalidInput, resp.RequestID)
	}
	if len(resp.Selected) < req.Min || len(resp.Selected) > req.Max {
		return fmt.Errorf("%w: expected between %d and %d selections, got %d", ErrInvalidInput, req.Min, req.Max, len(resp.Selected))
	}
	offered := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		offered[c.ID] = true
	}
	seen := make(map[string]bool, len(resp.Selected))
	for _, id := range resp.Selected {
		if !offered[id] {
			return fmt.Errorf("%w: %s was not offered", ErrInvalidInput, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s selected twice", ErrInvalidInput, id)
		}
		seen[id] = true
	}
	return nil
}

// continuationEffect resumes a suspended reaction with the accepted answer.
type continuationEffect struct {
	resume   func(InputResponse) error
	response InputResponse
}

func (c *continuationEffect) Name() string { return "Continuation" }

func (c *continuationEffect) Execute(_ *Engine) error {
	return c.resume(c.response)
}
