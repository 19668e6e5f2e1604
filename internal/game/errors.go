package game

import (
	"errors"
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
)

var (
	// ErrIllegalAction is wrapped by every IllegalActionError.
	ErrIllegalAction = errors.New("illegal action")
	// ErrNoPendingInput is returned by SubmitInput when nothing is awaited.
	ErrNoPendingInput = errors.New("no input request pending")
	// ErrInputAlreadyPending is returned when a second input request is
	// raised before the first one was answered.
	ErrInputAlreadyPending = errors.New("input request already pending")
	// ErrInvalidInput is returned when a selection does not fit the pending
	// request. The request stays pending.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEffectStackOverflow aborts the match when one drain runs away.
	ErrEffectStackOverflow = errors.New("effect stack exceeded maximum iterations")
	// ErrMatchAborted is returned for every call after a fatal error.
	ErrMatchAborted = errors.New("match aborted")
	// ErrNotStarted is returned when actions arrive before Start.
	ErrNotStarted = errors.New("match not started")
	// ErrEngineBusy is returned when a listener calls back into the engine
	// while it is processing.
	ErrEngineBusy = errors.New("engine is processing")

	ErrUnknownCard   = catalog.ErrUnknownCard
	ErrUnknownTrait  = catalog.ErrUnknownTrait
	ErrUnknownLeader = catalog.ErrUnknownLeader
)

// IllegalActionError describes why an action was rejected.
type IllegalActionError struct {
	Action Action
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s: %s", e.Action, e.Reason)
}

func (e *IllegalActionError) Unwrap() error {
	return ErrIllegalAction
}
