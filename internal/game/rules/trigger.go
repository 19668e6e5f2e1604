package rules

import (
	"sync"

	"github.com/google/uuid"
)

// Trigger reacts to one event type on behalf of an owner (usually a unit on
// the board). Fire is expected to schedule work, not to resolve it inline.
type Trigger[E any] struct {
	ID        string
	OwnerID   string
	EventType string
	Condition func(E) bool
	Fire      func(E)
	Once      bool
}

// TriggerManager stores triggers and evaluates them against events in
// registration order.
type TriggerManager[E any] struct {
	mu       sync.Mutex
	triggers []Trigger[E]
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager[E any]() *TriggerManager[E] {
	return &TriggerManager[E]{}
}

// Register adds a trigger and returns its id.
func (tm *TriggerManager[E]) Register(trigger Trigger[E]) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	tm.triggers = append(tm.triggers, trigger)
	return trigger.ID
}

// Unregister removes a trigger by ID.
func (tm *TriggerManager[E]) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for i := range tm.triggers {
		if tm.triggers[i].ID == id {
			tm.triggers = append(tm.triggers[:i], tm.triggers[i+1:]...)
			return
		}
	}
}

// UnregisterOwner removes every trigger registered for owner.
func (tm *TriggerManager[E]) UnregisterOwner(owner string) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	kept := make([]Trigger[E], 0, len(tm.triggers))
	for _, trigger := range tm.triggers {
		if trigger.OwnerID != owner {
			kept = append(kept, trigger)
		}
	}
	removed := len(tm.triggers) - len(kept)
	tm.triggers = kept
	return removed
}

// Len returns the number of registered triggers.
func (tm *TriggerManager[E]) Len() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.triggers)
}

// CountOwner returns how many triggers owner has registered.
func (tm *TriggerManager[E]) CountOwner(owner string) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	n := 0
	for _, trigger := range tm.triggers {
		if trigger.OwnerID == owner {
			n++
		}
	}
	return n
}

// Handle evaluates the event against all triggers registered for eventType
// and fires the matching ones. It returns how many fired.
func (tm *TriggerManager[E]) Handle(eventType string, event E) int {
	tm.mu.Lock()
	if len(tm.triggers) == 0 {
		tm.mu.Unlock()
		return 0
	}
	matched := make([]Trigger[E], 0, 4)
	kept := tm.triggers[:0:0]
	for _, trigger := range tm.triggers {
		if trigger.EventType == eventType && (trigger.Condition == nil || trigger.Condition(event)) {
			matched = append(matched, trigger)
			if trigger.Once {
				continue
			}
		}
		kept = append(kept, trigger)
	}
	tm.triggers = kept
	tm.mu.Unlock()

	for _, trigger := range matched {
		if trigger.Fire != nil {
			trigger.Fire(event)
		}
	}
	return len(matched)
}
