package rules

import (
	"sync"

	"github.com/google/uuid"
)

// Modifier folds one stage of a rule decision. It must be a pure function of
// its inputs: no state mutation, no randomness.
type Modifier[C, R any] func(ctx C, current R) R

type chainEntry[C, R any] struct {
	id    string
	owner string
	fn    Modifier[C, R]
}

// Chain is an ordered list of modifiers for one decision point. Evaluation
// folds modifiers left to right in registration order.
type Chain[C, R any] struct {
	mu      sync.RWMutex
	entries []chainEntry[C, R]
}

// NewChain creates an empty chain.
func NewChain[C, R any]() *Chain[C, R] {
	return &Chain[C, R]{}
}

// Register appends a modifier owned by owner and returns its registration id.
func (c *Chain[C, R]) Register(owner string, fn Modifier[C, R]) string {
	if fn == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.entries = append(c.entries, chainEntry[C, R]{id: id, owner: owner, fn: fn})
	return id
}

// Unregister removes a single registration.
func (c *Chain[C, R]) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].id == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterOwner removes every registration made by owner and returns how
// many were removed.
func (c *Chain[C, R]) UnregisterOwner(owner string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	removed := 0
	for _, entry := range c.entries {
		if entry.owner == owner {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = chainEntry[C, R]{}
	}
	c.entries = kept
	return removed
}

// Evaluate folds all modifiers over initial.
func (c *Chain[C, R]) Evaluate(ctx C, initial R) R {
	c.mu.RLock()
	entries := make([]chainEntry[C, R], len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	result := initial
	for _, entry := range entries {
		result = entry.fn(ctx, result)
	}
	return result
}

// Len returns the number of registrations.
func (c *Chain[C, R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Owners returns the owner of every registration in order.
func (c *Chain[C, R]) Owners() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owners := make([]string, len(c.entries))
	for i, entry := range c.entries {
		owners[i] = entry.owner
	}
	return owners
}
