package rules

import (
	"errors"
	"sync"
)

// ErrStackEmpty is returned when popping an empty stack.
var ErrStackEmpty = errors.New("stack empty")

// Stack is a LIFO scheduler. Push places an item on top so it runs next;
// PushSequence places an ordered chain so the first element runs first.
type Stack[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewStack creates an empty stack.
func NewStack[T any]() *Stack[T] {
	return &Stack[T]{
		items: make([]T, 0, 16),
	}
}

// Push adds an item to the top of the stack.
func (s *Stack[T]) Push(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

// PushSequence pushes items so that items[0] ends on top. Execution order is
// therefore items[0], items[1], ...
func (s *Stack[T]) PushSequence(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(items) - 1; i >= 0; i-- {
		s.items = append(s.items, items[i])
	}
}

// Pop removes the top item from the stack.
func (s *Stack[T]) Pop() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.items) == 0 {
		return zero, ErrStackEmpty
	}

	idx := len(s.items) - 1
	item := s.items[idx]
	s.items[idx] = zero
	s.items = s.items[:idx]
	return item, nil
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// List returns a copy of all items (topmost last).
func (s *Stack[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := make([]T, len(s.items))
	copy(cpy, s.items)
	return cpy
}

// Len returns the number of queued items.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsEmpty returns whether the stack is empty.
func (s *Stack[T]) IsEmpty() bool {
	return s.Len() == 0
}

// Clear drops every queued item.
func (s *Stack[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
}
