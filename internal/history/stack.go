// Package history keeps a bounded, linear undo/redo log.
package history

import "errors"

var (
	// ErrNothingToUndo is returned when the cursor is already at the oldest entry.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when the cursor is already at the newest entry.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxDepth is the number of entries kept when no depth is configured.
const DefaultMaxDepth = 30

// Stack is a single-branch timeline of states. Checkpointing after an undo
// discards every entry ahead of the cursor. Entries are cloned on the way in
// and on the way out, so callers never share memory with stored history.
type Stack[T any] struct {
	entries  []T
	cursor   int
	maxDepth int
	clone    func(T) T
}

// New returns an empty stack holding at most maxDepth entries. A nil clone
// stores values as they are, which is only safe for immutable T.
func New[T any](maxDepth int, clone func(T) T) *Stack[T] {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Stack[T]{cursor: -1, maxDepth: maxDepth, clone: clone}
}

// Checkpoint records state as the newest entry and moves the cursor onto it.
func (s *Stack[T]) Checkpoint(state T) {
	var zero T
	for i := s.cursor + 1; i < len(s.entries); i++ {
		s.entries[i] = zero
	}
	s.entries = append(s.entries[:s.cursor+1], s.clone(state))
	if over := len(s.entries) - s.maxDepth; over > 0 {
		for i := 0; i < over; i++ {
			s.entries[i] = zero
		}
		s.entries = append(s.entries[:0], s.entries[over:]...)
	}
	s.cursor = len(s.entries) - 1
}

// Undo steps the cursor back and returns the entry it lands on.
func (s *Stack[T]) Undo() (T, error) {
	var zero T
	if s.cursor <= 0 {
		return zero, ErrNothingToUndo
	}
	s.cursor--
	return s.clone(s.entries[s.cursor]), nil
}

// Redo steps the cursor forward and returns the entry it lands on.
func (s *Stack[T]) Redo() (T, error) {
	var zero T
	if s.cursor >= len(s.entries)-1 {
		return zero, ErrNothingToRedo
	}
	s.cursor++
	return s.clone(s.entries[s.cursor]), nil
}

// Reset drops every entry.
func (s *Stack[T]) Reset() {
	clear(s.entries)
	s.entries = s.entries[:0]
	s.cursor = -1
}

// Current returns the entry under the cursor.
func (s *Stack[T]) Current() (T, bool) {
	var zero T
	if s.cursor < 0 {
		return zero, false
	}
	return s.clone(s.entries[s.cursor]), true
}

func (s *Stack[T]) CanUndo() bool { return s.cursor > 0 }
func (s *Stack[T]) CanRedo() bool { return s.cursor < len(s.entries)-1 }
func (s *Stack[T]) Len() int      { return len(s.entries) }
func (s *Stack[T]) Cursor() int   { return s.cursor }
func (s *Stack[T]) MaxDepth() int { return s.maxDepth }
