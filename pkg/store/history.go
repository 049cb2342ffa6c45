package store

import "github.com/aretw0/promptflow/pkg/domain"

// CanUndo reports whether a snapshot is available to undo to.
func (s *Store) CanUndo() bool {
	return len(s.past) > 0
}

// CanRedo reports whether an undone snapshot is available to redo.
func (s *Store) CanRedo() bool {
	return len(s.future) > 0
}

// pushSnapshot records the current graph before a tracked edit. It clears the
// redo stack and evicts the oldest snapshot beyond capacity.
func (s *Store) pushSnapshot() {
	s.past = s.appendBounded(s.past, s.graph)
	s.future = nil
}

func (s *Store) appendBounded(stack []domain.Graph, g domain.Graph) []domain.Graph {
	stack = append(stack, g)
	if over := len(stack) - s.historySize; over > 0 {
		stack = append([]domain.Graph(nil), stack[over:]...)
	}
	return stack
}

// Undo restores the previous snapshot. It is a no-op when there is none.
func (s *Store) Undo() {
	if len(s.past) == 0 {
		return
	}
	prev := s.graph
	last := len(s.past) - 1
	s.graph = s.past[last]
	s.past = s.past[:last:last]
	s.future = append([]domain.Graph{prev}, s.future...)
	s.clearSelection()
	s.Validate()
	s.publish(domain.ChangeUndo, "undo", prev)
}

// Redo re-applies the most recently undone snapshot. It is a no-op when there is none.
func (s *Store) Redo() {
	if len(s.future) == 0 {
		return
	}
	prev := s.graph
	s.graph = s.future[0]
	s.future = s.future[1:]
	s.past = s.appendBounded(s.past, prev)
	s.clearSelection()
	s.Validate()
	s.publish(domain.ChangeRedo, "redo", prev)
}

// Reset returns the store to its initial empty state.
func (s *Store) Reset() {
	prev := s.graph
	s.resetState()
	s.publish(domain.ChangeReset, "reset", prev)
}
