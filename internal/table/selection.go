package table

// Selection is an ordered set of records. Membership uses ==, so a fresh
// copy of a record with identical fields counts as the same record.
type Selection[T comparable] struct {
	items []T
}

// Contains reports whether an equal record is selected.
func (s *Selection[T]) Contains(item T) bool {
	return s.indexOf(item) >= 0
}

// Toggle removes an equal record if present, otherwise appends item, and
// returns a copy of the resulting set.
func (s *Selection[T]) Toggle(item T) []T {
	if i := s.indexOf(item); i >= 0 {
		next := make([]T, 0, len(s.items)-1)
		next = append(next, s.items[:i]...)
		next = append(next, s.items[i+1:]...)
		s.items = next
	} else {
		s.items = append(s.Items(), item)
	}
	return s.Items()
}

// Clear empties the set.
func (s *Selection[T]) Clear() {
	s.items = nil
}

// Items returns a copy of the selected records in selection order.
func (s *Selection[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// First returns the earliest selected record still in the set.
func (s *Selection[T]) First() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[0], true
}

// Len returns the number of selected records.
func (s *Selection[T]) Len() int {
	return len(s.items)
}

func (s *Selection[T]) indexOf(item T) int {
	for i, v := range s.items {
		if v == item {
			return i
		}
	}
	return -1
}
