package replication

// SliceShadow remembers the last observed contents of a fixed-size replicated
// array. Scan compares the current value element by element and reports each
// difference once.
type SliceShadow[T comparable] struct {
	last   []T
	primed bool
}

// Scan calls fn(i, prev, next) for every index whose value changed since the
// previous Scan and returns the number of changes. The first Scan compares
// against the zero value, so a freshly spawned empty array reports nothing.
func (s *SliceShadow[T]) Scan(cur []T, fn func(i int, prev, next T)) int {
	if len(s.last) != len(cur) {
		grown := make([]T, len(cur))
		copy(grown, s.last)
		s.last = grown
	}
	s.primed = true
	n := 0
	for i, v := range cur {
		if s.last[i] == v {
			continue
		}
		prev := s.last[i]
		s.last[i] = v
		n++
		if fn != nil {
			fn(i, prev, v)
		}
	}
	return n
}

// Last returns the last observed value at i.
func (s *SliceShadow[T]) Last(i int) (T, bool) {
	var zero T
	if !s.primed || i < 0 || i >= len(s.last) {
		return zero, false
	}
	return s.last[i], true
}

// Reset forgets every observation.
func (s *SliceShadow[T]) Reset() {
	s.last = nil
	s.primed = false
}

// ValueShadow is SliceShadow for a single scalar.
type ValueShadow[T comparable] struct {
	last T
}

// Scan calls fn(prev, next) if cur differs from the last observed value.
func (s *ValueShadow[T]) Scan(cur T, fn func(prev, next T)) bool {
	if s.last == cur {
		return false
	}
	prev := s.last
	s.last = cur
	if fn != nil {
		fn(prev, cur)
	}
	return true
}

func (s *ValueShadow[T]) Last() T { return s.last }
