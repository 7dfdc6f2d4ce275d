package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Stack: generic bounded LIFO
// ---------------------------------------------------------------------------

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackBounds    = errors.New("stack index out of bounds")
)

// Stack is a bounded last-in-first-out container. A limit of zero means
// unbounded. Every operation checks its bounds and returns an explicit
// error instead of panicking; a failed operation leaves the stack
// unchanged.
type Stack[V any] struct {
	items []V
	limit int
}

// NewStack creates a stack with the given element-count ceiling
// (0 = unbounded).
func NewStack[V any](limit int) *Stack[V] {
	return &Stack[V]{limit: limit}
}

// SetLimit changes the element-count ceiling. Lowering the limit below the
// current length does not evict elements; it only blocks further pushes.
func (s *Stack[V]) SetLimit(limit int) {
	s.limit = limit
}

// Limit returns the configured ceiling (0 = unbounded).
func (s *Stack[V]) Limit() int {
	return s.limit
}

// Len returns the number of elements.
func (s *Stack[V]) Len() int {
	return len(s.items)
}

// Push appends v, failing with ErrStackOverflow at the configured limit.
func (s *Stack[V]) Push(v V) error {
	if s.limit > 0 && len(s.items) >= s.limit {
		return fmt.Errorf("%w: limit %d", ErrStackOverflow, s.limit)
	}
	s.items = append(s.items, v)
	return nil
}

// Pop removes and returns the top element.
func (s *Stack[V]) Pop() (V, error) {
	var zero V
	if len(s.items) == 0 {
		return zero, ErrStackUnderflow
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// Peek returns the top element without removing it.
func (s *Stack[V]) Peek() (V, error) {
	var zero V
	if len(s.items) == 0 {
		return zero, ErrStackUnderflow
	}
	return s.items[len(s.items)-1], nil
}

// PeekRef returns a pointer to the top element without removing it. The
// pointer is invalidated by the next push or pop.
func (s *Stack[V]) PeekRef() (*V, error) {
	if len(s.items) == 0 {
		return nil, ErrStackUnderflow
	}
	return &s.items[len(s.items)-1], nil
}

// Get returns the element at index i, counted from the bottom.
func (s *Stack[V]) Get(i int) (V, error) {
	var zero V
	if i < 0 || i >= len(s.items) {
		return zero, fmt.Errorf("%w: index %d, length %d", ErrStackBounds, i, len(s.items))
	}
	return s.items[i], nil
}

// Set overwrites the element at index i, counted from the bottom.
func (s *Stack[V]) Set(i int, v V) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: index %d, length %d", ErrStackBounds, i, len(s.items))
	}
	s.items[i] = v
	return nil
}

// TruncateTo discards elements until exactly n remain. It fails if n
// exceeds the current length.
func (s *Stack[V]) TruncateTo(n int) error {
	if n < 0 || n > len(s.items) {
		return fmt.Errorf("%w: truncate to %d, length %d", ErrStackBounds, n, len(s.items))
	}
	s.items = s.items[:n]
	return nil
}

// Slice returns a copy of the elements in [start, end).
func (s *Stack[V]) Slice(start, end int) ([]V, error) {
	if start < 0 || end < start || end > len(s.items) {
		return nil, fmt.Errorf("%w: [%d, %d), length %d", ErrStackBounds, start, end, len(s.items))
	}
	out := make([]V, end-start)
	copy(out, s.items[start:end])
	return out, nil
}

// SliceRef returns the window [start, end) aliasing the stack's storage.
// The window is invalidated by any operation that reallocates.
func (s *Stack[V]) SliceRef(start, end int) ([]V, error) {
	if start < 0 || end < start || end > len(s.items) {
		return nil, fmt.Errorf("%w: [%d, %d), length %d", ErrStackBounds, start, end, len(s.items))
	}
	return s.items[start:end], nil
}

// Clear discards all elements.
func (s *Stack[V]) Clear() {
	s.items = s.items[:0]
}
