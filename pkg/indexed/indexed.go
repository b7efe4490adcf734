// Package indexed provides a 1-based, auto-growing list that allows holes.
//
// A [List] addresses its elements by position starting at 1. Writing past
// the end pads the gap with holes: empty slots that exist (they count toward
// [List.Len]) but hold no value. A hole is distinct from a present zero value.
//
// # Basic Usage
//
//	var l indexed.List[string]
//	l.Append("a")            // position 1
//	_ = l.Set("d", 4)        // positions 2 and 3 become holes
//	v, ok := l.Get(3)        // "", false
//	_ = l.Insert("b", 2)     // shifts the hole at 2 to 3, "d" to 5
//	l.Pop(1)                 // "b" is now at 1
//
// Reads never fail: out-of-range or hole positions report ok=false. Writers
// reject positions below 1 with [ErrIndex].
//
// A List is not safe for concurrent use.
package indexed

import (
	"errors"
	"fmt"
	"iter"
)

// ErrIndex is returned by writers when the position is below 1.
var ErrIndex = errors.New("indexed: index must be >= 1")

// slot is one position of the backing slice. present=false marks a hole.
type slot[T any] struct {
	value   T
	present bool
}

// List is a 1-based sequence of optional values. The zero value is an empty
// list ready to use.
type List[T any] struct {
	slots []slot[T]
}

// Len returns the number of positions, holes included.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}

	return len(l.slots)
}

// Has reports whether position i exists and holds a value.
func (l *List[T]) Has(i int) bool {
	_, ok := l.Get(i)

	return ok
}

// Get returns the value at position i. ok is false for holes and for
// positions outside 1..Len().
func (l *List[T]) Get(i int) (T, bool) {
	var zero T

	if l == nil || i < 1 || i > len(l.slots) {
		return zero, false
	}

	s := l.slots[i-1]
	if !s.present {
		return zero, false
	}

	return s.value, true
}

// All yields the present values in ascending position order, skipping holes.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if l == nil {
			return
		}

		for idx, s := range l.slots {
			if !s.present {
				continue
			}

			if !yield(idx+1, s.value) {
				return
			}
		}
	}
}

// Present returns the number of positions holding a value.
func (l *List[T]) Present() int {
	n := 0

	for range l.All() {
		n++
	}

	return n
}

// Last returns the highest position holding a value, or 0 if there is none.
func (l *List[T]) Last() int {
	if l == nil {
		return 0
	}

	for i := len(l.slots); i >= 1; i-- {
		if l.slots[i-1].present {
			return i
		}
	}

	return 0
}

// Set stores v at position i, overwriting any value there. If i is past the
// end, the positions in between become holes.
func (l *List[T]) Set(v T, i int) error {
	if i < 1 {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}

	l.grow(i)
	l.slots[i-1] = slot[T]{value: v, present: true}

	return nil
}

// Insert stores v at position i and shifts the values at i and above up by
// one. Inserting at Len()+1 appends; inserting further out pads with holes
// up to i-1 first.
func (l *List[T]) Insert(v T, i int) error {
	if i < 1 {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}

	if i > len(l.slots) {
		return l.Set(v, i)
	}

	l.slots = append(l.slots, slot[T]{})
	copy(l.slots[i:], l.slots[i-1:])
	l.slots[i-1] = slot[T]{value: v, present: true}

	return nil
}

// Append stores v after the last position and returns its position.
func (l *List[T]) Append(v T) int {
	l.slots = append(l.slots, slot[T]{value: v, present: true})

	return len(l.slots)
}

// Pop removes position i, shifting later positions down by one. Returns false
// if i is outside 1..Len().
func (l *List[T]) Pop(i int) bool {
	if l == nil || i < 1 || i > len(l.slots) {
		return false
	}

	last := len(l.slots) - 1
	copy(l.slots[i-1:], l.slots[i:])
	l.slots[last] = slot[T]{}
	l.slots = l.slots[:last]

	return true
}

// Clear turns position i into a hole without shifting. Returns false if i is
// outside 1..Len().
func (l *List[T]) Clear(i int) bool {
	if l == nil || i < 1 || i > len(l.slots) {
		return false
	}

	l.slots[i-1] = slot[T]{}

	return true
}

// Reset removes all positions.
func (l *List[T]) Reset() {
	l.slots = nil
}

// Clone returns a copy of l. Present values are passed through copyFn, which
// may be nil for value types that need no deep copy. Hole positions are kept.
func (l *List[T]) Clone(copyFn func(T) T) List[T] {
	if l == nil || len(l.slots) == 0 {
		return List[T]{}
	}

	out := make([]slot[T], len(l.slots))
	for idx, s := range l.slots {
		if s.present && copyFn != nil {
			s.value = copyFn(s.value)
		}

		out[idx] = s
	}

	return List[T]{slots: out}
}

// EqualFunc reports whether l and other have the same length, holes at the
// same positions, and equal values (by eq) everywhere else.
func (l *List[T]) EqualFunc(other *List[T], eq func(a, b T) bool) bool {
	if l.Len() != other.Len() {
		return false
	}

	for i := 1; i <= l.Len(); i++ {
		a, aok := l.Get(i)
		b, bok := other.Get(i)

		if aok != bok {
			return false
		}

		if aok && !eq(a, b) {
			return false
		}
	}

	return true
}

func (l *List[T]) grow(n int) {
	for len(l.slots) < n {
		l.slots = append(l.slots, slot[T]{})
	}
}
