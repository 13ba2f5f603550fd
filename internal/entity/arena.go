// Package entity provides generation-checked handles for game entities.
// Handles are opaque indices with no ownership semantics: a handle kept
// across a slot reuse fails the generation check instead of silently
// aliasing the new occupant.
package entity

import "fmt"

// Handle identifies an entity stored in an Arena.
// The zero Handle is never valid (generations start at 1).
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero returns true for the invalid zero handle.
func (h Handle) IsZero() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "e-nil"
	}
	return fmt.Sprintf("e%d.%d", h.Index, h.Generation)
}

type slot[T any] struct {
	generation uint32
	live       bool
	value      T
}

// Arena is a slot-indexed store handing out generation-checked handles.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores a value and returns its handle.
// Freed slots are reused with a bumped generation.
func (a *Arena[T]) Insert(v T) Handle {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.generation++
		s.live = true
		s.value = v
		return Handle{Index: idx, Generation: s.generation}
	}
	a.slots = append(a.slots, slot[T]{generation: 1, live: true, value: v})
	return Handle{Index: uint32(len(a.slots) - 1), Generation: 1}
}

// Get returns the value for a handle. A stale handle (slot reused or
// removed) returns the zero value and false.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	var zero T
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return zero, false
	}
	return s.value, true
}

// Contains reports whether the handle refers to a live entity.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Remove frees the slot for a handle. Returns false for stale handles.
func (a *Arena[T]) Remove(h Handle) bool {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return false
	}
	var zero T
	s.live = false
	s.value = zero
	a.free = append(a.free, h.Index)
	a.count--
	return true
}

// Len returns the number of live entities.
func (a *Arena[T]) Len() int {
	return a.count
}

// HandleAt returns the live handle occupying the given slot index.
// Used when translating persisted integer indices back to handles.
func (a *Arena[T]) HandleAt(index uint32) (Handle, bool) {
	if int(index) >= len(a.slots) {
		return Handle{}, false
	}
	s := &a.slots[index]
	if !s.live {
		return Handle{}, false
	}
	return Handle{Index: index, Generation: s.generation}, true
}

// ForEach visits live entities in slot-index order. The order is
// deterministic, which snapshotting relies on.
func (a *Arena[T]) ForEach(fn func(Handle, T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{Index: uint32(i), Generation: s.generation}, s.value)
		}
	}
}
