// Package arena provides non-owning handles to externally owned values.
//
// An Arena hands out Handles instead of pointers. Each slot carries an epoch;
// releasing a value bumps the epoch so every outstanding handle to it decays
// at once. Holders detect decay lazily by resolving the handle, which makes
// the arena a drop-in replacement for weak references:
//
//   - Retain/Drop: reference-count a value held by some container
//   - Release: the owner destroyed the value; all handles decay
//   - Resolve: returns false once a handle has decayed
//
// Values must be comparable by identity (pointers in practice).
package arena

import "sync"

// Handle is a non-owning reference to a value in an Arena. The zero Handle
// never resolves.
type Handle struct {
	slot  uint32
	epoch uint32
}

// IsZero reports whether h is the zero handle
func (h Handle) IsZero() bool {
	return h.epoch == 0
}

type slot[T comparable] struct {
	value T
	epoch uint32
	refs  int
	live  bool
}

// Arena stores values addressed by epoch-checked handles
type Arena[T comparable] struct {
	mu    sync.Mutex
	slots []slot[T]
	free  []uint32
	index map[T]Handle
}

// New creates an empty arena
func New[T comparable]() *Arena[T] {
	return &Arena[T]{index: make(map[T]Handle)}
}

// Retain returns the live handle for v, allocating a slot on first use, and
// increments its reference count.
func (a *Arena[T]) Retain(v T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.index[v]; ok {
		a.slots[h.slot].refs++
		return h
	}

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	s := &a.slots[idx]
	s.epoch++
	if s.epoch == 0 {
		// Skip the zero epoch on wrap-around so no handle collides with Handle{}
		s.epoch = 1
	}
	s.value = v
	s.refs = 1
	s.live = true

	h := Handle{slot: idx, epoch: s.epoch}
	a.index[v] = h
	return h
}

// Drop releases one reference taken by Retain. Stale handles are ignored.
func (a *Arena[T]) Drop(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.slotFor(h)
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		a.freeSlot(h.slot)
	}
}

// Resolve returns the value h refers to, or false if it has decayed
func (a *Arena[T]) Resolve(h Handle) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.slotFor(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Release decays every handle to v regardless of its reference count. It
// reports whether v was held.
func (a *Arena[T]) Release(v T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.index[v]
	if !ok {
		return false
	}
	a.freeSlot(h.slot)
	return true
}

// Len returns the number of live values
func (a *Arena[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.index)
}

// slotFor returns the live slot addressed by h (must hold lock)
func (a *Arena[T]) slotFor(h Handle) (*slot[T], bool) {
	if h.IsZero() || int(h.slot) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.slot]
	if !s.live || s.epoch != h.epoch {
		return nil, false
	}
	return s, true
}

// freeSlot clears a slot and bumps its epoch (must hold lock)
func (a *Arena[T]) freeSlot(idx uint32) {
	s := &a.slots[idx]
	delete(a.index, s.value)

	var zero T
	s.value = zero
	s.refs = 0
	s.live = false
	s.epoch++
	if s.epoch == 0 {
		s.epoch = 1
	}
	a.free = append(a.free, idx)
}
