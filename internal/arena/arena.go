// Package arena provides a generational slot arena.
//
// Values are stored in indexed slots and addressed by an opaque Key. Removing
// a value frees its slot for reuse, but bumps the slot's generation so that
// stale keys held by callers can never alias a value inserted later into the
// same slot. This is what makes handles into the arena safe to copy freely:
// a key either refers to the exact value it was minted for, or to nothing.
package arena

// Key identifies a value in an Arena. Keys are opaque, copyable, and
// comparable. The zero Key never refers to a live value.
type Key struct {
	index      uint32
	generation uint32
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena is a growable slot table with generational keys.
// It is not safe for concurrent use.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// New creates an empty Arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value and returns its Key.
func (a *Arena[T]) Insert(value T) Key {
	a.count++

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]

		s := &a.slots[idx]
		// Generation was bumped at removal time; the slot is ready to reuse.
		s.value = value
		s.occupied = true
		return Key{index: idx, generation: s.generation}
	}

	a.slots = append(a.slots, slot[T]{value: value, generation: 1, occupied: true})
	return Key{index: uint32(len(a.slots) - 1), generation: 1}
}

// Get returns the value for key, if it is still live.
func (a *Arena[T]) Get(key Key) (T, bool) {
	if s := a.lookup(key); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

// Remove deletes the value for key and returns it. Removing an already
// removed (or never valid) key is a no-op.
func (a *Arena[T]) Remove(key Key) (T, bool) {
	s := a.lookup(key)
	if s == nil {
		var zero T
		return zero, false
	}

	value := s.value
	var zero T
	s.value = zero
	s.occupied = false
	s.generation++ // invalidate every outstanding copy of key
	a.free = append(a.free, key.index)
	a.count--
	return value, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// ForEach calls fn for every live value. Insertion order is not preserved;
// iteration runs in slot order. fn must not insert or remove.
func (a *Arena[T]) ForEach(fn func(Key, T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.occupied {
			fn(Key{index: uint32(i), generation: s.generation}, s.value)
		}
	}
}

func (a *Arena[T]) lookup(key Key) *slot[T] {
	if key.generation == 0 || int(key.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[key.index]
	if !s.occupied || s.generation != key.generation {
		return nil
	}
	return s
}
