// Package seglist provides an append-only list with stable element addresses.
//
// Elements are stored in fixed-capacity blocks that are never reallocated, so
// a pointer obtained from Get stays valid across any number of later pushes.
// This matters when code running during a push (for example a node initializer
// reading an earlier sibling) holds references into the same list.
package seglist

const blockSize = 32

// List is an append-only segmented list. The zero value is ready to use.
// It is not safe for concurrent use.
type List[T any] struct {
	blocks [][]T
	length int
}

// Push appends value and returns its index. Indices are assigned
// monotonically from zero and are never reused.
func (l *List[T]) Push(value T) int {
	last := len(l.blocks) - 1
	if last < 0 || len(l.blocks[last]) == blockSize {
		l.blocks = append(l.blocks, make([]T, 0, blockSize))
		last++
	}
	l.blocks[last] = append(l.blocks[last], value)
	l.length++
	return l.length - 1
}

// Get returns a pointer to the element at index i, or nil if i is out of
// range. The pointer stays valid for the lifetime of the list.
func (l *List[T]) Get(i int) *T {
	if i < 0 || i >= l.length {
		return nil
	}
	return &l.blocks[i/blockSize][i%blockSize]
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return l.length
}

// ForEach calls fn for each element in index order.
// fn must not push while iterating.
func (l *List[T]) ForEach(fn func(i int, v *T)) {
	i := 0
	for b := range l.blocks {
		block := l.blocks[b]
		for j := range block {
			fn(i, &block[j])
			i++
		}
	}
}
