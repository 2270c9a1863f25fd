package train

import "fmt"

// Window walks a slice in consecutive, non-overlapping batches whose size can
// change between calls to Next. The last batch may be shorter.
//
// Example:
//
//	w := train.NewWindow([]int{1, 2, 3, 4}, 3)
//	w.Next() // [1 2 3], true
//	w.Resize(2)
//	w.Next() // [4], true
//	w.Next() // nil, false
type Window[T any] struct {
	data []T
	pos  int
	size int
}

// NewWindow creates a window over data. It panics if size is not positive.
func NewWindow[T any](data []T, size int) *Window[T] {
	w := &Window[T]{data: data}
	w.Resize(size)
	return w
}

// Next returns the next batch, or false once the slice is exhausted.
// The returned slice aliases the underlying data.
func (w *Window[T]) Next() ([]T, bool) {
	n := min(w.size, len(w.data)-w.pos)
	if n <= 0 {
		return nil, false
	}
	batch := w.data[w.pos : w.pos+n : w.pos+n]
	w.pos += n
	return batch, true
}

// Resize changes the size of subsequent batches.
func (w *Window[T]) Resize(size int) {
	if size <= 0 {
		panic(fmt.Sprintf("train: window size must be positive, got %d", size))
	}
	w.size = size
}

// Size returns the current batch size.
func (w *Window[T]) Size() int {
	return w.size
}

// Remaining returns the number of elements not yet returned.
func (w *Window[T]) Remaining() int {
	return len(w.data) - w.pos
}
