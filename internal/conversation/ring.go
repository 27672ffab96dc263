package conversation

// Ring is a fixed-capacity FIFO that evicts its oldest element when a push
// would exceed the capacity. The zero value is unusable; use NewRing.
type Ring[T any] struct {
	buf   []T
	head  int
	count int
}

// NewRing returns an empty ring holding at most capacity elements.
// A capacity below 1 is treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v and reports whether an element was evicted to make room.
func (r *Ring[T]) Push(v T) (evicted bool) {
	if r.count == len(r.buf) {
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return true
	}
	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++
	return false
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Items returns a copy of the stored elements, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.count)
	for i := range r.count {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Tail returns a copy of the newest n elements, oldest first.
func (r *Ring[T]) Tail(n int) []T {
	if n <= 0 {
		return []T{}
	}
	items := r.Items()
	if n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}

// DropFront removes up to n of the oldest elements.
func (r *Ring[T]) DropFront(n int) {
	if n <= 0 {
		return
	}
	if n > r.count {
		n = r.count
	}
	var zero T
	for range n {
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
		r.count--
	}
}

// Clear removes every element.
func (r *Ring[T]) Clear() {
	r.DropFront(r.count)
	r.head = 0
}
