// Package history provides a fixed-capacity circular buffer for recent
// placement records.
//
// A [Ring] never shifts its contents: once full, each Push overwrites the
// oldest slot and advances the head index. Reads are returned oldest-first.
package history

// Ring is a fixed-capacity circular buffer. The zero value is unusable;
// create rings with [New].
type Ring[T any] struct {
	buf  []T
	head int // next write position
	size int
}

// New creates a ring holding at most capacity items.
// Capacities below 1 are raised to 1.
func New[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, max(capacity, 1))}
}

// Push appends v, overwriting the oldest item when the ring is full.
func (r *Ring[T]) Push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// Len returns the number of stored items.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Last returns up to n of the most recent items, oldest first.
func (r *Ring[T]) Last(n int) []T {
	n = max(0, min(n, r.size))
	out := make([]T, n)
	start := r.head - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := range n {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// All returns every stored item, oldest first.
func (r *Ring[T]) All() []T { return r.Last(r.size) }

// Reset drops all items while keeping the capacity.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head = 0
	r.size = 0
}
