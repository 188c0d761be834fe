package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO buffer drained in batches.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates an empty queue with room for capacity items.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0, max(capacity, 0)),
	}
}

// Push appends items to the tail.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Pop removes the head item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain returns all buffered items in push order and empties the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = make([]T, 0, cap(out))
	return out
}

// DrainN removes and returns at most n items from the head. n <= 0 drains nothing.
func (q *Queue[T]) DrainN(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || len(q.items) == 0 {
		return nil
	}
	n = min(n, len(q.items))
	out := make([]T, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	return out
}
