package concurrency

import "sync"

// Queue is an unbounded FIFO shared by any number of producers and a single
// consumer. Push never blocks; Pop blocks until an item arrives or the queue is
// closed.
type Queue[T any] struct {

	// mu protects items and closed.
	mu *sync.Mutex

	// cond wakes the consumer when an item is pushed or the queue closes.
	cond *sync.Cond

	// items holds pending entries in push order.
	items []T

	// closed rejects further pushes and releases a waiting consumer.
	closed bool
}

//region Implementation

// Push appends item. It reports false, without enqueuing, once the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// Pop removes and returns the oldest item, blocking while the queue is empty.
// It returns false once the queue has been closed.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	var zero T
	if q.closed {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes, wakes the consumer and returns the items that
// were still pending. Calling Close again returns nil.
func (q *Queue[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	pending := q.items
	q.items = nil
	q.cond.Broadcast()
	return pending
}

//endregion

//region Constructor

// NewQueue creates an empty, open queue.
func NewQueue[T any]() *Queue[T] {
	mu := &sync.Mutex{}
	return &Queue[T]{
		mu:   mu,
		cond: sync.NewCond(mu),
	}
}

//endregion
