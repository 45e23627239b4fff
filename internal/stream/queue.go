// Package stream provides an unbounded, ordered, single-consumer queue.
//
// Producers never block: Push appends under a mutex and signals the
// consumer. The consumer waits in Next, which honours context cancellation
// without ever removing an item it did not return. That property lets a
// consumer be cancelled and replaced without losing anything already pushed.
//
// After Close, Push drops items and Next keeps returning what is buffered
// until the queue is empty, then reports errors.ErrStreamClosed.
package stream

import (
	"context"
	"sync"

	"github.com/Iron-Ham/consortium/internal/errors"
)

// Queue is an unbounded FIFO. Any number of goroutines may Push; only one
// goroutine at a time may call Next.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool
	signal chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends v. It never blocks. It reports false if the queue is closed
// and v was dropped.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.notify()
	return true
}

func (q *Queue[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryNext returns the oldest item without waiting.
func (q *Queue[T]) TryNext() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Reclaim the backing array once it has been fully consumed, or once
	// the dead prefix dominates it.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0:0], q.items[q.head:]...)
		q.head = 0
	}
	return v, true
}

// Next blocks until an item is available, ctx is done, or the queue is
// closed and empty. An item is removed only when it is returned.
func (q *Queue[T]) Next(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		v, ok := q.popLocked()
		closed := q.closed
		q.mu.Unlock()

		if ok {
			return v, nil
		}
		var zero T
		if closed {
			return zero, errors.ErrStreamClosed
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close stops accepting new items. Buffered items remain readable.
// Closing twice is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
