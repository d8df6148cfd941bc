// Package bus carries typed feed events from adapter goroutines into
// the single per-feed actor goroutine.
package bus

import (
	"context"
	"sync/atomic"

	"main/internal/model"
	"main/pkg/exception"
)

// EventKind is the closed set of feed lifecycle events.
type EventKind uint8

const (
	EventOpen EventKind = iota + 1
	EventMessage
	EventClose
	EventError
)

// Event is the unit passed through the in-memory queue.
type Event struct {
	Kind   EventKind
	Update model.Update
	Err    error
}

// Queue is a bounded, non-blocking event queue.
type Queue struct {
	ch     chan Event
	closed atomic.Bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e Event) error {
	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return exception.ErrQueueFull
	}
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

// Events exposes the receive side for the owning actor's select loop.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Run consumes events until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-q.ch:
			if !ok {
				return
			}
			handler(e)
		}
	}
}
